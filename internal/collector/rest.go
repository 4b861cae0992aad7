package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/guregu/null/v6"

	"EquityPulse/internal/model"
)

// RESTFetcher implements Fetcher against a generic JSON bars API.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape of one daily bar.
type restBar struct {
	Timestamp int64    `json:"timestamp"`
	Open      float64  `json:"open"`
	High      float64  `json:"high"`
	Low       float64  `json:"low"`
	Close     float64  `json:"close"`
	Volume    null.Int `json:"volume"`
}

type restCompany struct {
	LongName          null.String `json:"long_name"`
	Sector            null.String `json:"sector"`
	Industry          null.String `json:"industry"`
	Country           null.String `json:"country"`
	Website           null.String `json:"website"`
	MarketCap         null.Int    `json:"market_cap"`
	FullTimeEmployees null.Int    `json:"full_time_employees"`
}

func (f *RESTFetcher) get(ctx context.Context, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("rest fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("rest: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("rest decode: %w", err)
	}
	return nil
}

func (f *RESTFetcher) FetchDailyBars(ctx context.Context, ticker string, start, end time.Time) ([]model.Bar, error) {
	q := url.Values{}
	q.Set("symbol", ticker)
	q.Set("from", start.Format(model.DateLayout))
	q.Set("to", end.Format(model.DateLayout))
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?%s", f.BaseURL, q.Encode())

	var raw []restBar
	if err := f.get(ctx, endpoint, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("rest %s: %w", ticker, ErrNoData)
	}

	bars := make([]model.Bar, len(raw))
	for i, b := range raw {
		bars[i] = model.Bar{
			Ticker: ticker,
			Date:   model.Day(time.Unix(b.Timestamp, 0).UTC()),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	return normalizeBars(bars), nil
}

func (f *RESTFetcher) FetchCompany(ctx context.Context, ticker string) (*model.Company, error) {
	endpoint := fmt.Sprintf("%s/api/v1/company?symbol=%s", f.BaseURL, url.QueryEscape(ticker))

	var raw restCompany
	if err := f.get(ctx, endpoint, &raw); err != nil {
		return nil, err
	}
	return &model.Company{
		Ticker:            ticker,
		LongName:          raw.LongName,
		Sector:            raw.Sector,
		Industry:          raw.Industry,
		Country:           raw.Country,
		Website:           raw.Website,
		MarketCap:         raw.MarketCap,
		FullTimeEmployees: raw.FullTimeEmployees,
	}, nil
}
