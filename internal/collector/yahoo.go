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

const (
	yahooChartURL   = "https://query1.finance.yahoo.com/v8/finance/chart"
	yahooSummaryURL = "https://query2.finance.yahoo.com/v10/finance/quoteSummary"
)

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	Client     *http.Client
	ChartURL   string
	SummaryURL string
	SymbolMap  map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		Client:     newHTTPClient(proxyURL),
		ChartURL:   yahooChartURL,
		SummaryURL: yahooSummaryURL,
		SymbolMap:  map[string]string{},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func at(vals []*float64, i int) *float64 {
	if i < len(vals) {
		return vals[i]
	}
	return nil
}

func (f *YahooFetcher) get(ctx context.Context, u string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("yahoo decode: %w", err)
	}
	return nil
}

// FetchDailyBars downloads the daily history of ticker between start and
// end, both inclusive.
func (f *YahooFetcher) FetchDailyBars(ctx context.Context, ticker string, start, end time.Time) ([]model.Bar, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", fmt.Sprint(model.Day(start).Unix()))
	q.Set("period2", fmt.Sprint(model.Day(end).AddDate(0, 0, 1).Unix()))
	q.Set("events", "history")
	u := fmt.Sprintf("%s/%s?%s", f.ChartURL, url.PathEscape(f.yahooSymbol(ticker)), q.Encode())

	var chart yahooChart
	if err := f.get(ctx, u, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", ticker, ErrNoData)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.Bar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		c := at(quote.Close, i)
		if c == nil {
			continue // skip null bars (holidays, halts)
		}
		bar := model.Bar{
			Ticker: ticker,
			Date:   model.Day(time.Unix(ts+result.Meta.GMTOffset, 0).UTC()),
			Close:  *c,
		}
		if o := at(quote.Open, i); o != nil {
			bar.Open = *o
		}
		if h := at(quote.High, i); h != nil {
			bar.High = *h
		}
		if l := at(quote.Low, i); l != nil {
			bar.Low = *l
		}
		if v := at(quote.Volume, i); v != nil {
			bar.Volume = null.IntFrom(int64(*v))
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", ticker, ErrNoData)
	}
	return normalizeBars(bars), nil
}

type yahooRaw struct {
	Raw *float64 `json:"raw"`
}

type yahooSummary struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector            *string `json:"sector"`
				Industry          *string `json:"industry"`
				Country           *string `json:"country"`
				Website           *string `json:"website"`
				FullTimeEmployees *int64  `json:"fullTimeEmployees"`
			} `json:"assetProfile"`
			Price struct {
				LongName  *string  `json:"longName"`
				MarketCap yahooRaw `json:"marketCap"`
			} `json:"price"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

// FetchCompany reads descriptive metadata from the quoteSummary endpoint.
func (f *YahooFetcher) FetchCompany(ctx context.Context, ticker string) (*model.Company, error) {
	u := fmt.Sprintf("%s/%s?modules=assetProfile,price", f.SummaryURL, url.PathEscape(f.yahooSymbol(ticker)))

	var summary yahooSummary
	if err := f.get(ctx, u, &summary); err != nil {
		return nil, err
	}
	if summary.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", summary.QuoteSummary.Error.Description)
	}
	if len(summary.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s company: %w", ticker, ErrNoData)
	}

	r := summary.QuoteSummary.Result[0]
	c := &model.Company{
		Ticker:            ticker,
		LongName:          null.StringFromPtr(r.Price.LongName),
		Sector:            null.StringFromPtr(r.AssetProfile.Sector),
		Industry:          null.StringFromPtr(r.AssetProfile.Industry),
		Country:           null.StringFromPtr(r.AssetProfile.Country),
		Website:           null.StringFromPtr(r.AssetProfile.Website),
		FullTimeEmployees: null.IntFromPtr(r.AssetProfile.FullTimeEmployees),
	}
	if r.Price.MarketCap.Raw != nil {
		c.MarketCap = null.IntFrom(int64(*r.Price.MarketCap.Raw))
	}
	return c, nil
}
