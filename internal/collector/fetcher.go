package collector

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"time"

	"EquityPulse/internal/model"
)

// ErrNoData is returned when a source has no bars for the requested range.
var ErrNoData = errors.New("no data returned")

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchDailyBars returns daily bars for ticker within [start, end].
	FetchDailyBars(ctx context.Context, ticker string, start, end time.Time) ([]model.Bar, error)
	FetchCompany(ctx context.Context, ticker string) (*model.Company, error)
	Name() string
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// normalizeBars sorts bars by date and keeps the last bar of any
// duplicated day.
func normalizeBars(bars []model.Bar) []model.Bar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
