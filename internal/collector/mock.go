package collector

import (
	"context"
	"math"
	"time"

	"github.com/guregu/null/v6"

	"EquityPulse/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price     float64
	DailyData map[string][]model.Bar
	Companies map[string]*model.Company
	Err       error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, ticker string, start, end time.Time) ([]model.Bar, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.DailyData[ticker]; ok {
		out := make([]model.Bar, len(bars))
		copy(out, bars)
		return out, nil
	}
	return generateMockBars(ticker, m.Price, start, end), nil
}

func (m *MockFetcher) FetchCompany(_ context.Context, ticker string) (*model.Company, error) {
	if c, ok := m.Companies[ticker]; ok {
		return c, nil
	}
	return &model.Company{Ticker: ticker, LongName: null.StringFrom(ticker + " Inc.")}, nil
}

// generateMockBars produces one bar per weekday in [start, end].
func generateMockBars(ticker string, basePrice float64, start, end time.Time) []model.Bar {
	if basePrice <= 0 {
		basePrice = 100
	}
	var bars []model.Bar
	i := 0
	for d := model.Day(start); !d.After(model.Day(end)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		p := basePrice * (1 + 0.05*math.Sin(float64(i)/9) + float64(i)*0.0005)
		bars = append(bars, model.Bar{
			Ticker: ticker,
			Date:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: null.IntFrom(1_000_000 + int64(i%7)*10_000),
		})
		i++
	}
	return bars
}
