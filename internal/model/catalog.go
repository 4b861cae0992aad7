package model

// MetricInfo is the display metadata of a dashboard column.
type MetricInfo struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// MetricCatalog lists the columns the dashboard can chart, in display order.
var MetricCatalog = []MetricInfo{
	{"close", "Closing Price", "The last trading price of the stock for the selected day."},
	{"volume", "Volume", "The number of shares traded during the day."},
	{"ma_5", "MA 5", "5-day moving average: short-term trend based on past 5 days' closing prices."},
	{"ma_63", "MA 63", "63-day moving average: mid-term trend (approx. 1 quarter)."},
	{"ma_126", "MA 126", "126-day moving average: reflects half-year price trend."},
	{"ma_252", "MA 252", "252-day moving average: long-term price trend over a full trading year."},
	{"volatility_30d", "30D Volatility", "30-day rolling standard deviation of daily returns. Higher = riskier."},
	{"macd", "MACD", "Moving Average Convergence Divergence: a trend-following momentum indicator."},
	{"rsi", "RSI", "Relative Strength Index (0–100): above 70 = overbought, below 30 = oversold."},
}

// DefaultMetrics is the initial dashboard selection.
var DefaultMetrics = []string{"close", "ma_63", "rsi"}

// LookupMetric finds catalog metadata by column key.
func LookupMetric(key string) (MetricInfo, bool) {
	for _, m := range MetricCatalog {
		if m.Key == key {
			return m, true
		}
	}
	return MetricInfo{}, false
}
