package dashboard

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EquityPulse/internal/metrics"
	"EquityPulse/internal/model"
	"EquityPulse/internal/recorder"
)

var day0 = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func seed(t *testing.T) (*Server, *metrics.Metrics) {
	t.Helper()
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "dash.db"), true, nil)
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	ctx := context.Background()
	es := &model.EnrichedSeries{Ticker: "AAPL"}
	for i := 0; i < 10; i++ {
		row := model.EnrichedRow{
			Ticker: "AAPL",
			Date:   day0.AddDate(0, 0, i),
			Close:  100 + float64(i),
			Volume: null.IntFrom(int64(1000 + i)),
			MACD:   null.FloatFrom(0.5),
		}
		if i >= 4 {
			row.MA5 = null.FloatFrom(98 + float64(i))
		}
		es.Rows = append(es.Rows, row)
	}
	require.NoError(t, rec.RecordEnriched(ctx, es))
	require.NoError(t, rec.RecordCompany(ctx, &model.Company{Ticker: "AAPL", LongName: null.StringFrom("Apple Inc.")}))
	require.NoError(t, rec.RecordRun(ctx, &recorder.RunRecord{
		RunID: "r1", Trigger: "MANUAL", Status: "success",
		RangeStart: day0, RangeEnd: day0.AddDate(0, 0, 9),
		StartedAt: day0, FinishedAt: day0.Add(time.Minute), Tickers: 1,
	}))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	return New(rec, m, reg, nil), m
}

func get(t *testing.T, s *Server, url string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	return w
}

type pricesResponse struct {
	Ticker  string             `json:"ticker"`
	Start   string             `json:"start"`
	End     string             `json:"end"`
	Metrics []model.MetricInfo `json:"metrics"`
	Rows    []map[string]any   `json:"rows"`
}

func decodePrices(t *testing.T, w *httptest.ResponseRecorder) pricesResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp pricesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestPrices_DefaultsToFullRangeDescending(t *testing.T) {
	s, _ := seed(t)
	resp := decodePrices(t, get(t, s, "/api/v1/prices/aapl"))

	assert.Equal(t, "AAPL", resp.Ticker)
	assert.Equal(t, "2024-05-01", resp.Start)
	assert.Equal(t, "2024-05-10", resp.End)
	require.Len(t, resp.Rows, 10)
	assert.Equal(t, "2024-05-10", resp.Rows[0]["date"])
	assert.Equal(t, "2024-05-01", resp.Rows[9]["date"])

	require.Len(t, resp.Metrics, 3)
	assert.Equal(t, "close", resp.Metrics[0].Key)
	assert.Contains(t, resp.Rows[0], "ma_63")
	assert.Nil(t, resp.Rows[0]["ma_63"])
	assert.NotContains(t, resp.Rows[0], "macd")
}

func TestPrices_FilterAndProjection(t *testing.T) {
	s, _ := seed(t)
	resp := decodePrices(t, get(t, s, "/api/v1/prices/AAPL?start=2024-05-03&end=2024-05-06&metrics=ma_5,volume&order=asc"))

	require.Len(t, resp.Rows, 4)
	assert.Equal(t, "2024-05-03", resp.Rows[0]["date"])
	assert.Equal(t, "2024-05-06", resp.Rows[3]["date"])
	assert.Nil(t, resp.Rows[0]["ma_5"])
	assert.Equal(t, 103.0, resp.Rows[3]["ma_5"])
	assert.Equal(t, 1005.0, resp.Rows[3]["volume"])
	assert.NotContains(t, resp.Rows[0], "close")
}

func TestPrices_EmptyRange(t *testing.T) {
	s, _ := seed(t)
	resp := decodePrices(t, get(t, s, "/api/v1/prices/AAPL?start=2023-01-01&end=2023-02-01"))
	assert.NotNil(t, resp.Rows)
	assert.Empty(t, resp.Rows)
}

func TestPrices_BadRequests(t *testing.T) {
	s, _ := seed(t)
	for _, url := range []string{
		"/api/v1/prices/AAPL?metrics=close,alpha",
		"/api/v1/prices/AAPL?start=05/01/2024",
		"/api/v1/prices/AAPL?start=2024-05-09&end=2024-05-01",
		"/api/v1/prices/AAPL?order=sideways",
		"/api/v1/prices/AAPL?format=xml",
		"/api/v1/prices/AAPL?metrics=,",
		"/api/v1/prices/AAPL?metrics=%20,%20",
	} {
		w := get(t, s, url)
		assert.Equal(t, http.StatusBadRequest, w.Code, url)
		assert.Contains(t, w.Body.String(), "error", url)
	}
	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/v1/prices/TSLA").Code)
	assert.Equal(t, http.StatusOK, get(t, s, "/api/v1/prices/aapl").Code)
}

func TestPrices_CSV(t *testing.T) {
	s, _ := seed(t)
	w := get(t, s, "/api/v1/prices/AAPL?end=2024-05-05&metrics=close,ma_5&order=asc&format=csv")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "AAPL_2024-05-01_2024-05-05.csv")

	records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, []string{"date", "ticker", "Closing Price", "MA 5"}, records[0])
	assert.Equal(t, []string{"2024-05-01", "AAPL", "100", ""}, records[1])
	assert.Equal(t, []string{"2024-05-05", "AAPL", "104", "102"}, records[5])
}

func TestTickersCompaniesCatalogRuns(t *testing.T) {
	s, _ := seed(t)

	w := get(t, s, "/api/v1/tickers")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tickers":[{"ticker":"AAPL","first":"2024-05-01","last":"2024-05-10","rows":10}]}`, w.Body.String())

	w = get(t, s, "/api/v1/companies")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"long_name":"Apple Inc."`)

	w = get(t, s, "/api/v1/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	var catalog struct {
		Metrics []model.MetricInfo `json:"metrics"`
		Default []string           `json:"default"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &catalog))
	assert.Len(t, catalog.Metrics, 9)
	assert.Equal(t, []string{"close", "ma_63", "rsi"}, catalog.Default)

	w = get(t, s, "/api/v1/runs?limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"run_id":"r1"`)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/v1/runs?limit=x").Code)
}

func TestHealthAndPrometheus(t *testing.T) {
	s, m := seed(t)

	w := get(t, s, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	get(t, s, "/nope")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/health", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("unmatched", "404")))

	w = get(t, s, "/metrics/prometheus")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "equitypulse_http_requests_total")
}
