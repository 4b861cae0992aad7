package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRESTFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/v1/bars/daily":
			assert.Equal(t, "MSFT", r.URL.Query().Get("symbol"))
			assert.Equal(t, "2024-01-01", r.URL.Query().Get("from"))
			w.Write([]byte(`[
				{"timestamp":1704326400,"open":1,"high":2,"low":0.5,"close":1.5,"volume":null},
				{"timestamp":1704240000,"open":1,"high":2,"low":0.5,"close":1.4,"volume":100},
				{"timestamp":1704326400,"open":1,"high":2,"low":0.5,"close":1.6,"volume":200}
			]`))
		case "/api/v1/company":
			w.Write([]byte(`{"long_name":"Microsoft Corporation","sector":"Technology","market_cap":null}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars, err := f.FetchDailyBars(context.Background(), "MSFT", start, start.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 1.4, bars[0].Close)
	// duplicated day keeps the last bar
	assert.Equal(t, 1.6, bars[1].Close)
	assert.Equal(t, int64(200), bars[1].Volume.Int64)

	c, err := f.FetchCompany(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "Microsoft Corporation", c.LongName.String)
	assert.False(t, c.MarketCap.Valid)
	assert.False(t, c.Industry.Valid)
}

func TestRESTFetcher_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := NewRESTFetcher(srv.URL, "", "").FetchDailyBars(context.Background(), "MSFT", time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrNoData)
}
