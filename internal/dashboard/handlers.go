package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"EquityPulse/internal/model"
	"EquityPulse/internal/recorder"
)

func (s *Server) fail(c *gin.Context, err error) {
	s.log.Error("dashboard query", zap.String("route", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleTickers(c *gin.Context) {
	tickers, err := s.reader.Tickers(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(tickers))
	for _, t := range tickers {
		out = append(out, gin.H{
			"ticker": t.Ticker,
			"first":  t.First.Format(model.DateLayout),
			"last":   t.Last.Format(model.DateLayout),
			"rows":   t.Rows,
		})
	}
	c.JSON(http.StatusOK, gin.H{"tickers": out})
}

func (s *Server) handleCompanies(c *gin.Context) {
	companies, err := s.reader.Companies(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies})
}

func (s *Server) handleCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"metrics": model.MetricCatalog,
		"default": model.DefaultMetrics,
	})
}

func (s *Server) handleRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	runs, err := s.reader.Runs(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handlePrices(c *gin.Context) {
	ticker := strings.ToUpper(c.Param("ticker"))
	pq, err := parsePriceQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	first, last, err := s.reader.DateRange(ctx, ticker)
	if errors.Is(err, recorder.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown ticker %q", ticker)})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	if pq.Start.IsZero() {
		pq.Start = first
	}
	if pq.End.IsZero() {
		pq.End = last
	}

	rows, err := s.reader.QueryEnriched(ctx, recorder.Filter{
		Ticker:     ticker,
		Start:      pq.Start,
		End:        pq.End,
		Descending: pq.Desc,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	if pq.Format == "csv" {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_%s_%s.csv"`,
			ticker, pq.Start.Format(model.DateLayout), pq.End.Format(model.DateLayout)))
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		if err := writeCSV(c.Writer, rows, pq.Metrics); err != nil {
			s.log.Error("write csv", zap.Error(err))
		}
		return
	}

	projected := make([]map[string]any, len(rows))
	for i, row := range rows {
		projected[i] = projectRow(row, pq.Metrics)
	}
	c.JSON(http.StatusOK, gin.H{
		"ticker":  ticker,
		"start":   pq.Start.Format(model.DateLayout),
		"end":     pq.End.Format(model.DateLayout),
		"metrics": pq.Metrics,
		"rows":    projected,
	})
}
