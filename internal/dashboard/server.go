// Package dashboard serves the enriched price panel over HTTP.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"EquityPulse/internal/metrics"
	"EquityPulse/internal/recorder"
)

// Server is the dashboard API.
type Server struct {
	reader   recorder.Reader
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	log      *zap.Logger
	engine   *gin.Engine
}

// New builds the router. A nil gatherer serves the default registry.
func New(reader recorder.Reader, m *metrics.Metrics, gatherer prometheus.Gatherer, log *zap.Logger) *Server {
	if m == nil {
		m = metrics.New(nil)
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if log == nil {
		log = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{reader: reader, metrics: m, gatherer: gatherer, log: log, engine: gin.New()}
	s.engine.Use(gin.Recovery(), s.observe())
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/health", s.handleHealth)
	r.GET("/metrics/prometheus", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")
	api.GET("/tickers", s.handleTickers)
	api.GET("/companies", s.handleCompanies)
	api.GET("/metrics", s.handleCatalog)
	api.GET("/prices/:ticker", s.handlePrices)
	api.GET("/runs", s.handleRuns)
}

// observe counts and logs every request by matched route.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		began := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		code := c.Writer.Status()
		s.metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
		s.log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("code", code),
			zap.Duration("took", time.Since(began)),
		)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("dashboard listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("dashboard shutting down")
	return srv.Shutdown(shutdownCtx)
}
