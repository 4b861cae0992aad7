package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"EquityPulse/internal/collector"
	"EquityPulse/internal/config"
	"EquityPulse/internal/logger"
	"EquityPulse/internal/metrics"
	"EquityPulse/internal/model"
	"EquityPulse/internal/notifier"
	"EquityPulse/internal/pipeline"
	"EquityPulse/internal/recorder"
	"EquityPulse/internal/scheduler"
	"EquityPulse/internal/trace"
)

func main() {
	cfgPath := flag.String("config", envOr("CONFIG_PATH", "configs/config.yaml"), "path to YAML config")
	once := flag.Bool("once", false, "run a single ETL pass and exit")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address")
	flag.Parse()

	if err := run(*cfgPath, *once, *metricsAddr); err != nil {
		fmt.Fprintf(os.Stderr, "equitypulse etl: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func run(cfgPath string, once bool, metricsAddr string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	log.Info("EquityPulse ETL starting", zap.Strings("tickers", cfg.Tickers), zap.Int("lookback_days", cfg.LookbackDays))

	if err := trace.Init(cfg.Tracing.Enabled, "equitypulse-etl"); err != nil {
		log.Warn("tracing disabled", zap.Error(err))
	}
	log.Info("tracing", zap.Bool("enabled", trace.Enabled()))
	defer trace.Shutdown(context.Background())

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.BaseURL != "" {
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Info("data source selected", zap.String("source", fetcher.Name()))

	rec, err := openRecorder(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rec.Close()

	p := pipeline.New(collector.NewCollector(fetcher, m, log), rec, m, log, pipeline.Options{
		Tickers:      cfg.Tickers,
		LookbackDays: cfg.LookbackDays,
		Workers:      cfg.ETL.Workers,
	})

	var tn *notifier.TelegramNotifier
	var n scheduler.Notifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		n = tn
	}

	sched := scheduler.NewScheduler(ctx, p, n, log)

	if once {
		summary := sched.RunNow(model.TriggerManual)
		if summary == nil || summary.Status() == model.RunFailed {
			return fmt.Errorf("etl run failed")
		}
		return nil
	}

	if metricsAddr != "" {
		go serveMetrics(ctx, metricsAddr, reg, log)
	}

	if err := sched.Register(cfg.ETL.Cron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	if cfg.ETL.RunOnStart {
		log.Info("run_on_start enabled, executing etl now")
		sched.RunAsync(model.TriggerStartup)
	}

	log.Info("EquityPulse ETL is running", zap.String("cron", cfg.ETL.Cron))
	<-ctx.Done()
	log.Info("shutdown signal received, stopping")
	return nil
}

// openRecorder returns SQLite, optionally mirrored to ClickHouse.
func openRecorder(ctx context.Context, cfg *config.Config, log *zap.Logger) (recorder.Recorder, error) {
	if cfg.Database.SQLitePath == "" {
		log.Warn("no sqlite path configured, using noop recorder")
		return recorder.NewNoopRecorder(), nil
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, cfg.Replace(), log)
	if err != nil {
		return nil, fmt.Errorf("init sqlite recorder: %w", err)
	}
	if cfg.ClickHouse.Addr == "" {
		return sr, nil
	}

	openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	ch, err := recorder.NewClickHouseRecorder(openCtx, recorder.ClickHouseConfig{
		Addr:     cfg.ClickHouse.Addr,
		Database: cfg.ClickHouse.Database,
		Username: cfg.ClickHouse.Username,
		Password: cfg.ClickHouse.Password,
	}, log)
	if err != nil {
		log.Warn("clickhouse mirror unavailable, continuing with sqlite only", zap.Error(err))
		return sr, nil
	}
	return recorder.NewMultiRecorder(sr, ch), nil
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	log.Info("metrics listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("metrics server", zap.Error(err))
	}
}
