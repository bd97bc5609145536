package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/Nursery/internal/adapters/analyzer"
	router "github.com/dkeye/Nursery/internal/adapters/http"
	"github.com/dkeye/Nursery/internal/adapters/report"
	"github.com/dkeye/Nursery/internal/adapters/rtc"
	sigadapter "github.com/dkeye/Nursery/internal/adapters/signal"
	"github.com/dkeye/Nursery/internal/app"
	"github.com/dkeye/Nursery/internal/app/orch"
	"github.com/dkeye/Nursery/internal/config"
	"github.com/dkeye/Nursery/internal/core"
	"github.com/dkeye/Nursery/internal/metrics"
	"github.com/dkeye/Nursery/internal/video"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "release" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("Server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	classifier := analyzer.New(analyzer.Config{
		URL:           cfg.Analyzer.URL,
		MaxConcurrent: cfg.Analyzer.MaxConcurrent,
		Timeout:       cfg.Detection.AnalyzerTimeout,
	}, nil)
	if err := prewarm(ctx, classifier, cfg.Analyzer.Prewarm); err != nil {
		return err
	}

	var reporter core.Reporter = report.LogReporter{}
	if cfg.Reporter.URL != "" {
		reporter = report.New(cfg.Reporter.URL, cfg.Reporter.Timeout, nil)
	}

	dispatcher := app.NewDispatcher(classifier, video.DiffAnalyzer{}, reporter, app.DispatcherConfig{
		MotionThreshold: cfg.Detection.MotionThreshold,
		AnalyzerTimeout: cfg.Detection.AnalyzerTimeout,
		ReportTimeout:   cfg.Reporter.Timeout,
	}, m)

	o := orch.New(ctx, app.RoomDeps{
		Session: app.SessionConfig{
			WindowSeconds: cfg.Detection.WindowSeconds,
			SampleEvery:   cfg.Detection.SampleEvery,
		},
		Policy:      app.PrefixPolicy{Prefix: cfg.Detection.IdentityPrefix},
		Dispatcher:  dispatcher,
		Metrics:     m,
		IdleTimeout: cfg.Session.IdleTimeout,
	})

	api, err := rtc.NewAPI()
	if err != nil {
		return fmt.Errorf("webrtc api: %w", err)
	}
	ctrl := sigadapter.NewSignalWSController(o, api, sigadapter.Options{
		RTC:        rtc.Config{STUNURLs: cfg.RTC.STUNURLs, PLIInterval: cfg.RTC.PLIInterval},
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router.SetupRouter(ctx, cfg, o, ctrl, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Nursery agent started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		o.Shutdown()
		return nil
	})
	return g.Wait()
}

// prewarm probes the classifier once before the accept path goes live.
func prewarm(ctx context.Context, p core.Prewarmer, required bool) error {
	pctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := p.Prewarm(pctx); err != nil {
		if required {
			return fmt.Errorf("prewarm classifier: %w", err)
		}
		log.Warn().Err(err).Msg("classifier not ready, windows will fail until it is")
	}
	return nil
}
