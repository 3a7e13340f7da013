package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/seoulhigh/internal/api"
	"github.com/rickgao/seoulhigh/internal/config"
	"github.com/rickgao/seoulhigh/internal/database"
	"github.com/rickgao/seoulhigh/internal/logging"
	"github.com/rickgao/seoulhigh/internal/metrics"
	"github.com/rickgao/seoulhigh/internal/poller"
	"github.com/rickgao/seoulhigh/internal/polymarket"
	"github.com/rickgao/seoulhigh/internal/server"
	"github.com/rickgao/seoulhigh/internal/service"
	"github.com/rickgao/seoulhigh/internal/state"
	"github.com/rickgao/seoulhigh/internal/store"
	"github.com/rickgao/seoulhigh/internal/version"
	"github.com/rickgao/seoulhigh/internal/weather"
)

func main() {
	configPath := flag.String("config", "configs/seoulhigh.yaml", "path to config file")
	ingest := flag.Bool("ingest", false, "run the ingestion pollers (overrides ingestion.enabled)")
	migrateOnly := flag.Bool("migrate", false, "apply database migrations and exit")
	flag.Parse()

	// Missing .env is fine; the config may reference real environment variables.
	_ = godotenv.Load()

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "ingest" {
			cfg.Ingestion.Enabled = *ingest
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	logger.Info("starting seoulhigh",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *migrateOnly, logger); err != nil {
		logger.Error("seoulhigh failed", "error", err)
		closer.Close()
		os.Exit(1)
	}
	logger.Info("seoulhigh stopped")
}

func run(ctx context.Context, cfg *config.Config, migrateOnly bool, logger *slog.Logger) error {
	var (
		reader store.Reader
		pg     *store.Postgres
		opts   []server.Option
	)
	if cfg.Database.Enabled() {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		pg = store.NewPostgres(pool, logger)
		reader = pg
		opts = append(opts, server.WithPinger(pool))
	} else {
		logger.Warn("no database configured; history endpoints will return 503")
	}
	if migrateOnly {
		if pg == nil {
			return errors.New("-migrate requires database.host")
		}
		return nil
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}
	st := state.New()

	svc := service.New(service.Config{
		Station:    cfg.Weather.Station,
		SlugPrefix: cfg.Polymarket.SlugPrefix,
	}, reader, st, logger)
	srv := server.New(cfg.Server, cfg.Metrics, svc, m, logger, opts...)

	var pollers []*poller.Poller
	if cfg.Ingestion.Enabled {
		pollers = newPollers(cfg, pg, st, m, logger)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})

	for _, p := range pollers {
		if err := p.Start(gctx); err != nil {
			return fmt.Errorf("start poller: %w", err)
		}
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		var errs []error
		for _, p := range pollers {
			errs = append(errs, p.Stop(shutdownCtx))
		}
		return errors.Join(errs...)
	})

	logger.Info("seoulhigh running",
		"addr", cfg.Server.Addr,
		"ingestion", cfg.Ingestion.Enabled,
		"store", reader != nil,
	)
	return g.Wait()
}

// newPollers wires the market, weather, forecast and Weather Underground jobs
// to their sources.
func newPollers(cfg *config.Config, pg *store.Postgres, st *state.Cache, m *metrics.Metrics, logger *slog.Logger) []*poller.Poller {
	pm := cfg.Polymarket
	clientOpts := func(timeout time.Duration, retries int) []api.ClientOption {
		return []api.ClientOption{
			api.WithLogger(logger),
			api.WithTimeout(timeout),
			api.WithRetries(retries, time.Second),
			api.WithUserAgent("seoulhigh/" + version.Version),
		}
	}

	marketOpts := append(clientOpts(pm.Timeout, pm.MaxRetries), api.WithRateLimit(pm.RateLimit, pm.RateBurst))
	markets := polymarket.NewClient(
		api.NewClient(pm.GammaURL, marketOpts...),
		api.NewClient(pm.ClobURL, marketOpts...),
	)

	wc := cfg.Weather
	weatherOpts := clientOpts(wc.Timeout, wc.MaxRetries)
	wx := weather.NewClient(
		api.NewClient(wc.AWCURL, weatherOpts...),
		api.NewClient(wc.OpenMeteoURL, weatherOpts...),
	)

	// History pages are served only to browser-like clients.
	wuOpts := append(clientOpts(wc.Timeout, wc.MaxRetries),
		api.WithUserAgent(wc.WundergroundUserAgent),
		api.WithAccept("text/html,application/xhtml+xml"),
	)
	wu := weather.NewWunderground(api.NewClient(strings.TrimRight(wc.WundergroundURL, "/"), wuOpts...), wc.WundergroundLocation)

	ing := cfg.Ingestion
	marketJob := poller.NewMarketJob(poller.MarketConfig{
		SlugPrefix:   pm.SlugPrefix,
		EventRefresh: ing.EventRefresh,
		Concurrency:  ing.BookConcurrency,
	}, markets, pg, st, m, logger)
	weatherJob := poller.NewWeatherJob(wc.Station, wx, pg, st, logger)
	forecastJob := poller.NewForecastJob(wc.Station, weather.ForecastRequest{
		Latitude:  wc.Latitude,
		Longitude: wc.Longitude,
		Models:    wc.Models,
		Days:      wc.ForecastDays,
	}, wx, pg, st, logger)
	wuJob := poller.NewWundergroundJob(wc.Station, wu, pg, st, logger)

	return []*poller.Poller{
		poller.New(poller.Config{Interval: ing.MarketInterval}, marketJob, st, m, logger),
		poller.New(poller.Config{Interval: ing.WeatherInterval}, weatherJob, st, m, logger),
		poller.New(poller.Config{Interval: ing.ForecastInterval}, forecastJob, st, m, logger),
		poller.New(poller.Config{Interval: ing.WUInterval}, wuJob, st, m, logger),
	}
}
