package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parkfan/occupancy-analytics/internal/analytics"
	"github.com/parkfan/occupancy-analytics/internal/api"
	"github.com/parkfan/occupancy-analytics/internal/cache"
	"github.com/parkfan/occupancy-analytics/internal/config"
	"github.com/parkfan/occupancy-analytics/internal/database"
	"github.com/parkfan/occupancy-analytics/internal/handler"
	"github.com/parkfan/occupancy-analytics/internal/metrics"
	"github.com/parkfan/occupancy-analytics/internal/middleware"
	"github.com/parkfan/occupancy-analytics/internal/publisher"
	"github.com/parkfan/occupancy-analytics/internal/repository"
	"github.com/parkfan/occupancy-analytics/internal/service"
	"golang.org/x/sync/errgroup"
)

// purger is implemented by both cache backends
type purger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

func main() {
	configPath := flag.String("config", "", "path to config.yml (default $CONFIG_PATH or ./config.yml)")
	issueToken := flag.String("issue-token", "", "print a write token for the given subject and exit")
	tokenTTL := flag.Duration("token-ttl", 30*24*time.Hour, "lifetime of tokens printed by -issue-token")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if *issueToken != "" {
		token, err := middleware.NewToken(cfg.Auth.JWTSecret, *issueToken, *tokenTTL)
		if err != nil {
			log.Fatal("Failed to sign token:", err)
		}
		fmt.Println(token)
		return
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	db, err := database.OpenAndMigrate(database.Config{Path: cfg.Database.Path})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	m := metrics.New(nil)
	store, err := newCache(cfg.Cache.Backend, db, m)
	if err != nil {
		return err
	}

	settings, err := analytics.SettingsFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid analytics settings: %w", err)
	}

	samples := repository.NewSampleRepository(db, cfg.Location())
	parks := repository.NewParkRepository(db)
	engine := analytics.NewEngine(analytics.Deps{
		Store:   samples,
		Cache:   store,
		Logger:  logger,
		Metrics: m,
		Zones:   parks,
	}, settings)

	analyticsService := service.NewAnalyticsService(engine, parks)
	handlers := api.Handlers{
		Occupancy: handler.NewOccupancyHandler(analyticsService),
		Baseline:  handler.NewBaselineHandler(analyticsService),
		Crowd:     handler.NewCrowdHandler(analyticsService),
		Sample:    handler.NewSampleHandler(service.NewSampleService(samples)),
		Park:      handler.NewParkHandler(service.NewParkService(parks)),
	}

	var limiter *middleware.RateLimiter
	if cfg.Server.RateLimit > 0 && cfg.Server.RateWindow > 0 {
		limiter = middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateWindow)
	}

	// 初始化路由
	router := api.SetupRouter(cfg, handlers, api.Options{Metrics: m, Limiter: limiter, Logger: logger})
	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var pub *publisher.FeaturePublisher
	if cfg.Kafka.Enabled {
		pubCfg := publisher.Config{
			Brokers:  cfg.Kafka.Brokers,
			Topic:    cfg.Kafka.Topic,
			Interval: cfg.Kafka.PublishInterval,
		}
		writer, err := publisher.NewKafkaWriter(pubCfg)
		if err != nil {
			return fmt.Errorf("failed to create kafka writer: %w", err)
		}
		pub = publisher.NewFeaturePublisher(pubCfg, writer, parks, analyticsService, m, logger)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", "addr", cfg.Server.Port, "cache", cfg.Cache.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if limiter != nil {
		g.Go(func() error {
			limiter.Run(ctx)
			return nil
		})
	}

	if p, ok := store.(purger); ok && cfg.Cache.PurgeInterval > 0 {
		g.Go(func() error {
			purgeLoop(ctx, p, cfg.Cache.PurgeInterval, logger)
			return nil
		})
	}

	if pub != nil {
		g.Go(func() error {
			pub.Run(ctx)
			return nil
		})
	}

	return g.Wait()
}

func newCache(backend string, db *sql.DB, m *metrics.Metrics) (cache.Cache, error) {
	switch backend {
	case "", "memory":
		return cache.NewMemory(m), nil
	case "sqlite":
		return cache.NewSQLite(db, m), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

func purgeLoop(ctx context.Context, p purger, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.DeleteExpired(ctx)
			if err != nil {
				logger.Warn("cache purge failed", "component", "cache", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("cache purged", "component", "cache", "removed", n)
			}
		}
	}
}
