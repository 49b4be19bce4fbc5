package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gallery-be/internal/analytics"
	"gallery-be/internal/assets"
	"gallery-be/internal/auth"
	"gallery-be/internal/config"
	"gallery-be/internal/container"
	"gallery-be/internal/datalayer"
	"gallery-be/internal/db"
	"gallery-be/internal/httpapi"
	"gallery-be/internal/logger"
	"gallery-be/internal/metrics"
	"gallery-be/internal/middleware"
	"gallery-be/internal/screen"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type app struct {
	handler    http.Handler
	sessions   *screen.Manager
	limiter    *middleware.RateLimiter
	store      container.Store
	dispatcher *analytics.Dispatcher
}

// newApp wires the gallery. database may be nil, in which case analytics
// hits are only logged.
func newApp(cfg *config.Config, database *sql.DB) (*app, error) {
	reg := metrics.NewRegistry()

	var store container.Store = container.NewMemStore()
	if cfg.CacheDir != "" {
		bs, err := container.NewBadgerStore(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		store = bs
	}

	var remote container.Provider
	if cfg.ContainerURL != "" {
		remote = container.NewHTTPProvider(cfg.ContainerID, cfg.ContainerURL)
	}
	fallback := container.NewFileProvider(cfg.ContainerID, cfg.ContainerDefaultPath)

	macros := datalayer.NewRegistry()
	datalayer.RegisterDefaults(macros)
	client := container.NewClient(cfg.ContainerID, remote, fallback, store,
		container.WithMetrics(reg),
		container.WithOnAvailable(func(ctx context.Context, cont *container.Container) {
			datalayer.RegisterDefaults(macros)
			logger.FromCtx(ctx).Debug("container functions registered", zap.String("version", cont.Version))
		}),
	)

	sinks := analytics.Fanout{analytics.NewLogSink()}
	var dispatcher *analytics.Dispatcher
	if database != nil {
		dispatcher = analytics.NewDispatcher(
			analytics.NewRepository(database),
			cfg.AnalyticsQueueSize,
			analytics.WithMetrics(reg),
			analytics.WithClientKey([]byte(cfg.SecretKey)),
		)
		sinks = append(sinks, dispatcher)
	}

	resolver := assets.NewDirResolver(cfg.AssetsDir)
	sessions := screen.NewManager(func() *screen.Controller {
		return screen.NewController(screen.Deps{
			Fetcher:   client,
			Resolver:  resolver,
			Sink:      sinks,
			DataLayer: datalayer.New(macros, sinks),
			Timeout:   cfg.ContainerTimeout,
		})
	}, cfg.SessionTTL)

	issuer := auth.NewIssuer(cfg.SecretKey, cfg.SessionTTL)
	limiter := middleware.NewRateLimiter()
	h := httpapi.NewHandler(sessions, issuer, macros, client, reg)

	return &app{
		handler: httpapi.NewRouter(h, httpapi.RouterConfig{
			Issuer:        issuer,
			Limiter:       limiter,
			AllowedOrigin: cfg.AllowedOrigin,
		}),
		sessions:   sessions,
		limiter:    limiter,
		store:      store,
		dispatcher: dispatcher,
	}, nil
}

// Close drains pending analytics hits and releases the container store.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.dispatcher != nil {
		errs = append(errs, a.dispatcher.Close(ctx))
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	var database *sql.DB
	if cfg.AnalyticsStoreEnabled() {
		var err error
		database, err = db.NewDatabase(cfg)
		if err != nil {
			log.Fatal(err)
		}
		defer database.Close()
	}

	a, err := newApp(cfg, database)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.sessions.Run(ctx)
	go a.limiter.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.ContainerTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info("gallery server listening",
			zap.String("port", cfg.AppPort),
			zap.String("container_id", cfg.ContainerID),
			zap.Bool("analytics_store", database != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.L().Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L().Error("server shutdown failed", zap.Error(err))
	}
	if err := a.Close(shutdownCtx); err != nil {
		logger.L().Error("releasing resources failed", zap.Error(err))
	}
}
