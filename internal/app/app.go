package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/detailcal/internal/bg"
	"github.com/MrSnakeDoc/detailcal/internal/bookings"
	"github.com/MrSnakeDoc/detailcal/internal/calendar"
	"github.com/MrSnakeDoc/detailcal/internal/catalog"
	"github.com/MrSnakeDoc/detailcal/internal/config"
	"github.com/MrSnakeDoc/detailcal/internal/customers"
	"github.com/MrSnakeDoc/detailcal/internal/domain"
	"github.com/MrSnakeDoc/detailcal/internal/form"
	"github.com/MrSnakeDoc/detailcal/internal/httpserver"
	"github.com/MrSnakeDoc/detailcal/internal/httpserver/deps"
	"github.com/MrSnakeDoc/detailcal/internal/logger"
	"github.com/MrSnakeDoc/detailcal/internal/notify"
	"github.com/MrSnakeDoc/detailcal/internal/outbox"
	"github.com/MrSnakeDoc/detailcal/internal/realtime"
	"github.com/MrSnakeDoc/detailcal/internal/redis"
	"github.com/MrSnakeDoc/detailcal/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/detailcal/internal/store/redis"
	"github.com/MrSnakeDoc/detailcal/internal/utils"
	"github.com/MrSnakeDoc/detailcal/internal/version"
)

const dbConnectTimeout = 15 * time.Second

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	pgPool      *pgxpool.Pool
	writes      *bg.Tracked
	customers   *customers.Directory

	catalogReloader *scheduler.CatalogReloader
	refresher       *scheduler.BookingRefresher
	reminders       *scheduler.ReminderScanner
	listener        *realtime.Listener
	worker          *outbox.Worker
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	redisClient, err := redis.New(context.Background(), redis.OptionsFromConfig(cfg), loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	store := redisstore.NewStore(redisClient)

	feed := notify.NewFeed(cfg.NotificationLimit, loggerClient.With(logger.Component("notify")))

	// Customers: postgres when configured, the Redis cache otherwise
	var (
		pool   *pgxpool.Pool
		source customers.Source
	)
	if cfg.DatabaseURL != "" {
		pool, source = connectCustomers(cfg, loggerClient)
	} else {
		loggerClient.Info("database not configured, customer directory runs on its cache")
	}
	directory := customers.NewDirectory(source, store, loggerClient.With(logger.Component("customers")))

	cat := catalog.New()
	catalogTrigger := make(chan struct{}, 1)
	catalogReloader := scheduler.NewCatalogReloader(
		cfg.CatalogFile,
		cat,
		loggerClient,
		cfg.CatalogReloadInterval,
		catalogTrigger,
	)

	writes := &bg.Tracked{}
	bookingStore := bookings.New(store, writes, feed, loggerClient.With(logger.Component("bookings")), bookings.Options{
		RemoteTimeout:     cfg.RemoteTimeout,
		RollbackOnFailure: cfg.RollbackOnFailure,
	})

	reloadTrigger := make(chan struct{}, 1)
	refresher := scheduler.NewBookingRefresher(bookingStore, loggerClient, cfg.RefreshInterval, reloadTrigger)

	mode, err := realtime.ParseMode(cfg.RealtimeMode)
	if err != nil {
		loggerClient.Errorf("Invalid realtime mode: %v", err)
		os.Exit(1)
	}
	listener := realtime.NewListener(
		redisstore.NewChangeFeed(redisClient, loggerClient),
		bookingStore,
		feed,
		loggerClient.With(logger.Component("realtime")),
		mode,
	)

	// Side effects go through the outbox so a failing collaborator never fails a save
	dispatcher := outbox.NewDispatcher()
	dispatcher.Handle(domain.EffectPushAlert, outbox.AlertHandler(store))
	dispatcher.Handle(domain.EffectArchiveEvidence, outbox.EvidenceHandler(store))
	dispatcher.Handle(domain.EffectCustomerSync, outbox.CustomerSyncHandler(directory))
	worker := outbox.NewWorker(store, dispatcher, loggerClient.With(logger.Component("outbox")), outbox.Options{
		Interval:    cfg.OutboxInterval,
		BaseBackoff: cfg.OutboxBaseBackoff,
		MaxBackoff:  cfg.OutboxMaxBackoff,
		MaxAttempts: cfg.OutboxMaxAttempts,
		BatchSize:   cfg.OutboxBatchSize,
	})
	emitter := outbox.NewEmitter(store)

	forms := form.NewController(bookingStore, cat, emitter, feed, loggerClient.With(logger.Component("form")), cfg.Location)

	reminders := scheduler.NewReminderScanner(bookingStore, store, emitter, loggerClient, cfg.Location, cfg.ReminderInterval)

	calendarOpts := calendar.DefaultOptions(cfg.Location)
	calendarOpts.TimelineStartHour = cfg.TimelineStartHour
	calendarOpts.ShowArchived = cfg.ShowArchived

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:               loggerClient,
		StartTime:            time.Now(),
		Build:                version.Get(),
		TimeNow:              time.Now,
		AllowedHosts:         cfg.AllowedHosts,
		AllowedCIDRS:         cfg.AllowedCIDRS,
		TrustProxy:           cfg.TrustProxy,
		RedisClient:          redisClient,
		Bookings:             bookingStore,
		Catalog:              cat,
		Customers:            directory,
		Notifications:        feed,
		Forms:                forms,
		Outbox:               store,
		Calendar:             calendarOpts,
		ReloadTrigger:        reloadTrigger,
		CatalogReloadTrigger: catalogTrigger,
		JWTSecret:            cfg.JWTSecret,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:             cfg,
		logger:          loggerClient,
		server:          server,
		redisClient:     redisClient,
		pgPool:          pool,
		writes:          writes,
		customers:       directory,
		catalogReloader: catalogReloader,
		refresher:       refresher,
		reminders:       reminders,
		listener:        listener,
		worker:          worker,
	}
}

// connectCustomers opens the postgres pool and prepares the customers table.
// Failures are logged and the directory falls back to its cache.
func connectCustomers(cfg *config.Config, log logger.Logger) (*pgxpool.Pool, customers.Source) {
	ctx, cancel := context.WithTimeout(context.Background(), dbConnectTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Warn("failed to open customer database, using cache only", logger.Error(err))
		return nil, nil
	}
	if err := pool.Ping(ctx); err != nil {
		log.Warn("customer database unreachable, using cache only", logger.Error(err))
		pool.Close()
		return nil, nil
	}

	repo := customers.NewRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Warn("failed to prepare customers table, using cache only", logger.Error(err))
		pool.Close()
		return nil, nil
	}
	log.Info("customer database connected")
	return pool, repo
}

func (a *App) Run() error {
	build := version.Get()
	a.logger.Infof("🚀 Starting detailcal %s on %s", build.Version, a.cfg.ListenPort)
	a.logger.Info("build info",
		logger.String("commit", build.Commit),
		logger.String("built", build.BuildDate),
		logger.String("go", build.GoVersion),
		logger.String("timezone", a.cfg.Location.String()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Catalog first: without services no booking can be canonicalized
	if err := a.catalogReloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start catalog reloader: %w", err)
	}
	a.logger.Info("catalog reloader started",
		logger.Duration("interval", a.cfg.CatalogReloadInterval))

	a.customers.Warm(ctx)

	if err := a.refresher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start booking refresher: %w", err)
	}

	if err := a.listener.Start(ctx); err != nil {
		a.logger.Warn("realtime listener unavailable, relying on manual refresh", logger.Error(err))
	}

	if err := a.worker.Start(ctx); err != nil {
		return fmt.Errorf("failed to start outbox worker: %w", err)
	}
	a.logger.Info("outbox worker started",
		logger.Duration("interval", a.cfg.OutboxInterval))

	if err := a.reminders.Start(ctx); err != nil {
		return fmt.Errorf("failed to start reminder scanner: %w", err)
	}
	a.logger.Info("reminder scanner started",
		logger.Duration("interval", a.cfg.ReminderInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.catalogReloader.Stop()
	a.refresher.Stop()
	a.reminders.Stop()
	a.listener.Stop()
	a.worker.Stop()

	// Let in-flight remote writes land before closing Redis
	if err := a.writes.Wait(shutdownCtx); err != nil {
		a.logger.Warn("pending booking writes abandoned", logger.Error(err))
	}

	if a.pgPool != nil {
		a.pgPool.Close()
	}
	if a.redisClient != nil {
		utils.MustClose(a.redisClient, "redis", a.logger)
	}

	a.logger.Info("✅ detailcal stopped cleanly")
	return nil
}
