package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"med-reminder/internal/adapters/notifier"
	badgerstore "med-reminder/internal/adapters/storage/badger"
	mem "med-reminder/internal/adapters/storage/memory"
	"med-reminder/internal/adapters/storage/postgres"
	"med-reminder/internal/adapters/storage/sqlite"
	"med-reminder/internal/domain/medications"
	"med-reminder/internal/domain/reminders"
	"med-reminder/internal/platform/config"
	"med-reminder/internal/platform/logger"
	"med-reminder/internal/router"
)

// @title med-reminder API
// @version 1.0
// @description Recordatorios de medicación con alarma única y repetida hasta confirmar.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewFromEnv().Error("config error", map[string]any{"error": err})
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("storage error", map[string]any{"driver": string(cfg.StorageDriver()), "error": err})
		os.Exit(1)
	}
	defer closeStore()

	webhook, err := notifier.NewWebhook(notifier.WebhookConfig{
		URL:     cfg.Notify.WebhookURL,
		Timeout: cfg.Notify.WebhookTimeout,
		Token:   cfg.Notify.WebhookToken,
	})
	if err != nil {
		log.Error("notifier error", map[string]any{"error": err})
		os.Exit(1)
	}
	fanout := notifier.NewFanout(log).
		Add("overlay", notifier.NewOverlay()).
		Add("webhook", webhook).
		Add("log", notifier.NewLogChannel(log))

	engine := reminders.NewEngine(reminders.Deps{
		Store:    store,
		Notifier: fanout,
		Logger:   log,
	}, reminders.EngineConfig{
		Title:          cfg.Notify.Title,
		RepeatInterval: cfg.Scheduler.RepeatInterval,
		RecheckDelay:   cfg.Scheduler.RecheckDelay,
	})
	drv := reminders.NewDriver(engine, reminders.DriverConfig{TickInterval: cfg.Scheduler.TickInterval})
	go func() {
		if err := drv.Run(ctx); err != nil {
			log.Error("scheduler error", map[string]any{"error": err})
		}
	}()

	r := router.NewRouter(router.Options{
		Store:                  store,
		Driver:                 drv,
		Logger:                 log,
		APIToken:               cfg.APIToken,
		DefaultPostponeMinutes: cfg.Scheduler.DefaultPostponeMinutes,
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("starting server", map[string]any{"addr": cfg.Addr, "storage": string(cfg.StorageDriver())})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", map[string]any{"error": err})
		stop()
	}

	// Esperar a que el scheduler persista lo pendiente antes de cerrar el store.
	<-drv.Done()
	log.Info("server stopped", nil)
}

func openStore(ctx context.Context, cfg config.Config, log *logger.StdLogger) (medications.Repository, func(), error) {
	switch cfg.StorageDriver() {
	case config.DriverBadger:
		bcfg := badgerstore.DefaultConfig(cfg.Storage.BadgerPath)
		bcfg.Logger = log.Slog()
		db, err := badgerstore.Open(bcfg)
		if err != nil {
			return nil, nil, err
		}
		return badgerstore.NewMedicationsRepo(db), func() { _ = db.Close() }, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewMedicationsRepo(db), func() { _ = db.Close() }, nil

	case config.DriverPostgres:
		db, err := postgres.Open(cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return postgres.NewMedicationsRepo(db), func() { _ = db.Close() }, nil

	default:
		log.Warn("using in-memory storage; data is lost on restart", nil)
		return mem.NewMedicationRepo(), func() {}, nil
	}
}
