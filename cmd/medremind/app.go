package main

import (
	"context"
	"fmt"
	"log"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/jonboulle/clockwork"

	"medremind-backend/config"
	"medremind-backend/internal/adherence"
	"medremind-backend/internal/command"
	"medremind-backend/internal/db"
	"medremind-backend/internal/notification"
	"medremind-backend/internal/reminder"
	"medremind-backend/internal/store"
)

// app is the wired core shared by the serve and message commands.
type app struct {
	cfg         *config.Config
	store       store.Store
	scheduler   *reminder.Scheduler
	reporter    *adherence.Service
	interpreter *command.Interpreter
	webpush     *webpush.Options
	pool        *notification.WorkerPool
}

func loadApp(logger *log.Logger, configFlag string) (*app, error) {
	configPath := resolveConfigPath(configFlag)
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Println("database initialized successfully")

	clock := clockwork.NewRealClock()
	a := &app{
		cfg:   cfg,
		store: store.NewGormStore(gormDB, clock),
	}

	var sender notification.Sender
	if cfg.Messaging.HasCredentials() {
		sender = notification.NewTwilioSender(cfg.Messaging.AccountSID, cfg.Messaging.AuthToken, cfg.Messaging.From, cfg.Messaging.ChannelPrefix, cfg.Messaging.SendTimeout)
		logger.Printf("outbound messages go through the gateway as %s", cfg.Messaging.From)
	} else {
		sender = &notification.LogSender{Logger: logger}
		logger.Println("messaging credentials missing; outbound messages are only logged")
	}

	if cfg.Push.Enabled() {
		a.webpush = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		a.pool = notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, a.webpush)
		sender = notification.NewMirrorSender(sender, a.pool)
		logger.Println("browser push mirroring enabled")
	}

	a.scheduler = reminder.NewScheduler(clock, sender, a.store, reminder.WithSendTimeout(cfg.Messaging.SendTimeout))
	a.reporter = adherence.NewService(a.store, clock)
	a.interpreter = command.NewInterpreter(a.scheduler, a.store, a.reporter, sender, cfg.Messaging.Caregiver)
	return a, nil
}

// startWorkers launches the push mirror workers when push is enabled.
func (a *app) startWorkers(ctx context.Context) {
	if a.pool != nil {
		a.pool.Start(ctx)
	}
}

func (a *app) close() {
	a.scheduler.Stop()
	if sqlDB, err := a.store.DB().DB(); err == nil {
		sqlDB.Close()
	}
}
