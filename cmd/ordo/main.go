package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/ordobot/ordo/internal/bot"
	"github.com/ordobot/ordo/internal/catalog"
	"github.com/ordobot/ordo/internal/config"
	"github.com/ordobot/ordo/internal/domain"
	"github.com/ordobot/ordo/internal/logging"
	"github.com/ordobot/ordo/internal/orders"
	"github.com/ordobot/ordo/internal/sched"
	"github.com/ordobot/ordo/internal/settings"
	"github.com/ordobot/ordo/internal/store"
	"github.com/ordobot/ordo/internal/users"
	"github.com/ordobot/ordo/internal/webhook"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to the config file (env vars are used when empty)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Read(configPath)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Debug)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		backend store.Backend
		mongo   *store.MongoBackend
	)
	if cfg.Database.Disabled {
		backend, err = store.NewFileBackend(cfg.DataDir, log)
		if err != nil {
			return err
		}
		log.Info("using file storage", "dir", cfg.DataDir)
	} else {
		mongo, err = store.NewMongoBackend(ctx, cfg.Database, log)
		if err != nil {
			return err
		}
		backend = mongo
		log.Info("using mongo storage", "address", cfg.Database.Address, "db", cfg.Database.DBName)
	}

	settingsSvc := settings.New(store.NewCollection[domain.Settings](backend, settings.CollectionName), log)
	catalogSvc := catalog.New(store.NewCollection[domain.Catalog](backend, catalog.CollectionName), log)
	ordersSvc := orders.New(store.NewCollection[[]domain.Order](backend, orders.CollectionName), log)
	adminsSvc := users.NewAdmins(store.NewCollection[[]domain.Admin](backend, users.AdminsCollectionName), cfg.Operators, log)

	registry, err := users.NewRegistry(ctx, store.NewCollection[[]domain.User](backend, users.CollectionName), log, log)
	if err != nil {
		return err
	}

	if err := settingsSvc.Seed(ctx); err != nil {
		return err
	}
	if err := catalogSvc.Seed(ctx); err != nil {
		return err
	}

	// The scheduler fires through the bot, which does not exist yet.
	var b *bot.Bot
	scheduler := sched.New(
		store.NewCollection[[]domain.Schedule](backend, sched.CollectionName),
		cfg.Scheduler.PollInterval,
		func(ctx context.Context, sc domain.Schedule) { b.FireSchedule(ctx, sc) },
		log,
	)

	svc := bot.Services{
		Settings:  settingsSvc,
		Catalog:   catalogSvc,
		Registry:  registry,
		Admins:    adminsSvc,
		Orders:    ordersSvc,
		Intake:    orders.NewIntake(ordersSvc, registry, catalogSvc, cfg.AllowLinks),
		Scheduler: scheduler,
	}

	var (
		poller tele.Poller
		wh     *webhook.Poller
	)
	if cfg.Webhook.URL != "" {
		wh, err = webhook.NewPoller(cfg.Webhook, cfg.Token, log)
		if err != nil {
			return err
		}
		poller = wh
	}

	b, err = bot.New(ctx, cfg, svc, poller, log)
	if err != nil {
		return err
	}

	scheduler.Start(ctx)
	b.Start()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()

	b.Stop()
	if wh != nil {
		if err := wh.Shutdown(shutdownCtx); err != nil {
			log.Warn("webhook shutdown", "error", err)
		}
	}
	if err := registry.Shutdown(shutdownCtx); err != nil {
		log.Warn("registry shutdown", "error", err)
	}
	if mongo != nil {
		if err := mongo.Disconnect(shutdownCtx); err != nil {
			log.Warn("mongo disconnect", "error", err)
		}
	}

	log.Info("bye")
	return nil
}
