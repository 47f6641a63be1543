// Package main contains the entrypoint for the Pro-Tech repair assistant:
// the Telegram bot, the website JSON API and their background jobs.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbot "github.com/go-telegram/bot"

	"github.com/protech/repairbot/internal/assistant"
	"github.com/protech/repairbot/internal/bot"
	"github.com/protech/repairbot/internal/bot/handlers"
	"github.com/protech/repairbot/internal/bot/tasks"
	"github.com/protech/repairbot/internal/config"
	"github.com/protech/repairbot/internal/contact"
	"github.com/protech/repairbot/internal/database"
	"github.com/protech/repairbot/internal/emailjs"
	"github.com/protech/repairbot/internal/httpapi"
	"github.com/protech/repairbot/internal/logger"
	"github.com/protech/repairbot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components and returns an
// exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	responder := assistant.NewResponder(assistant.Business{
		Name:      cfg.Business.Name,
		ShortName: cfg.Business.ShortName,
		Phone:     cfg.Business.Phone,
		Email:     cfg.Business.Email,
	})

	mailer := emailjs.NewClient(emailjs.Config{
		BaseURL:    cfg.EmailJS.BaseURL,
		ServiceID:  cfg.EmailJS.ServiceID,
		TemplateID: cfg.EmailJS.TemplateID,
		PublicKey:  cfg.EmailJS.PublicKey,
		PrivateKey: cfg.EmailJS.PrivateKey,
		Timeout:    cfg.EmailJS.Timeout,
	}, log)
	if !mailer.Configured() {
		log.Warn("EmailJS is not configured, contact inquiries will stay pending")
	}

	contactSvc := contact.NewService(store, mailer, contact.Options{
		MaxAttempts:  cfg.Contact.MaxAttempts,
		Retention:    cfg.Contact.Retention,
		BatchSize:    cfg.Contact.BatchSize,
		ClaimTimeout: cfg.Contact.ClaimTimeout,
	}, log)

	var tg *tgbot.Bot
	if cfg.Telegram.Enabled {
		tg, err = setupTelegram(ctx, cfg, log, handlers.HandlerDeps{
			Logger:    log,
			Config:    cfg,
			Store:     store,
			Responder: responder,
			Contact:   contactSvc,
		})
		if err != nil {
			log.Error("Failed to set up Telegram bot", "error", err)
			return 1
		}
	}

	var api *httpapi.Server
	if cfg.HTTP.Enabled {
		api = httpapi.New(cfg.HTTP, store, responder, contactSvc, log)
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:  log,
		Store:   store,
		Contact: contactSvc,
		Config:  cfg,
	}))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, tg, api, sched)

	log.Info("Starting repair assistant...")
	if runErr := app.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Repair assistant stopped due to error", "error", runErr)
		return 1
	}

	log.Info("Repair assistant stopped gracefully.")
	return 0
}

func setupTelegram(ctx context.Context, cfg *config.Config, log *slog.Logger, deps handlers.HandlerDeps) (*tgbot.Bot, error) {
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log,
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewAssistantHandler(deps)),
	)
	if err != nil {
		return nil, err
	}

	me, err := tg.GetMe(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("Retrieved bot info", "bot_id", me.ID, "bot_username", me.Username)

	commands := handlers.RegisterAllCommands(deps)
	if err := telegram.RegisterHandlers(tg, log, commands); err != nil {
		return nil, err
	}
	if err := telegram.PublishCommands(ctx, tg, commands); err != nil {
		log.Warn("Failed to publish command menu", "error", err)
	}

	return tg, nil
}
