package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"postline/internal/config"
	"postline/internal/database"
	"postline/internal/delivery"
	"postline/internal/email"
	"postline/internal/locales"
	"postline/internal/logging"
	"postline/internal/platform"
	"postline/internal/report"
	"postline/internal/scheduler"
	"syscall"
	"time"

	sentry "github.com/getsentry/sentry-go"
	telego "github.com/mymmrac/telego"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize localization bundle
	locales.Init(cfg.DefaultLanguage)
	localizer := locales.NewDefaultLocalizer()

	// Initialize the worker logger. It tees to the daily log file the
	// report job scans.
	logger, closeLog, err := logging.NewLogger(cfg.LogLevel, cfg.LogPath)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if err := closeLog(); err != nil {
			log.Printf("Error closing log file: %v", err)
		}
	}()

	// Initialize Sentry (if DSN is provided)
	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		Release:          cfg.Version,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Flush(2 * time.Second)

	// Connect to MongoDB
	client, db, err := database.ConnectDB(cfg)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}
	defer func() {
		if err = client.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
			sentry.CaptureException(err)
		} else {
			log.Println("Disconnected from MongoDB.")
		}
	}()

	// Create repository instances
	postRepo := database.NewMongoPostRepository(db)
	channelRepo := database.NewMongoChannelRepository(db)

	// Creating context for application lifecycle
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create the raw telego bot instance
	var bot *telego.Bot
	if cfg.Debug {
		bot, err = telego.NewBot(cfg.TelegramBotToken, telego.WithDefaultDebugLogger())
	} else {
		bot, err = telego.NewBot(cfg.TelegramBotToken, telego.WithDefaultLogger(false, false))
	}
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create telego bot: %v", err)
	}
	if me, err := bot.GetMe(ctx); err != nil {
		log.Printf("Warning: could not fetch bot identity: %v", err)
	} else {
		logging.WithSource(logger, "worker").Infof("Delivery bot connected as @%s", me.Username)
	}

	// Platform registry: Telegram is live, Bale is a stub pending integration.
	probeText := locales.GetMessage(localizer, "VerifyProbeMessage", nil)
	telegram, err := platform.NewTelegram(bot, cfg.PlatformTimeout, cfg.SendRate, probeText, logging.WithSource(logger, "platform.telegram"))
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}
	registry := platform.NewRegistry(telegram, platform.NewBale(cfg.BaleBotToken))

	// Post delivery task
	task, err := delivery.NewTask(postRepo, registry, logging.WithSource(logger, "delivery.task"))
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}

	// Daily report job
	sender := email.NewSender(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
	})
	reportJob := report.NewJob(report.NewBuilder(cfg.LogPath), sender, cfg.ReportRecipients, localizer, logging.WithSource(logger, "report.job"))

	// Scheduler drives deliveries, channel verification and the daily report.
	sched, err := scheduler.New(scheduler.Deps{
		Posts:        postRepo,
		Channels:     channelRepo,
		Task:         task,
		Verifier:     registry,
		ReportJob:    reportJob,
		PollInterval: cfg.PollInterval,
		ReportAt:     cfg.ReportSendTime,
		Log:          logging.WithSource(logger, "scheduler"),
	})
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}

	// Blocks until SIGINT/SIGTERM, then drains in-flight deliveries.
	sched.Start(ctx)

	log.Println("Worker shutdown complete.")
}
