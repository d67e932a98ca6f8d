package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/suspectuso/mc-currency/internal/config"
	"github.com/suspectuso/mc-currency/internal/delivery"
	"github.com/suspectuso/mc-currency/internal/lib/logger"
	"github.com/suspectuso/mc-currency/internal/marketplace"
	"github.com/suspectuso/mc-currency/internal/notify"
	"github.com/suspectuso/mc-currency/internal/orders"
	"github.com/suspectuso/mc-currency/internal/storage"
	"github.com/suspectuso/mc-currency/internal/telegram"
)

const (
	settingsFile = "minecraft_currency_config.json"
	ledgerFile   = "minecraft_currency_orders.json"
	pendingFile  = "pending_minecraft_orders.json"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	cfg := config.MustLoad()

	log := logger.SetupLogger(cfg.Env)
	slog.SetDefault(log)
	if envErr != nil {
		log.Debug("no .env file found")
	}

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	// Initialize storage
	settings := storage.NewSettingsStore(filepath.Join(cfg.DataDir, settingsFile), log)
	ledger := storage.NewLedger(filepath.Join(cfg.DataDir, ledgerFile), log)
	pending := storage.NewPendingTable(filepath.Join(cfg.DataDir, pendingFile), log)

	if err := os.MkdirAll(filepath.Dir(cfg.HistoryDBPath), 0o755); err != nil {
		return errors.Wrap(err, "create history dir")
	}
	journal, err := storage.OpenJournal(cfg.HistoryDBPath)
	if err != nil {
		return errors.Wrap(err, "open journal")
	}
	defer journal.Close()
	log.Info("storage initialized", "data_dir", cfg.DataDir, "history", cfg.HistoryDBPath)

	// Initialize marketplace client
	market := marketplace.NewClient(cfg.Marketplace.BaseURL, cfg.Marketplace.Token).
		WithMinDelay(cfg.Marketplace.MinDelay)
	log.Info("marketplace client initialized", "base_url", cfg.Marketplace.BaseURL)

	// Initialize delivery invoker; credentials follow settings edits
	invoker := delivery.New(delivery.Config{
		NodeBinary:   cfg.Delivery.NodeBinary,
		ScriptPath:   cfg.Delivery.ScriptPath,
		Timeout:      cfg.Delivery.Timeout,
		ProbeTimeout: cfg.Delivery.ProbeTimeout,
	}, func() delivery.Credentials {
		b := settings.Get().MinecraftBot
		return delivery.Credentials{
			BotUsername: b.BotUsername,
			Password:    b.Password,
			Server:      b.Server,
			Port:        b.Port,
			Anarchy:     b.Anarchy,
		}
	}, delivery.ExecRunner{}, log)

	dispatcher := notify.New(market, nil, settings, log)

	engine := orders.New(orders.Config{
		SelfID:     cfg.Marketplace.SelfID,
		BatchDelay: cfg.Delivery.BatchDelay,
		TestAmount: cfg.Delivery.TestAmount,
	}, orders.Deps{
		Pending:   pending,
		Ledger:    ledger,
		Settings:  settings,
		Notifier:  dispatcher,
		Deliverer: invoker,
		Fetcher:   market,
		Archive:   journal,
	}, log)
	log.Info("order engine initialized", "running", engine.Running(), "pending", len(engine.Pending()))

	// Initialize telegram bot
	bot, err := telegram.New(cfg, engine, settings, journal, log)
	if err != nil {
		return errors.Wrap(err, "init telegram bot")
	}
	dispatcher.SetAdmin(bot)
	if len(cfg.AdminIDs) == 0 {
		log.Warn("ADMIN_IDS is empty, admin commands are disabled")
	}
	log.Info("telegram bot initialized", "admins", len(cfg.AdminIDs))

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Events are applied one at a time
	queue := marketplace.NewQueue(engine, cfg.Webhook.QueueSize, log)
	go queue.Run(ctx)

	// Initialize webhook
	manager := marketplace.NewManager(market, cfg.Webhook.Endpoint, log)
	if err := manager.Init(ctx); err != nil {
		log.Error("init webhook", "error", err)
	} else if cfg.Webhook.Endpoint != "" {
		log.Info("webhook initialized", "endpoint", cfg.Webhook.Endpoint, "id", manager.WebhookID())
	}
	go manager.SyncLoop(ctx, cfg.Webhook.SyncInterval)

	// Start webhook server
	server := marketplace.NewServer(queue, journal, cfg.Webhook.Secret, log)
	go func() {
		if err := server.Start(ctx, cfg.Webhook.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("webhook server", "error", err)
		}
	}()

	// Start paid order poller; orders paid before startup are not replayed
	if cfg.Marketplace.PollInterval > 0 {
		poller := marketplace.NewPoller(market, journal, queue, log)
		go func() {
			if err := poller.Seed(ctx); err != nil {
				log.Warn("seed paid orders", "error", err)
			}
			poller.Start(ctx, cfg.Marketplace.PollInterval)
		}()
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info("shutting down...")
		cancel()
	}()

	// Start bot polling
	log.Info("starting bot polling...")
	bot.Start(ctx)

	log.Info("waiting for running deliveries")
	engine.Wait()
	return nil
}
