package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/flowcraft-dev/flowcraft/internal/domain/repositories"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/config"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/crypto"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/database"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/logger"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/oauth"
	"github.com/flowcraft-dev/flowcraft/internal/worker"
	"github.com/flowcraft-dev/flowcraft/internal/worker/core"
	"github.com/flowcraft-dev/flowcraft/internal/worker/nodes"
	"github.com/flowcraft-dev/flowcraft/internal/worker/progress"
	"github.com/flowcraft-dev/flowcraft/internal/worker/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Init(cfg.App.Environment, cfg.App.Debug)

	log.Info().
		Str("app", cfg.App.Name).
		Str("service", "worker").
		Msg("starting worker service")

	db, err := database.NewGormDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	store := repositories.NewGormStore(db)

	encryptor, err := crypto.NewEncryptor(cfg.Crypto.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create encryptor")
	}

	registry := core.NewRegistry()
	registry.Register(&nodes.WebhookNode{})
	registry.Register(&nodes.HTTPRequestNode{})
	registry.Register(nodes.NewCodeNode())
	registry.Register(&nodes.AIChatNode{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
	})
	registry.Register(&nodes.DatabaseNode{})
	registry.Register(&nodes.EmailNode{
		Encryptor: encryptor,
		Gmail:     oauth.NewGmailClient(),
		SMTPHost:  cfg.SMTP.Host,
		SMTPPort:  strconv.Itoa(cfg.SMTP.Port),
		SMTPUser:  cfg.SMTP.Username,
		SMTPPass:  cfg.SMTP.Password,
		SMTPFrom:  cfg.SMTP.From,
	})
	registry.Register(&nodes.ConditionNode{})
	registry.Register(&nodes.SwitchNode{})
	registry.Register(&nodes.CryptoNode{})

	bus := progress.NewBus()

	sched := scheduler.New(store, bus, registry)
	sched.NodeTimeout = cfg.Worker.NodeTimeout

	w := worker.New(cfg, sched, store)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("shutting down worker...")
		w.Shutdown()
	}()

	if err := w.Start(); err != nil {
		log.Fatal().Err(err).Msg("worker error")
	}
}
