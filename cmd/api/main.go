package main

import (
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/flowcraft-dev/flowcraft/internal/api"
	"github.com/flowcraft-dev/flowcraft/internal/domain/repositories"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/config"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/crypto"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/database"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/logger"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/oauth"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/queue"
	"github.com/flowcraft-dev/flowcraft/internal/worker/progress"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Init(cfg.App.Environment, cfg.App.Debug)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Msg("starting API server")

	db, err := database.NewGormDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	queueClient := queue.NewClient(&cfg.Redis)
	store := repositories.NewGormStore(db)

	jwtManager := crypto.NewJWTManager(crypto.JWTConfig{
		Secret:       cfg.JWT.Secret,
		AccessExpiry: cfg.JWT.AccessExpiry,
		Issuer:       cfg.JWT.Issuer,
	})

	encryptor, err := crypto.NewEncryptor(cfg.Crypto.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create encryptor")
	}

	server := api.NewServer(cfg, &api.Deps{
		DB:          db,
		RedisClient: redisClient,
		Store:       store,
		JWTManager:  jwtManager,
		Encryptor:   encryptor,
		QueueClient: queueClient,
		Bus:         progress.NewBus(),
		Gmail:       oauth.NewGmailClient(),
	})

	if err := server.Start(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
