// Command server wires the gamewallet application context once at
// startup (§9: no hidden globals) and starts the HTTP surface for the
// §6 wallet endpoints.
package main

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"

	cacheimpl "github.com/amirasaad/gamewallet/infra/cache"
	"github.com/amirasaad/gamewallet/pkg/aml"
	"github.com/amirasaad/gamewallet/pkg/auth"
	"github.com/amirasaad/gamewallet/pkg/cache"
	"github.com/amirasaad/gamewallet/pkg/config"
	"github.com/amirasaad/gamewallet/pkg/crypto"
	"github.com/amirasaad/gamewallet/pkg/decorator"
	"github.com/amirasaad/gamewallet/pkg/eventbus"
	"github.com/amirasaad/gamewallet/pkg/repository/gormrepo"
	"github.com/amirasaad/gamewallet/pkg/wallet"
	"github.com/amirasaad/gamewallet/webapi"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	logger := newLogger()

	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DB.URL), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	keyBytes, err := base64.StdEncoding.DecodeString(cfg.Auth.EncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to decode encryption key: %w", err)
	}
	cipher, err := crypto.NewAmountCipher(keyBytes)
	if err != nil {
		return fmt.Errorf("failed to build amount cipher: %w", err)
	}
	hasher := crypto.NewKeyHasher()

	appCache := newCache(cfg, logger)

	transaction := decorator.NewUnitOfWorkTransactionDecorator(gormrepo.Factory(db), logger)

	bus := eventbus.NewAsyncBus(
		cfg.EventBus.QueueCapacity,
		cfg.EventBus.Workers,
		cfg.EventBus.BackpressureWait,
		gormrepo.NewDeadLetterSink(db),
		logger,
	)

	engine := wallet.NewEngine(transaction, cipher, bus, appCache, logger)

	aml.NewAnalyzer(transaction, cipher, bus, aml.Config{
		MaxRetries:     cfg.AML.MaxRetries,
		RetryBaseDelay: cfg.AML.RetryBaseDelay,
		HistoryWindow:  cfg.AML.HistoryWindow,
	}, logger)

	pipeline := auth.NewPipeline(transaction, hasher, appCache, *cfg.Auth, logger)
	limiter := auth.NewRateLimiter(appCache, *cfg.RateLimit, logger)

	app := webapi.NewApp(
		engine,
		pipeline,
		limiter,
		gormrepo.NewPartnerRepository(db),
		gormrepo.NewTransactionRepository(db),
		cfg.Server.OperationDeadline,
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting server", "env", cfg.Env, "address", addr)
	return app.Listen(addr)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// newCache prefers Redis when configured, falling back to the in-process
// memory cache for local development. Either way the rest of the system
// treats a cache outage as fail-open (§5), never as a request failure.
func newCache(cfg *config.App, logger *slog.Logger) cache.Cache {
	if cfg.Redis == nil || cfg.Redis.URL == "" {
		return cacheimpl.NewMemoryCache()
	}
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Warn("invalid redis url, falling back to memory cache", "error", err)
		return cacheimpl.NewMemoryCache()
	}
	opts.PoolSize = cfg.Redis.PoolSize
	opts.DialTimeout = cfg.Redis.DialTimeout
	opts.ReadTimeout = cfg.Redis.ReadTimeout
	opts.WriteTimeout = cfg.Redis.WriteTimeout
	client := redis.NewClient(opts)
	return cacheimpl.NewRedisCache(client, cfg.Redis.KeyPrefix, logger)
}
