// Command api serves the user administration HTTP API.
//
//	@title						User Admin API
//	@version					1.0
//	@description				Administrative user directory with token login.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ednar28/user-admin/internal/api"
	"github.com/ednar28/user-admin/internal/api/metrics"
	"github.com/ednar28/user-admin/internal/core/service"
	"github.com/ednar28/user-admin/internal/infrastructure/config"
	mongodb "github.com/ednar28/user-admin/internal/infrastructure/db/mongo"
	"github.com/ednar28/user-admin/internal/infrastructure/db/postgres"
	redisdb "github.com/ednar28/user-admin/internal/infrastructure/db/redis"
	"github.com/ednar28/user-admin/internal/infrastructure/http/handlers"
	"github.com/ednar28/user-admin/internal/infrastructure/queue"
	"github.com/ednar28/user-admin/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log := logger.Get()
		log.Fatal().Err(err).Msg("api stopped")
	}
}

func run() error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{})
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "user-admin",
	})

	// --- Stores ---
	pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL})
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := postgres.Migrate(ctx, pool)
	if err != nil {
		return err
	}
	if len(applied) > 0 {
		log.Info().Strs("migrations", applied).Msg("schema migrated")
	}

	mongoClient, mongoDB, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "user-admin",
	})
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	auditRepo := mongodb.NewAuditRepository(mongoDB)
	if err := auditRepo.EnsureIndexes(ctx); err != nil {
		return err
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	// --- Audit trail ---
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, auditRepo, log.With().Str("component", "audit").Logger(),
		queue.WithDropHook(metrics.AuditEventsDroppedTotal.Inc))
	dispatcher.Start()

	// --- Services ---
	users := postgres.NewUserRepository(pool)
	roles := postgres.NewRoleRepository(pool)
	tokens := postgres.NewTokenRepository(pool)
	tx := postgres.NewTransactor(pool)

	authService, err := service.NewAuthService(users, tokens, dispatcher, log, service.AuthOptions{
		TokenTTL:    cfg.Auth.TokenTTL,
		RememberTTL: cfg.Auth.RememberTokenTTL,
		BcryptCost:  cfg.Auth.BcryptCost,
	})
	if err != nil {
		return err
	}
	roleService := service.NewRoleService(roles, log)
	userService := service.NewUserService(users, roles, roleService, tx, dispatcher, log, service.UserOptions{
		BcryptCost: cfg.Auth.BcryptCost,
	})

	// --- HTTP ---
	proxies, err := cfg.TrustedProxyNets()
	if err != nil {
		return err
	}
	e := api.NewRouter(api.Deps{
		Auth:               authService,
		Users:              userService,
		Audit:              auditRepo,
		LoginLimiter:       redisdb.NewThrottle(rdb, "login", cfg.Auth.LoginThrottleMax, cfg.Auth.LoginThrottleWindow),
		Checkers:           []handlers.Checker{handlers.PostgresChecker(pool), handlers.MongoChecker(mongoDB), handlers.RedisChecker(rdb)},
		Log:                log,
		EnforcePermissions: cfg.Auth.EnforcePermissions,
		TrustedProxies:     proxies,
		Registerer:         prometheus.DefaultRegisterer,
		Gatherer:           prometheus.DefaultGatherer,
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	return shutdown(e.Shutdown, dispatcher.Close, log)
}

// shutdown stops accepting requests first, then drains the audit queue.
func shutdown(stopHTTP, drainAudit func(context.Context) error, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	httpErr := stopHTTP(ctx)
	if httpErr != nil {
		log.Error().Err(httpErr).Msg("http shutdown")
	}
	auditErr := drainAudit(ctx)
	if auditErr != nil {
		log.Error().Err(auditErr).Msg("audit queue not drained")
	}
	return errors.Join(httpErr, auditErr)
}
