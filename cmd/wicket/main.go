package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/loftsec/wicket/config"
	"github.com/loftsec/wicket/internal/adapters/memory"
	"github.com/loftsec/wicket/internal/bootstrap"
	"github.com/loftsec/wicket/internal/devseed"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting wicket",
		"addr", cfg.HTTP.Addr,
		"auth_store", string(cfg.Auth.Store),
		"dev", cfg.IsDev,
	)

	pool, redisClient, err := initInfrastructure(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	auth, err := bootstrap.BuildAuthStack(&bootstrap.AuthStackDeps{
		Config: &cfg,
		Pool:   pool,
		Redis:  redisClient,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	articles := bootstrap.BuildArticleRepo(&cfg, pool)

	if cfg.Auth.SeedDevUsers {
		// Sanitize guarantees seeding is only enabled in memory mode.
		if memUsers, ok := auth.Users.(*memory.UserStore); ok {
			if err = devseed.Run(ctx, devseed.Services{
				Users:    memUsers,
				Articles: articles,
				Hasher:   auth.Hasher,
				Logger:   logger,
			}); err != nil {
				return fmt.Errorf("seed dev data: %w", err)
			}
		}
	}

	server, err := bootstrap.StartHTTPServer(&bootstrap.HTTPServerConfig{
		Config:   &cfg,
		Auth:     auth,
		Articles: articles,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	<-quit

	return bootstrap.ShutdownHTTPServer(ctx, server, cfg.HTTP.ShutdownTimeout, logger)
}

// initInfrastructure connects the shared backing stores. In memory mode no
// external infrastructure is needed and both handles are nil.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel support flexible.
func initInfrastructure(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (*pgxpool.Pool, redis.UniversalClient, error) {
	if cfg.Auth.Store == config.StoreModeMemory {
		logger.InfoContext(ctx, "memory store mode, skipping database and redis")
		return nil, nil, nil
	}

	dbCfg := bootstrap.DatabaseConfig{
		DBConfig:    cfg.Postgres,
		RedisConfig: cfg.Redis,
		Logger:      logger,
	}

	pool, err := bootstrap.ConnectDB(ctx, dbCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}

	redisClient, err := bootstrap.ConnectRedis(ctx, dbCfg)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	if cfg.Postgres.RunMigrationsOnStart {
		if err = bootstrap.RunMigrations(ctx, pool, logger); err != nil {
			pool.Close()
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis after migration failure", "error", cerr)
			}
			return nil, nil, err
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	return pool, redisClient, nil
}
