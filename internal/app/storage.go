package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adanyl0v/go-task-api/internal/config"
	"github.com/adanyl0v/go-task-api/internal/repository"
)

var globalTaskRepository repository.TaskRepository

func MustConnectStorage() {
	cfg := config.Global()

	var err error
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		globalTaskRepository = repository.NewMemoryTaskRepository()
	case config.DriverPostgres:
		globalTaskRepository, err = connectPostgres(cfg.Postgres)
	case config.DriverSQLite:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Storage.PingTimeout)
		defer cancel()
		globalTaskRepository, err = repository.OpenSQLite(ctx, componentLogger("sqlite"), cfg.Storage.DSN)
	case config.DriverMySQL:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Storage.PingTimeout)
		defer cancel()
		globalTaskRepository, err = repository.OpenMySQL(ctx, componentLogger("mysql"), cfg.Storage.DSN)
	default:
		err = fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("driver", cfg.Storage.Driver).
			Msg("failed to connect to storage")
		panic(err)
	}

	globalLogger.Info().
		Str("driver", cfg.Storage.Driver).
		Msg("connected to storage")
}

func connectPostgres(cfg config.PostgresConfig) (repository.TaskRepository, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pgPool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	err = pgPool.Ping(ctx)
	if err != nil {
		pgPool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	globalLogger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("connected to postgres")

	repo := repository.NewPostgresTaskRepository(componentLogger("postgres"), pgPool)
	err = repo.EnsureSchema(ctx)
	if err != nil {
		pgPool.Close()
		return nil, err
	}
	return repo, nil
}

func DisconnectStorage() {
	if globalTaskRepository == nil {
		return
	}

	err := globalTaskRepository.Close()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to disconnect from storage")
		return
	}
	globalLogger.Info().Msg("disconnected from storage")
}
