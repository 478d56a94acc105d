package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/MohnajibG/circet/internal/config"
	"github.com/MohnajibG/circet/internal/docstore"
	"github.com/MohnajibG/circet/internal/utils"
)

const (
	maxRetries     = 5
	connectTimeout = 5 * time.Second
	initialBackoff = 500 * time.Millisecond
)

type App struct {
	Config *config.Config
	DB     *pgxpool.Pool // nil when the memory driver is selected
	Store  docstore.Store
}

func NewApp(cfg *config.Config) (*App, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		utils.Logger.Warn("Using in-memory document store; data will not survive a restart")
		return &App{Config: cfg, Store: docstore.NewMemoryStore()}, nil
	}

	var (
		dbPool  *pgxpool.Pool
		err     error
		backoff = initialBackoff
	)

	for i := 1; i <= maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		dbPool, err = newDBPool(ctx, cfg.DBUrl)
		if err == nil {
			utils.Logger.Infof("%s connected to DB on attempt %d", cfg.AppName, i)
			break
		}

		utils.Logger.WithError(err).Warnf(
			"Failed DB connect on attempt %d/%d. Retrying in %v...",
			i, maxRetries, backoff,
		)

		if i == maxRetries {
			return nil, fmt.Errorf("unable to connect after %d attempts: %w", maxRetries, err)
		}
		time.Sleep(backoff)
		backoff *= 2
	}

	store, err := docstore.NewPostgresStore(context.Background(), dbPool)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("document store init: %w", err)
	}

	return &App{
		Config: cfg,
		DB:     dbPool,
		Store:  store,
	}, nil
}

func (a *App) Close() {
	if a.Store != nil {
		a.Store.Close()
	}
	if a.DB != nil {
		a.DB.Close()
		utils.Logger.Infof("%s DB connection closed.", a.Config.AppName)
	}
}

func newDBPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second
	return pgxpool.ConnectConfig(ctx, cfg)
}
