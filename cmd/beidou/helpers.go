package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sanhsing/beidou-edu-server/internal/config"
	"github.com/sanhsing/beidou-edu-server/internal/database"
	"github.com/sanhsing/beidou-edu-server/internal/lock"
	"github.com/sanhsing/beidou-edu-server/internal/review"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

// localService opens the configured database and builds a review service on it.
// The returned function closes every connection the service uses.
func localService(ctx context.Context, cfg *config.Config) (*review.Service, func() error, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("database.Open() > %w", err)
	}
	closeAll := func() error { return db.Close() }

	var locker review.Locker = lock.NewLocalLocker()
	if cfg.Redis.Enabled {
		rdb, err := database.OpenRedis(ctx, cfg.Redis)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("database.OpenRedis() > %w", err)
		}
		locker = lock.NewRedisLocker(rdb, lock.WithTTL(cfg.Redis.LockTTL()), lock.WithLogger(slog.Default()))
		closeAll = func() error {
			return errors.Join(db.Close(), rdb.Close())
		}
	}

	opts, err := review.OptionsFromConfig(cfg.Review, slog.Default())
	if err != nil {
		_ = closeAll()
		return nil, nil, fmt.Errorf("review.OptionsFromConfig() > %w", err)
	}
	return review.NewService(review.NewDBRepository(db), locker, opts), closeAll, nil
}
