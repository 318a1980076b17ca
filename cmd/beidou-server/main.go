package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/sanhsing/beidou-edu-server/internal/bootstrap"
	"github.com/sanhsing/beidou-edu-server/internal/config"
	"github.com/sanhsing/beidou-edu-server/internal/database"
	"github.com/sanhsing/beidou-edu-server/internal/lock"
	"github.com/sanhsing/beidou-edu-server/internal/notify"
	"github.com/sanhsing/beidou-edu-server/internal/review"
	"github.com/sanhsing/beidou-edu-server/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loadConfig() > %w", err)
	}

	app := bootstrap.New(bootstrap.WithLogger(logger))
	return app.Run(context.Background(), func(ctx context.Context) error {
		db, err := database.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("database.Open() > %w", err)
		}
		app.AddShutdownHook("database", func(context.Context) error {
			return db.Close()
		})

		var rdb *redis.Client
		var locker review.Locker = lock.NewLocalLocker()
		if cfg.Redis.Enabled {
			rdb, err = database.OpenRedis(ctx, cfg.Redis)
			if err != nil {
				return fmt.Errorf("database.OpenRedis() > %w", err)
			}
			app.AddShutdownHook("redis", func(context.Context) error {
				return rdb.Close()
			})
			locker = lock.NewRedisLocker(rdb, lock.WithTTL(cfg.Redis.LockTTL()), lock.WithLogger(logger))
		}

		opts, err := review.OptionsFromConfig(cfg.Review, logger)
		if err != nil {
			return fmt.Errorf("review.OptionsFromConfig() > %w", err)
		}
		svc := review.NewService(review.NewDBRepository(db), locker, opts)

		if cfg.Digest.Enabled {
			if err := startDigest(ctx, app, cfg, svc, rdb, logger); err != nil {
				return err
			}
		}

		srv := server.NewHTTPServer(cfg.Server, svc, logger)
		app.AddShutdownHook("http server", srv.Shutdown)

		logger.Info("starting server",
			slog.String("addr", srv.Addr),
			slog.String("database", cfg.Database.Driver),
			slog.Bool("redis", cfg.Redis.Enabled),
			slog.Bool("digest", cfg.Digest.Enabled),
		)
		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("srv.ListenAndServe() > %w", err)
		case <-ctx.Done():
			return nil
		}
	})
}

// startDigest schedules the due digest. Digests go to Redis pub/sub when Redis is enabled.
func startDigest(ctx context.Context, app *bootstrap.App, cfg *config.Config, svc *review.Service, rdb *redis.Client, logger *slog.Logger) error {
	var publisher notify.Publisher = notify.NewLogPublisher(logger)
	if rdb != nil {
		publisher = notify.NewRedisPublisher(rdb, cfg.Redis.DigestChannel)
	}

	runner, err := notify.NewRunner(ctx, notify.NewDigestJob(svc, publisher, logger), cfg.Digest.Cron, logger)
	if err != nil {
		return fmt.Errorf("notify.NewRunner() > %w", err)
	}
	runner.Start()
	app.AddShutdownHook("digest", runner.Stop)
	return nil
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(os.Getenv("BEIDOU_CONFIG"))
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	return loader.Load()
}
