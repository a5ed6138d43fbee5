package main

import (
	"fmt"

	"trade-signal-bot/internal/signalbot/config"
	"trade-signal-bot/internal/signalbot/repository"
	"trade-signal-bot/pkg/logger"
	"trade-signal-bot/pkg/postgres"
	"trade-signal-bot/pkg/redis"
)

// openRepository builds the configured signal repository. The returned
// cleanup releases the backend and its connections.
func openRepository(cfg *config.Config, log *logger.Logger) (repository.SignalRepository, func(), error) {
	var (
		repo    repository.SignalRepository
		closers []func()
	)

	switch cfg.Storage.Driver {
	case config.StorageFile:
		repo = repository.NewFileSignalRepository(cfg.Storage.FilePath)
	case config.StorageBolt:
		boltRepo, err := repository.NewBoltSignalRepository(cfg.Storage.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		repo = boltRepo
	case config.StorageRedis:
		client, err := redis.NewClient(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		repo = repository.NewRedisSignalRepository(client.Client, cfg.Storage.RedisPrefix)
	case config.StoragePostgres:
		db, err := postgres.NewDB(postgres.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			DBName:          cfg.Database.DBName,
			SSLMode:         cfg.Database.SSLMode,
			TimeZone:        cfg.Database.TimeZone,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			LogLevel:        cfg.Database.LogLevel,
		})
		if err != nil {
			return nil, nil, err
		}
		if sqlDB, err := db.DB.DB(); err == nil {
			closers = append(closers, func() { _ = sqlDB.Close() })
		}
		repo = repository.NewPostgresSignalRepository(db.DB)
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Cache.TTL > 0 {
		repo = repository.NewCachedSignalRepository(repo, cfg.Cache.TTL)
	}
	log.Info("Signal repository ready", logger.StringField("driver", cfg.Storage.Driver))

	cleanup := func() {
		if err := repo.Close(); err != nil {
			log.Warn("Failed to close repository", logger.ErrorField(err))
		}
		for _, c := range closers {
			c()
		}
	}
	return repo, cleanup, nil
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(cfg.Logger.Level, cfg.Logger.Encoding,
		logger.WithFileRotation(cfg.Logger.File.Path, cfg.Logger.File.MaxSizeMB, cfg.Logger.File.MaxBackups, cfg.Logger.File.MaxAgeDays))
}
