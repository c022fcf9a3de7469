// Package db opens the configured storage backend
package db

import (
	"context"
	"fmt"

	"fitlog/fitness-api/config"
	"fitlog/fitness-api/internal/store"
	"fitlog/fitness-api/internal/store/gormstore"
	"fitlog/fitness-api/internal/store/mongostore"

	"go.uber.org/zap"
)

// New opens the store selected by storage.driver
func New(ctx context.Context, c config.Storage) (*store.Stores, error) {
	switch c.Driver {
	case "sqlite":
		db, err := gormstore.Open(c.SQLitePath)
		if err != nil {
			return nil, err
		}

		zap.L().Info("Using SQLite storage", zap.String("path", c.SQLitePath))
		return gormstore.New(db, c.Timeout).Stores(), nil
	case "postgres":
		db, err := gormstore.OpenPostgres(c.PostgresDSN)
		if err != nil {
			return nil, err
		}

		zap.L().Info("Using PostgreSQL storage")
		return gormstore.New(db, c.Timeout).Stores(), nil
	case "mongo":
		s, err := mongostore.Open(ctx, c.MongoURI, c.MongoDatabase, c.Timeout)
		if err != nil {
			return nil, err
		}

		zap.L().Info("Using MongoDB storage", zap.String("database", c.MongoDatabase))
		return s.Stores(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.Driver)
	}
}
