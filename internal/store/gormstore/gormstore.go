// Package gormstore implements the store contracts on top of GORM. SQLite
// and PostgreSQL are supported.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"fitlog/fitness-api/internal/model"
	"fitlog/fitness-api/internal/store"
	"fitlog/fitness-api/pkg/util"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const memoryPath = ":memory:"

// Open opens the SQLite database at path and migrates the tables.
func Open(path string) (*gorm.DB, error) {
	// If running in a docker container don't allow the sqlite file to be created.
	// The host should instead mount it using volumes
	if path != memoryPath && util.InDocker() {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", path)
		}
	}

	db, err := open(sqlite.Open(path), "SQLite")
	if err != nil {
		return nil, err
	}

	// Every connection to :memory: gets its own empty database
	if path == memoryPath {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, migrate(db)
}

// OpenPostgres connects to the PostgreSQL server described by dsn and migrates the tables.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := open(postgres.Open(dsn), "PostgreSQL")
	if err != nil {
		return nil, err
	}

	return db, migrate(db)
}

func open(d gorm.Dialector, name string) (*gorm.DB, error) {
	db, err := gorm.Open(d, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s database, %w", name, err)
	}

	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.User{}, model.Token{}, model.Workout{}); err != nil {
		return fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return nil
}

// Store holds the shared connection and the per-call timeout
type Store struct {
	db      *gorm.DB
	timeout time.Duration
}

func New(db *gorm.DB, timeout time.Duration) *Store {
	return &Store{db: db, timeout: timeout}
}

// Stores wires the GORM backed stores into a store.Stores bundle
func (s *Store) Stores() *store.Stores {
	return &store.Stores{
		Users:    &UserStore{s},
		Tokens:   &TokenStore{s},
		Workouts: &WorkoutStore{s},
		Close: func(context.Context) error {
			sqlDB, err := s.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

// conn returns a session bound to a context that expires after the store timeout
func (s *Store) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if s.timeout <= 0 {
		return s.db.WithContext(ctx), func() {}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

// translate maps GORM errors onto the store sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w, %w", store.ErrDuplicate, err)
	case store.Transient(err), sqliteBusy(err), postgresUnavailable(err):
		return fmt.Errorf("%w, %w", store.ErrIO, err)
	default:
		return err
	}
}

// sqliteBusy reports a database held by another writer
func sqliteBusy(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}

	return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
}

// postgresUnavailable reports connection exceptions, exhausted resources
// and a server that is shutting down or starting up
func postgresUnavailable(err error) bool {
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return strings.HasPrefix(pe.Code, "08") ||
			strings.HasPrefix(pe.Code, "53") ||
			pe.Code == "57P01" ||
			pe.Code == "57P03"
	}

	return pgconn.Timeout(err)
}
