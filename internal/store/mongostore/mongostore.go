// Package mongostore implements the store contracts on MongoDB
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitlog/fitness-api/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection    = "users"
	tokensCollection   = "tokens"
	workoutsCollection = "workouts"
)

type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// Open connects to uri, pings the primary and makes sure the indexes exist
func Open(ctx context.Context, uri, database string, timeout time.Duration) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB, %w", err)
	}

	s := &Store{
		client:  client,
		db:      client.Database(database),
		timeout: timeout,
	}

	pctx, cancel := s.ctx(ctx)
	defer cancel()

	if err := client.Ping(pctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB, %w", err)
	}

	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes, %w", err)
	}

	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		tokensCollection: {
			{Keys: bson.D{{Key: "token", Value: 1}, {Key: "type", Value: 1}, {Key: "user", Value: 1}}},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "type", Value: 1}}},
			{Keys: bson.D{{Key: "expires", Value: 1}}},
		},
		workoutsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) Stores() *store.Stores {
	return &store.Stores{
		Users:    &UserStore{s.db.Collection(usersCollection), s},
		Tokens:   &TokenStore{s.db.Collection(tokensCollection), s},
		Workouts: &WorkoutStore{s.db.Collection(workoutsCollection), s},
		Close:    s.client.Disconnect,
	}
}

// Drop removes the whole database
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func (s *Store) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w, %w", store.ErrDuplicate, err)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err), errors.Is(err, mongo.ErrClientDisconnected), store.Transient(err):
		return fmt.Errorf("%w, %w", store.ErrIO, err)
	default:
		return err
	}
}
