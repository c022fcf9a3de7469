// Package store defines the persistence contracts used by the services.
// Backends live in the gormstore and mongostore subpackages.
package store

import (
	"context"
	"errors"
	"time"

	"fitlog/fitness-api/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
	// ErrIO marks timeouts and connectivity failures. Callers may retry.
	ErrIO = errors.New("store unavailable")
)

// UserUpdate lists the user fields that can change after creation.
// Nil fields are left untouched.
type UserUpdate struct {
	PasswordHash    *string
	IsEmailVerified *bool
	Name            *string
	FirstName       *string
	LastName        *string
	PictureURL      *string
}

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Update(ctx context.Context, id string, upd UserUpdate) (*model.User, error)
}

// TokenFilter matches non-blacklisted token rows. UserID and ValidAt are
// optional; a zero ValidAt skips the expiry check.
type TokenFilter struct {
	Value   string
	Kind    model.TokenKind
	UserID  string
	ValidAt time.Time
}

type TokenStore interface {
	Create(ctx context.Context, t *model.Token) (*model.Token, error)
	FindOne(ctx context.Context, f TokenFilter) (*model.Token, error)
	// FindByOwner returns any row of the given kind owned by userID.
	FindByOwner(ctx context.Context, userID string, kind model.TokenKind) (*model.Token, error)
	// UpdateValue rewrites the value and expiry of the owner's row of the given kind.
	UpdateValue(ctx context.Context, userID string, kind model.TokenKind, value string, expiresAt time.Time) error
	// DeleteOne removes a row by id and returns ErrNotFound when nothing was removed,
	// so only the first of two concurrent consumers succeeds.
	DeleteOne(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, userID string, kind model.TokenKind) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Sortable workout fields
const (
	SortName      = "name"
	SortGroup     = "group"
	SortCreatedAt = "createdAt"
	SortUpdatedAt = "updatedAt"
)

type Sort struct {
	Field string
	Desc  bool
}

type WorkoutFilter struct {
	UserID string
	Group  string
	// NameLike is a case-insensitive substring match
	NameLike string
}

type Page struct {
	Limit int
	Page  int // 1-based
	Sort  []Sort
}

type WorkoutStore interface {
	Create(ctx context.Context, w *model.Workout) (*model.Workout, error)
	FindByID(ctx context.Context, userID, id string) (*model.Workout, error)
	ExistsByName(ctx context.Context, userID, name string) (bool, error)
	Query(ctx context.Context, f WorkoutFilter, p Page) ([]model.Workout, int64, error)
	SetPicture(ctx context.Context, userID, id, pictureURL string) (*model.Workout, error)
}

// Stores bundles one backend's stores.
type Stores struct {
	Users    UserStore
	Tokens   TokenStore
	Workouts WorkoutStore
	Close    func(ctx context.Context) error
}
