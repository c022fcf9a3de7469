package gormstore

import (
	"context"
	"time"

	"fitlog/fitness-api/internal/model"
	"fitlog/fitness-api/internal/store"
)

type TokenStore struct {
	s *Store
}

func (t *TokenStore) Create(ctx context.Context, tok *model.Token) (*model.Token, error) {
	if tok.ID == "" {
		id, err := store.NewID()
		if err != nil {
			return nil, err
		}
		tok.ID = id
	}
	// times are compared as text by SQLite, keep them in one zone
	tok.ExpiresAt = tok.ExpiresAt.UTC()

	db, cancel := t.s.conn(ctx)
	defer cancel()

	if err := db.Create(tok).Error; err != nil {
		return nil, translate(err)
	}

	return tok, nil
}

func (t *TokenStore) FindOne(ctx context.Context, f store.TokenFilter) (*model.Token, error) {
	db, cancel := t.s.conn(ctx)
	defer cancel()

	q := db.Where("value = ? AND kind = ? AND blacklisted = ?", f.Value, f.Kind, false)
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if !f.ValidAt.IsZero() {
		q = q.Where("expires_at > ?", f.ValidAt.UTC())
	}

	var tok model.Token
	if err := q.First(&tok).Error; err != nil {
		return nil, translate(err)
	}

	return &tok, nil
}

func (t *TokenStore) FindByOwner(ctx context.Context, userID string, kind model.TokenKind) (*model.Token, error) {
	db, cancel := t.s.conn(ctx)
	defer cancel()

	var tok model.Token
	err := db.
		Where("user_id = ? AND kind = ?", userID, kind).
		First(&tok).
		Error
	if err != nil {
		return nil, translate(err)
	}

	return &tok, nil
}

func (t *TokenStore) UpdateValue(ctx context.Context, userID string, kind model.TokenKind, value string, expiresAt time.Time) error {
	db, cancel := t.s.conn(ctx)
	defer cancel()

	r := db.Model(&model.Token{}).
		Where("user_id = ? AND kind = ?", userID, kind).
		Updates(map[string]any{
			"value":      value,
			"expires_at": expiresAt.UTC(),
		})
	if r.Error != nil {
		return translate(r.Error)
	}
	if r.RowsAffected == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (t *TokenStore) DeleteOne(ctx context.Context, id string) error {
	db, cancel := t.s.conn(ctx)
	defer cancel()

	r := db.Where("id = ?", id).Delete(&model.Token{})
	if r.Error != nil {
		return translate(r.Error)
	}
	if r.RowsAffected == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (t *TokenStore) DeleteMany(ctx context.Context, userID string, kind model.TokenKind) (int64, error) {
	db, cancel := t.s.conn(ctx)
	defer cancel()

	r := db.Where("user_id = ? AND kind = ?", userID, kind).Delete(&model.Token{})
	if r.Error != nil {
		return 0, translate(r.Error)
	}

	return r.RowsAffected, nil
}

func (t *TokenStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	db, cancel := t.s.conn(ctx)
	defer cancel()

	r := db.Where("expires_at < ?", before.UTC()).Delete(&model.Token{})
	if r.Error != nil {
		return 0, translate(r.Error)
	}

	return r.RowsAffected, nil
}
