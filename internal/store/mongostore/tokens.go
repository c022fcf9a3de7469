package mongostore

import (
	"context"
	"time"

	"fitlog/fitness-api/internal/model"
	"fitlog/fitness-api/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type TokenStore struct {
	c *mongo.Collection
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
	if tok.CreatedAt.IsZero() {
		tok.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := t.s.ctx(ctx)
	defer cancel()

	if _, err := t.c.InsertOne(ctx, tok); err != nil {
		return nil, translate(err)
	}

	return tok, nil
}

func (t *TokenStore) FindOne(ctx context.Context, f store.TokenFilter) (*model.Token, error) {
	filter := bson.M{
		"token":       f.Value,
		"type":        f.Kind,
		"blacklisted": false,
	}
	if f.UserID != "" {
		filter["user"] = f.UserID
	}
	if !f.ValidAt.IsZero() {
		filter["expires"] = bson.M{"$gt": f.ValidAt}
	}

	return t.findOne(ctx, filter)
}

func (t *TokenStore) FindByOwner(ctx context.Context, userID string, kind model.TokenKind) (*model.Token, error) {
	return t.findOne(ctx, bson.M{"user": userID, "type": kind})
}

func (t *TokenStore) findOne(ctx context.Context, filter bson.M) (*model.Token, error) {
	ctx, cancel := t.s.ctx(ctx)
	defer cancel()

	var tok model.Token
	if err := t.c.FindOne(ctx, filter).Decode(&tok); err != nil {
		return nil, translate(err)
	}

	return &tok, nil
}

func (t *TokenStore) UpdateValue(ctx context.Context, userID string, kind model.TokenKind, value string, expiresAt time.Time) error {
	ctx, cancel := t.s.ctx(ctx)
	defer cancel()

	res, err := t.c.UpdateOne(ctx,
		bson.M{"user": userID, "type": kind},
		bson.M{"$set": bson.M{"token": value, "expires": expiresAt}},
	)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (t *TokenStore) DeleteOne(ctx context.Context, id string) error {
	ctx, cancel := t.s.ctx(ctx)
	defer cancel()

	res, err := t.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (t *TokenStore) DeleteMany(ctx context.Context, userID string, kind model.TokenKind) (int64, error) {
	return t.deleteMany(ctx, bson.M{"user": userID, "type": kind})
}

func (t *TokenStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return t.deleteMany(ctx, bson.M{"expires": bson.M{"$lt": before}})
}

func (t *TokenStore) deleteMany(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := t.s.ctx(ctx)
	defer cancel()

	res, err := t.c.DeleteMany(ctx, filter)
	if err != nil {
		return 0, translate(err)
	}

	return res.DeletedCount, nil
}
