package mongostore

import (
	"context"
	"strings"
	"time"

	"fitlog/fitness-api/internal/model"
	"fitlog/fitness-api/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserStore struct {
	c *mongo.Collection
	s *Store
}

func (u *UserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return u.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (u *UserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	return u.findOne(ctx, bson.M{"_id": id})
}

func (u *UserStore) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	ctx, cancel := u.s.ctx(ctx)
	defer cancel()

	var user model.User
	if err := u.c.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translate(err)
	}

	return &user, nil
}

func (u *UserStore) Create(ctx context.Context, user *model.User) (*model.User, error) {
	if user.ID == "" {
		id, err := store.NewID()
		if err != nil {
			return nil, err
		}
		user.ID = id
	}

	now := time.Now().UTC()
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now

	ctx, cancel := u.s.ctx(ctx)
	defer cancel()

	if _, err := u.c.InsertOne(ctx, user); err != nil {
		return nil, translate(err)
	}

	return user, nil
}

func (u *UserStore) Update(ctx context.Context, id string, upd store.UserUpdate) (*model.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.PasswordHash != nil {
		set["password"] = *upd.PasswordHash
	}
	if upd.IsEmailVerified != nil {
		set["isEmailVerified"] = *upd.IsEmailVerified
	}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.FirstName != nil {
		set["firstName"] = *upd.FirstName
	}
	if upd.LastName != nil {
		set["lastName"] = *upd.LastName
	}
	if upd.PictureURL != nil {
		set["pictureUrl"] = *upd.PictureURL
	}

	ctx, cancel := u.s.ctx(ctx)
	defer cancel()

	var user model.User
	err := u.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return nil, translate(err)
	}

	return &user, nil
}
