package gormstore

import (
	"context"
	"strings"

	"fitlog/fitness-api/internal/model"
	"fitlog/fitness-api/internal/store"
)

type UserStore struct {
	s *Store
}

func (u *UserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	db, cancel := u.s.conn(ctx)
	defer cancel()

	var user model.User
	err := db.
		Where("email = ?", strings.ToLower(email)).
		First(&user).
		Error
	if err != nil {
		return nil, translate(err)
	}

	return &user, nil
}

func (u *UserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	db, cancel := u.s.conn(ctx)
	defer cancel()

	var user model.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
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
	user.Email = strings.ToLower(user.Email)

	db, cancel := u.s.conn(ctx)
	defer cancel()

	if err := db.Create(user).Error; err != nil {
		return nil, translate(err)
	}

	return user, nil
}

func (u *UserStore) Update(ctx context.Context, id string, upd store.UserUpdate) (*model.User, error) {
	fields := map[string]any{}
	if upd.PasswordHash != nil {
		fields["password_hash"] = *upd.PasswordHash
	}
	if upd.IsEmailVerified != nil {
		fields["is_email_verified"] = *upd.IsEmailVerified
	}
	if upd.Name != nil {
		fields["name"] = *upd.Name
	}
	if upd.FirstName != nil {
		fields["first_name"] = *upd.FirstName
	}
	if upd.LastName != nil {
		fields["last_name"] = *upd.LastName
	}
	if upd.PictureURL != nil {
		fields["picture_url"] = *upd.PictureURL
	}

	if len(fields) > 0 {
		db, cancel := u.s.conn(ctx)
		r := db.Model(&model.User{}).Where("id = ?", id).Updates(fields)
		cancel()

		if r.Error != nil {
			return nil, translate(r.Error)
		}
		if r.RowsAffected == 0 {
			return nil, store.ErrNotFound
		}
	}

	return u.FindByID(ctx, id)
}
