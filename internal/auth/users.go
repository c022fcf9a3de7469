package auth

import (
	"context"
	"strings"

	"fitlog/fitness-api/internal/apperr"
	"fitlog/fitness-api/internal/model"
	"fitlog/fitness-api/internal/store"

	"go.uber.org/zap"
)

// GetUser returns account id to its owner. Other accounts are reported
// missing so other accounts can't be discovered.
func (s *Service) GetUser(ctx context.Context, callerID, id string) (*model.User, error) {
	if callerID != id {
		return nil, apperr.New(apperr.CauseUserNotFound, msgUserNotFound)
	}

	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, apperr.CauseUserNotFound, msgUserNotFound)
	}

	return u, nil
}

// UpdateInput holds the profile fields a user may change. Nil fields are
// left untouched. The email address is fixed because verification is bound to it.
type UpdateInput struct {
	Name       *string
	FirstName  *string
	LastName   *string
	PictureURL *string
	Password   *string
}

func (in UpdateInput) empty() bool {
	return in.Name == nil && in.FirstName == nil && in.LastName == nil && in.PictureURL == nil && in.Password == nil
}

// UpdateUser changes the profile of id. Changing the password revokes
// every refresh token of the account.
func (s *Service) UpdateUser(ctx context.Context, callerID, id string, in UpdateInput) (*model.User, error) {
	if callerID != id {
		return nil, apperr.New(apperr.CauseUserNotFound, msgUserNotFound)
	}

	if in.empty() {
		return nil, apperr.New(apperr.CauseInvalidInput, "No fields to update")
	}

	upd := store.UserUpdate{
		Name:       trimmed(in.Name),
		FirstName:  trimmed(in.FirstName),
		LastName:   trimmed(in.LastName),
		PictureURL: trimmed(in.PictureURL),
	}

	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		upd.PasswordHash = &hash
	}

	u, err := s.users.Update(ctx, id, upd)
	if err != nil {
		return nil, apperr.FromStore(err, apperr.CauseUserNotFound, msgUserNotFound)
	}

	if in.Password != nil {
		if _, err := s.tokens.DeleteMany(ctx, id, model.TokenRefresh); err != nil {
			return nil, apperr.FromStore(err, apperr.CauseUnknown, "Failed to revoke sessions")
		}
		zap.L().Info("Password changed, sessions revoked", zap.String("userID", id))
	}

	return u, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}

	v := strings.TrimSpace(*s)
	return &v
}
