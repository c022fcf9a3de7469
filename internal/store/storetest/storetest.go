// Package storetest holds the behaviour every store backend must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"fitlog/fitness-api/internal/model"
	"fitlog/fitness-api/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run runs the contract tests against stores returned by open. open must
// return empty stores on every call.
func Run(t *testing.T, open func(t *testing.T) *store.Stores) {
	t.Run("users", func(t *testing.T) { testUsers(t, open(t)) })
	t.Run("tokens", func(t *testing.T) { testTokens(t, open(t)) })
	t.Run("token expiry", func(t *testing.T) { testTokenExpiry(t, open(t)) })
	t.Run("workouts", func(t *testing.T) { testWorkouts(t, open(t)) })
}

func testUsers(t *testing.T, s *store.Stores) {
	ctx := context.Background()

	u, err := s.Users.Create(ctx, &model.User{
		Email:        "Jane@Example.com",
		PasswordHash: "hash",
		Name:         "Jane Doe",
		Type:         model.UserTypeEmail,
		Rank:         model.RankBeginner,
	})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	assert.Equal(t, "jane@example.com", u.Email)

	got, err := s.Users.FindByEmail(ctx, "JANE@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = s.Users.Create(ctx, &model.User{Email: "jane@example.com", PasswordHash: "x", Type: model.UserTypeEmail})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	hash := "new-hash"
	verified := true
	got, err = s.Users.Update(ctx, u.ID, store.UserUpdate{PasswordHash: &hash, IsEmailVerified: &verified})
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.True(t, got.IsEmailVerified)
	assert.Equal(t, "Jane Doe", got.Name, "untouched fields stay")

	name, first, picture := "Jane Roe", "Jane", "https://cdn/jane.png"
	got, err = s.Users.Update(ctx, u.ID, store.UserUpdate{Name: &name, FirstName: &first, PictureURL: &picture})
	require.NoError(t, err)
	assert.Equal(t, "Jane Roe", got.Name)
	assert.Equal(t, "Jane", got.FirstName)
	assert.Equal(t, "https://cdn/jane.png", got.PictureURL)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.True(t, got.IsEmailVerified)

	_, err = s.Users.Update(ctx, "missing", store.UserUpdate{IsEmailVerified: &verified})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Users.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testTokens(t *testing.T, s *store.Stores) {
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	a, err := s.Tokens.Create(ctx, &model.Token{Value: "a", UserID: "u1", Kind: model.TokenRefresh, ExpiresAt: exp})
	require.NoError(t, err)
	_, err = s.Tokens.Create(ctx, &model.Token{Value: "b", UserID: "u1", Kind: model.TokenRefresh, ExpiresAt: exp, Blacklisted: true})
	require.NoError(t, err)
	_, err = s.Tokens.Create(ctx, &model.Token{Value: "c", UserID: "u2", Kind: model.TokenResetPassword, ExpiresAt: exp})
	require.NoError(t, err)

	got, err := s.Tokens.FindOne(ctx, store.TokenFilter{Value: "a", Kind: model.TokenRefresh})
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "u1", got.UserID)

	_, err = s.Tokens.FindOne(ctx, store.TokenFilter{Value: "a", Kind: model.TokenRefresh, UserID: "u2"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Tokens.FindOne(ctx, store.TokenFilter{Value: "a", Kind: model.TokenResetPassword})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Tokens.FindOne(ctx, store.TokenFilter{Value: "b", Kind: model.TokenRefresh})
	assert.ErrorIs(t, err, store.ErrNotFound, "blacklisted rows are never found")

	require.NoError(t, s.Tokens.DeleteOne(ctx, a.ID))
	assert.ErrorIs(t, s.Tokens.DeleteOne(ctx, a.ID), store.ErrNotFound, "second delete loses")

	n, err := s.Tokens.DeleteMany(ctx, "u1", model.TokenRefresh)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.Tokens.DeleteMany(ctx, "u1", model.TokenRefresh)
	require.NoError(t, err)
	assert.Zero(t, n)

	// one time codes are updated in place
	_, err = s.Tokens.Create(ctx, &model.Token{Value: "111111", UserID: "u3", Kind: model.TokenVerifyOTP, ExpiresAt: exp})
	require.NoError(t, err)

	require.NoError(t, s.Tokens.UpdateValue(ctx, "u3", model.TokenVerifyOTP, "222222", exp.Add(time.Hour)))

	otp, err := s.Tokens.FindByOwner(ctx, "u3", model.TokenVerifyOTP)
	require.NoError(t, err)
	assert.Equal(t, "222222", otp.Value)

	assert.ErrorIs(t, s.Tokens.UpdateValue(ctx, "u4", model.TokenVerifyOTP, "1", exp), store.ErrNotFound)

	_, err = s.Tokens.FindByOwner(ctx, "u4", model.TokenVerifyOTP)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testTokenExpiry(t *testing.T, s *store.Stores) {
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := s.Tokens.Create(ctx, &model.Token{Value: "old", UserID: "u1", Kind: model.TokenVerifyOTP, ExpiresAt: now.Add(-time.Minute)})
	require.NoError(t, err)
	_, err = s.Tokens.Create(ctx, &model.Token{Value: "new", UserID: "u2", Kind: model.TokenVerifyOTP, ExpiresAt: now.Add(time.Minute)})
	require.NoError(t, err)

	_, err = s.Tokens.FindOne(ctx, store.TokenFilter{Value: "old", Kind: model.TokenVerifyOTP, ValidAt: now})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Tokens.FindOne(ctx, store.TokenFilter{Value: "old", Kind: model.TokenVerifyOTP})
	assert.NoError(t, err, "zero ValidAt skips the expiry check")

	n, err := s.Tokens.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = s.Tokens.FindOne(ctx, store.TokenFilter{Value: "new", Kind: model.TokenVerifyOTP, ValidAt: now})
	assert.NoError(t, err)
}

func testWorkouts(t *testing.T, s *store.Stores) {
	ctx := context.Background()

	for _, w := range []model.Workout{
		{UserID: "u1", Name: "Squat", Group: "legs"},
		{UserID: "u1", Name: "Front squat", Group: "legs"},
		{UserID: "u1", Name: "Bench", Group: "chest"},
		{UserID: "u2", Name: "Squat", Group: "legs"},
	} {
		_, err := s.Workouts.Create(ctx, &w)
		require.NoError(t, err)
	}

	_, err := s.Workouts.Create(ctx, &model.Workout{UserID: "u1", Name: "Squat", Group: "legs"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	ok, err := s.Workouts.ExistsByName(ctx, "u1", "Bench")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Workouts.ExistsByName(ctx, "u2", "Bench")
	require.NoError(t, err)
	assert.False(t, ok)

	items, total, err := s.Workouts.Query(ctx,
		store.WorkoutFilter{UserID: "u1", NameLike: "SQUAT"},
		store.Page{Limit: 1, Page: 1, Sort: []store.Sort{{Field: store.SortName, Desc: true}}},
	)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Squat", items[0].Name)

	items, total, err = s.Workouts.Query(ctx,
		store.WorkoutFilter{UserID: "u1", Group: "chest"},
		store.Page{Limit: 10, Page: 1},
	)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)

	w, err := s.Workouts.SetPicture(ctx, "u1", items[0].ID, "https://cdn/x.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/x.png", w.PictureURL)

	_, err = s.Workouts.SetPicture(ctx, "u2", items[0].ID, "https://cdn/y.png")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Workouts.FindByID(ctx, "u2", items[0].ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
