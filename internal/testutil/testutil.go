// Package testutil provides test helpers and fakes.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"fitlog/fitness-api/internal/model"
	"fitlog/fitness-api/internal/oauth"
	"fitlog/fitness-api/internal/store"
	"fitlog/fitness-api/internal/store/gormstore"
	"fitlog/fitness-api/pkg/security"

	"github.com/stretchr/testify/require"
)

// NewTestStores opens an in-memory SQLite database and returns its stores.
func NewTestStores(t *testing.T) *store.Stores {
	t.Helper()
	db, err := gormstore.Open(":memory:")
	require.NoError(t, err)

	s := gormstore.New(db, 5*time.Second).Stores()
	t.Cleanup(func() {
		_ = s.Close(context.Background())
	})
	return s
}

// FastHasher is an argon2id hasher with parameters small enough for tests.
func FastHasher() *security.ArgonHash {
	return &security.ArgonHash{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// NewTestUser creates an email user with the given password.
func NewTestUser(t *testing.T, users store.UserStore, email, password string, verified bool) *model.User {
	t.Helper()
	hash, err := FastHasher().Hash(password)
	require.NoError(t, err)

	u, err := users.Create(context.Background(), &model.User{
		Email:           email,
		PasswordHash:    hash,
		Name:            "first last",
		Type:            model.UserTypeEmail,
		IsEmailVerified: verified,
		Rank:            model.RankBeginner,
	})
	require.NoError(t, err)
	return u
}

type Mail struct {
	Kind  string
	To    string
	Value string
}

// Mailer records every message instead of sending it.
type Mailer struct {
	mu   sync.Mutex
	Sent []Mail
}

func (m *Mailer) record(kind, to, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, Mail{Kind: kind, To: to, Value: value})
}

func (m *Mailer) SendVerificationCode(to, code string) { m.record("code", to, code) }

func (m *Mailer) SendResetPasswordEmail(to, token string) { m.record("reset", to, token) }

func (m *Mailer) SendVerificationEmail(to, token string) { m.record("verify", to, token) }

// Last returns the most recent message or a zero Mail.
func (m *Mailer) Last() Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return Mail{}
	}
	return m.Sent[len(m.Sent)-1]
}

// Bridge returns a fixed identity or error for any access token.
type Bridge struct {
	Info  *oauth.UserInfo
	Err   error
	Calls int
}

func (b *Bridge) FetchUserInfo(ctx context.Context, accessToken string) (*oauth.UserInfo, error) {
	b.Calls++
	if b.Err != nil {
		return nil, b.Err
	}
	return b.Info, nil
}
