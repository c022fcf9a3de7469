package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserInfoServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchUserInfo(t *testing.T) {
	srv := newUserInfoServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer good-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"email":"jane@example.com","email_verified":true,"name":"Jane Doe","given_name":"Jane","family_name":"Doe","picture":"https://pic"}`))
	})

	info, err := NewGoogle(srv.URL, time.Second).FetchUserInfo(context.Background(), "good-token")
	require.NoError(t, err)

	assert.Equal(t, &UserInfo{
		Email:         "jane@example.com",
		EmailVerified: true,
		Name:          "Jane Doe",
		GivenName:     "Jane",
		FamilyName:    "Doe",
		Picture:       "https://pic",
	}, info)
}

func TestFetchUserInfoRejected(t *testing.T) {
	srv := newUserInfoServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := NewGoogle(srv.URL, time.Second).FetchUserInfo(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrRejected)
}

func TestFetchUserInfoEmptyToken(t *testing.T) {
	_, err := NewGoogle("http://127.0.0.1:1", time.Second).FetchUserInfo(context.Background(), "")
	assert.ErrorIs(t, err, ErrRejected)
}

func TestFetchUserInfoNoEmail(t *testing.T) {
	srv := newUserInfoServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"x"}`))
	})

	_, err := NewGoogle(srv.URL, time.Second).FetchUserInfo(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrRejected)
}

func TestFetchUserInfoTimeout(t *testing.T) {
	srv := newUserInfoServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	_, err := NewGoogle(srv.URL, 50*time.Millisecond).FetchUserInfo(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchUserInfoServerError(t *testing.T) {
	for _, status := range []int{http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable} {
		srv := newUserInfoServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		_, err := NewGoogle(srv.URL, time.Second).FetchUserInfo(context.Background(), "tok")
		assert.ErrorIs(t, err, ErrRejected, "status %d", status)
		assert.NotErrorIs(t, err, ErrUnavailable, "status %d", status)
	}
}
