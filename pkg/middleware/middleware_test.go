package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"fitlog/fitness-api/internal/model"
	"fitlog/fitness-api/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier map[string]string

func (f fakeVerifier) VerifyAccess(token string) (string, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return "", errors.New("invalid token")
}

type fakeUsers struct {
	users map[string]*model.User
	err   error
}

func (f fakeUsers) FindByID(ctx context.Context, id string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func newJWTRouter(users fakeUsers) *gin.Engine {
	r := gin.New()
	r.Use(NewRequestIDMiddleware())
	r.GET("/me",
		NewJWTMiddleware(fakeVerifier{"good": "u1", "ghost": "u2"}, users),
		func(c *gin.Context) {
			u := c.MustGet("user").(*model.User)
			c.String(http.StatusOK, c.GetString("userID")+":"+u.Email)
		},
	)
	return r
}

func TestJWTMiddleware(t *testing.T) {
	users := fakeUsers{users: map[string]*model.User{"u1": {ID: "u1", Email: "jane@example.com"}}}
	r := newJWTRouter(users)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer good", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"invalid token", "Bearer bad", http.StatusUnauthorized},
		{"deleted user", "Bearer ghost", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "u1:jane@example.com", w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), "requestID")
			}
		})
	}
}

func TestJWTMiddlewareStoreDown(t *testing.T) {
	r := newJWTRouter(fakeUsers{err: fmt.Errorf("%w, timeout", store.ErrIO)})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestIDHeader(t *testing.T) {
	r := gin.New()
	r.Use(NewRequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("requestID")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Len(t, w.Body.String(), 10)
	assert.Equal(t, w.Body.String(), w.Header().Get(requestIDHeader))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, Burst: 2})

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestBodySizeLimiter(t *testing.T) {
	r := gin.New()
	r.POST("/", BodySizeLimiter(8), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123")))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTurnstile(t *testing.T) {
	var success atomic.Bool
	success.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"success": %t, "error-codes": []}`, success.Load())
	}))
	defer srv.Close()

	r := gin.New()
	r.POST("/", NewTurnstileMiddleware(TurnstileConfig{Enabled: true, SecretToken: "s", VerifyURL: srv.URL}),
		func(c *gin.Context) { c.Status(http.StatusNoContent) })

	send := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if token != "" {
			req.Header.Set("TurnstileToken", token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusNoContent, send("tok"))
	assert.Equal(t, http.StatusBadRequest, send(""))

	success.Store(false)
	assert.Equal(t, http.StatusUnauthorized, send("tok"))
}

func TestTurnstileDisabled(t *testing.T) {
	r := gin.New()
	r.POST("/", NewTurnstileMiddleware(TurnstileConfig{}), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
