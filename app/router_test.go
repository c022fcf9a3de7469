package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fitlog/fitness-api/config"
	"fitlog/fitness-api/internal"
	"fitlog/fitness-api/internal/testutil"

	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memPictures struct {
	keys []string
}

func (m *memPictures) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	m.keys = append(m.keys, key)
	return "https://cdn.fitlog.app/" + key, nil
}

type testServer struct {
	router *gin.Engine
	deps   *internal.Deps
	mailer *testutil.Mailer
	pics   *memPictures
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.App{LogLevel: "error"},
		Host: config.Host{Port: 8080, CORS: []string{"http://localhost:3000"}, PublicURL: "https://fitlog.app"},
		JWT: config.JWT{
			Secret:                         "test-secret",
			AccessExpirationMinutes:        30,
			RefreshExpirationDays:          30,
			ResetPasswordExpirationMinutes: 10,
			VerifyEmailExpirationMinutes:   10,
			VerifyOTPExpirationMinutes:     10,
		},
		Security: config.Security{RateLimit: 1000, BodyLimit: 1 << 20},
		Workouts: config.Workouts{
			Groups:              []string{"chest", "back", "legs"},
			PictureMaxSize:      1 << 20,
			PictureAllowedTypes: []string{"image/png", "image/jpeg"},
		},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, testConfig())
}

func newTestServerWith(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	zap.ReplaceGlobals(zap.NewNop())

	mailer := &testutil.Mailer{}
	pics := &memPictures{}
	d := Assemble(cfg, testutil.NewTestStores(t), mailer, &testutil.Bridge{}, testutil.FastHasher(), pics)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	router, err := NewRouter(ctx, d, cfg)
	require.NoError(t, err)

	return &testServer{router: router, deps: d, mailer: mailer, pics: pics}
}

func (s *testServer) do(t *testing.T, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type authResponse struct {
	User struct {
		ID              string `json:"id"`
		Email           string `json:"email"`
		Name            string `json:"name"`
		IsEmailVerified bool   `json:"isEmailVerified"`
	} `json:"user"`
	Tokens struct {
		Access struct {
			Token   string    `json:"token"`
			Expires time.Time `json:"expires"`
		} `json:"access"`
		Refresh struct {
			Token string `json:"token"`
		} `json:"refresh"`
	} `json:"tokens"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestID"`
}

func TestHeartbeat(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodHead, "/v1/heartbeat", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = s.do(t, http.MethodGet, "/v1/heartbeat", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestAccountFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/auth/register", gin.H{
		"email":     "Runner@Fitlog.app",
		"password":  "Str0ng_pass",
		"firstName": "Ada",
		"lastName":  "Lovelace",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	reg := decode[authResponse](t, w)
	assert.Equal(t, "runner@fitlog.app", reg.User.Email)
	assert.Equal(t, "Ada Lovelace", reg.User.Name)
	assert.False(t, reg.User.IsEmailVerified)

	w = s.do(t, http.MethodPost, "/v1/auth/login", gin.H{"email": "runner@fitlog.app", "password": "Str0ng_pass"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "User not verified", decode[errorResponse](t, w).Error)

	sent := s.mailer.Last()
	require.Equal(t, "code", sent.Kind)
	require.Equal(t, "runner@fitlog.app", sent.To)

	w = s.do(t, http.MethodPost, "/v1/auth/verify-code", gin.H{"user_id": reg.User.ID, "code": sent.Value}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	verified := decode[authResponse](t, w)
	assert.True(t, verified.User.IsEmailVerified)
	assert.NotEmpty(t, verified.Tokens.Access.Token)

	w = s.do(t, http.MethodPost, "/v1/auth/login", gin.H{"email": "runner@fitlog.app", "password": "Str0ng_pass"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[authResponse](t, w)

	w = s.do(t, http.MethodPost, "/v1/auth/refresh-tokens", gin.H{"refreshToken": login.Tokens.Refresh.Token}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/v1/auth/refresh-tokens", gin.H{"refreshToken": login.Tokens.Refresh.Token}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code, "a refresh token works once")

	w = s.do(t, http.MethodPost, "/v1/auth/logout", gin.H{"refreshToken": verified.Tokens.Refresh.Token}, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodPost, "/v1/auth/logout", gin.H{"refreshToken": verified.Tokens.Refresh.Token}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body gin.H
		want string
	}{
		{"missing email", gin.H{"password": "Str0ng_pass"}, "email is required"},
		{"bad email", gin.H{"email": "nope", "password": "Str0ng_pass"}, "email must be a valid email"},
		{"display name email", gin.H{"email": "Runner <runner@fitlog.app>", "password": "Str0ng_pass"}, "email must be a valid email"},
		{"weak password", gin.H{"email": "a@b.com", "password": "weak"}, "password must be at least 8 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/v1/auth/register", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)

			res := decode[errorResponse](t, w)
			assert.Contains(t, res.Error, tt.want)
			assert.NotEmpty(t, res.RequestID)
		})
	}
}

func TestPasswordReset(t *testing.T) {
	s := newTestServer(t)
	testutil.NewTestUser(t, s.deps.Stores.Users, "lifter@fitlog.app", "Old_pass1", true)

	w := s.do(t, http.MethodPost, "/v1/auth/forgot-password", gin.H{"email": "lifter@fitlog.app"}, "")
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	sent := s.mailer.Last()
	require.Equal(t, "reset", sent.Kind)

	w = s.do(t, http.MethodPost, "/v1/auth/reset-password?token="+sent.Value, gin.H{"password": "New_pass1"}, "")
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/v1/auth/login", gin.H{"email": "lifter@fitlog.app", "password": "Old_pass1"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/v1/auth/login", gin.H{"email": "lifter@fitlog.app", "password": "New_pass1"}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/v1/auth/forgot-password", gin.H{"email": "ghost@fitlog.app"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerifyEmailLink(t *testing.T) {
	s := newTestServer(t)
	testutil.NewTestUser(t, s.deps.Stores.Users, "walker@fitlog.app", "Walk_pass1", true)

	w := s.do(t, http.MethodPost, "/v1/auth/login", gin.H{"email": "walker@fitlog.app", "password": "Walk_pass1"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[authResponse](t, w)

	w = s.do(t, http.MethodPost, "/v1/auth/send-verification-email", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/v1/auth/send-verification-email", nil, login.Tokens.Access.Token)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	sent := s.mailer.Last()
	require.Equal(t, "verify", sent.Kind)

	w = s.do(t, http.MethodPost, "/v1/auth/verify-email?token="+sent.Value, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[authResponse](t, w).User.IsEmailVerified)

	w = s.do(t, http.MethodPost, "/v1/auth/verify-email?token="+sent.Value, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code, "link tokens are single use")
}

func login(t *testing.T, s *testServer, email string) string {
	t.Helper()
	testutil.NewTestUser(t, s.deps.Stores.Users, email, "Lift_pass1", true)

	w := s.do(t, http.MethodPost, "/v1/auth/login", gin.H{"email": email, "password": "Lift_pass1"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[authResponse](t, w).Tokens.Access.Token
}

type workoutResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Group      string `json:"group"`
	PictureURL string `json:"pictureUrl"`
}

func TestWorkouts(t *testing.T) {
	s := newTestServer(t)
	access := login(t, s, "coach@fitlog.app")

	w := s.do(t, http.MethodGet, "/v1/workouts/groups", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"groups":["chest","back","legs"]}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/v1/workouts", gin.H{"name": "Squat", "group": "legs"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	for _, name := range []string{"Squat", "Deadlift", "Bench press"} {
		group := "legs"
		if name == "Bench press" {
			group = "chest"
		}

		w = s.do(t, http.MethodPost, "/v1/workouts", gin.H{"name": name, "group": group}, access)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodPost, "/v1/workouts", gin.H{"name": "Squat", "group": "legs"}, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Workout name already exist", decode[errorResponse](t, w).Error)

	w = s.do(t, http.MethodPost, "/v1/workouts", gin.H{"name": "Plank", "group": "abs"}, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/v1/workouts?group=legs&sortBy=name:asc&limit=1&page=2", nil, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	page := decode[struct {
		Results      []workoutResponse `json:"results"`
		Page         int               `json:"page"`
		Limit        int               `json:"limit"`
		TotalPages   int               `json:"totalPages"`
		TotalResults int64             `json:"totalResults"`
	}](t, w)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Squat", page.Results[0].Name)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.TotalPages)
	assert.EqualValues(t, 2, page.TotalResults)

	w = s.do(t, http.MethodGet, "/v1/workouts?sortBy=weight", nil, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/v1/workouts?page=9223372036854775807", nil, access)
	assert.Equal(t, http.StatusBadRequest, w.Code, "huge pages are refused instead of wrapping the offset")

	other := login(t, s, "other@fitlog.app")
	w = s.do(t, http.MethodGet, "/v1/workouts", nil, other)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"results":[]`)
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestWorkoutPicture(t *testing.T) {
	s := newTestServer(t)
	access := login(t, s, "coach@fitlog.app")

	w := s.do(t, http.MethodPost, "/v1/workouts", gin.H{"name": "Row", "group": "back"}, access)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[workoutResponse](t, w)
	assert.Equal(t, "https://fitlog.app/workouts/default_workout.png", created.PictureURL)

	upload := func(path string, content []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "row.png")
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPut, path, &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+access)

		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		return rec
	}

	w = upload("/v1/workouts/"+created.ID+"/picture", pngHeader)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[workoutResponse](t, w)
	assert.Contains(t, got.PictureURL, "https://cdn.fitlog.app/workouts/")
	assert.Len(t, s.pics.keys, 1)

	w = upload("/v1/workouts/"+created.ID+"/picture", []byte("plain text"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload("/v1/workouts/missing/picture", pngHeader)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewCacheStore(t *testing.T) {
	zap.ReplaceGlobals(zap.NewNop())

	_, ok := NewCacheStore(config.Cache{}).(*persist.MemoryStore)
	assert.True(t, ok, "no redis address keeps the cache in memory")

	_, ok = NewCacheStore(config.Cache{RedisAddr: "localhost:6379"}).(*persist.RedisStore)
	assert.True(t, ok)
}

func TestTurnstileGuardsMailingRoutes(t *testing.T) {
	verifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	t.Cleanup(verifier.Close)

	cfg := testConfig()
	cfg.Turnstile = config.Turnstile{Enabled: true, SecretToken: "secret", VerifyURL: verifier.URL}
	s := newTestServerWith(t, cfg)

	pending := testutil.NewTestUser(t, s.deps.Stores.Users, "pending@fitlog.app", "Pend_pass1", false)

	routes := []struct {
		path string
		body gin.H
	}{
		{"/v1/auth/register", gin.H{"email": "new@fitlog.app", "password": "Str0ng_pass"}},
		{"/v1/auth/forgot-password", gin.H{"email": "pending@fitlog.app"}},
		{"/v1/auth/resend-code", gin.H{"user_id": pending.ID}},
	}

	for _, rt := range routes {
		t.Run(rt.path, func(t *testing.T) {
			w := s.do(t, http.MethodPost, rt.path, rt.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code, "missing token")

			b, err := json.Marshal(rt.body)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, rt.path, bytes.NewReader(b))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("TurnstileToken", "bogus")

			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "rejected token")
		})
	}

	assert.Empty(t, s.mailer.Sent, "no mail leaves without a passing check")
}

func TestUsers(t *testing.T) {
	s := newTestServer(t)
	access := login(t, s, "member@fitlog.app")

	w := s.do(t, http.MethodGet, "/v1/users", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	for _, name := range []string{"Squat", "Row"} {
		w = s.do(t, http.MethodPost, "/v1/workouts", gin.H{"name": name, "group": "legs"}, access)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/v1/users", nil, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	me := decode[struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
		Workouts []workoutResponse `json:"workouts"`
	}](t, w)
	assert.Equal(t, "member@fitlog.app", me.User.Email)
	require.Len(t, me.Workouts, 2)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(t, http.MethodGet, "/v1/users/"+me.User.ID, nil, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	other := testutil.NewTestUser(t, s.deps.Stores.Users, "someone@fitlog.app", "Lift_pass1", true)
	w = s.do(t, http.MethodGet, "/v1/users/"+other.ID, nil, access)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPatch, "/v1/users/"+me.User.ID, gin.H{"name": "Member One", "pictureUrl": "https://cdn.fitlog.app/me.png"}, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"name":"Member One"`)

	w = s.do(t, http.MethodPatch, "/v1/users/"+me.User.ID, gin.H{}, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPatch, "/v1/users/"+me.User.ID, gin.H{"password": "weak"}, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPatch, "/v1/users/"+other.ID, gin.H{"name": "Hijacked"}, access)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPatch, "/v1/users/"+me.User.ID, gin.H{"password": "Changed_pass1"}, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/v1/auth/login", gin.H{"email": "member@fitlog.app", "password": "Changed_pass1"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
