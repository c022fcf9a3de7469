package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	warnings, err := Setup(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, warnings)

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", c.App.LogLevel)
	assert.Equal(t, 8080, c.Host.Port)
	assert.Equal(t, "sqlite", c.Storage.Driver)
	assert.Equal(t, 5*time.Second, c.Storage.Timeout)
	assert.Equal(t, 30*time.Minute, c.JWT.AccessTTL())
	assert.Equal(t, 30*24*time.Hour, c.JWT.RefreshTTL())
	assert.Equal(t, 10*time.Minute, c.JWT.VerifyOTPTTL())
	assert.Contains(t, c.Workouts.Groups, "legs")
}

func TestSetupEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_ACCESS_EXPIRATION_MINUTES", "5")
	t.Setenv("STORAGE_TIMEOUT", "2s")
	t.Setenv("WORKOUTS_GROUPS", "push, pull,legs")
	t.Setenv("HOST_CORS", "https://a.app,https://b.app")

	_, err := Setup([]string{"--port", "9000"})
	require.NoError(t, err)

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, c.Host.Port)
	assert.Equal(t, 5*time.Minute, c.JWT.AccessTTL())
	assert.Equal(t, 2*time.Second, c.Storage.Timeout)
	assert.Equal(t, []string{"push", "pull", "legs"}, c.Workouts.Groups)
	assert.Equal(t, []string{"https://a.app", "https://b.app"}, c.Host.CORS)
}

func TestSetupConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fitness.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[jwt]
secret = "from-file"
refresh_expiration_days = 7

[storage]
driver = "mongo"
mongo_uri = "mongodb://localhost:27017"
`), 0o600))

	_, err := Setup([]string{"--config", path})
	require.NoError(t, err)

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", c.JWT.Secret)
	assert.Equal(t, 7*24*time.Hour, c.JWT.RefreshTTL())
	assert.Equal(t, "mongo", c.Storage.Driver)
	assert.Equal(t, "fitness", c.Storage.MongoDatabase)
}

func TestSetupErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"missing secret", map[string]string{}, nil},
		{"bad log level", map[string]string{"JWT_SECRET": "s", "APP_LOG_LEVEL": "loud"}, nil},
		{"bad driver", map[string]string{"JWT_SECRET": "s", "STORAGE_DRIVER": "oracle"}, nil},
		{"postgres without dsn", map[string]string{"JWT_SECRET": "s", "STORAGE_DRIVER": "postgres"}, nil},
		{"mongo without uri", map[string]string{"JWT_SECRET": "s", "STORAGE_DRIVER": "mongo"}, nil},
		{"zero ttl", map[string]string{"JWT_SECRET": "s", "JWT_VERIFY_OTP_EXPIRATION_MINUTES": "0"}, nil},
		{"turnstile without secret", map[string]string{"JWT_SECRET": "s", "TURNSTILE_ENABLED": "true"}, nil},
		{"s3 without bucket", map[string]string{"JWT_SECRET": "s", "S3_ENABLED": "true", "S3_ACCESS_KEY_ID": "a", "S3_SECRET_ACCESS_KEY": "b"}, nil},
		{"mail without sender", map[string]string{"JWT_SECRET": "s", "MAIL_HOST": "smtp.example.com"}, nil},
		{"missing config file", map[string]string{"JWT_SECRET": "s"}, []string{"--config", "/does/not/exist.toml"}},
		{"unknown flag", map[string]string{"JWT_SECRET": "s"}, []string{"--nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, val := range tt.env {
				t.Setenv(k, val)
			}

			_, err := Setup(tt.args)
			assert.Error(t, err)
		})
	}
}
