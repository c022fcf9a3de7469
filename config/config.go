// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	validLogLevels      = []string{"debug", "info", "warn", "error", "fatal"}
	validStorageDrivers = []string{"sqlite", "postgres", "mongo"}
)

// keys are bound to environment variables of the same name in upper
// case with dots replaced by underscores, e.g. jwt.secret -> JWT_SECRET
var keys = []string{
	"app.log_level",

	"host.port",
	"host.cors",
	"host.public_url",

	"jwt.secret",
	"jwt.access_expiration_minutes",
	"jwt.refresh_expiration_days",
	"jwt.reset_password_expiration_minutes",
	"jwt.verify_email_expiration_minutes",
	"jwt.verify_otp_expiration_minutes",

	"storage.driver",
	"storage.sqlite_path",
	"storage.postgres_dsn",
	"storage.mongo_uri",
	"storage.mongo_database",
	"storage.timeout",
	"storage.cleanup_interval",

	"cache.redis_addr",
	"cache.redis_password",
	"cache.redis_db",

	"mail.host",
	"mail.port",
	"mail.username",
	"mail.password",
	"mail.from",

	"oauth.google_userinfo_url",
	"oauth.timeout",

	"security.rate_limit",
	"security.body_limit",

	"turnstile.enabled",
	"turnstile.secret_token",
	"turnstile.verify_url",

	"s3.enabled",
	"s3.access_key_id",
	"s3.secret_access_key",
	"s3.region",
	"s3.bucket",
	"s3.endpoint",
	"s3.public_url",

	"workouts.groups",
	"workouts.picture_max_size",
	"workouts.picture_allowed_types",
}

type Config struct {
	App       App       `mapstructure:"app"`
	Host      Host      `mapstructure:"host"`
	JWT       JWT       `mapstructure:"jwt"`
	Storage   Storage   `mapstructure:"storage"`
	Cache     Cache     `mapstructure:"cache"`
	Mail      Mail      `mapstructure:"mail"`
	OAuth     OAuth     `mapstructure:"oauth"`
	Security  Security  `mapstructure:"security"`
	Turnstile Turnstile `mapstructure:"turnstile"`
	S3        S3        `mapstructure:"s3"`
	Workouts  Workouts  `mapstructure:"workouts"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
}

type Host struct {
	Port      int      `mapstructure:"port"`
	CORS      []string `mapstructure:"cors"`
	PublicURL string   `mapstructure:"public_url"`
}

type JWT struct {
	Secret                         string `mapstructure:"secret"`
	AccessExpirationMinutes        int    `mapstructure:"access_expiration_minutes"`
	RefreshExpirationDays          int    `mapstructure:"refresh_expiration_days"`
	ResetPasswordExpirationMinutes int    `mapstructure:"reset_password_expiration_minutes"`
	VerifyEmailExpirationMinutes   int    `mapstructure:"verify_email_expiration_minutes"`
	VerifyOTPExpirationMinutes     int    `mapstructure:"verify_otp_expiration_minutes"`
}

func (j JWT) AccessTTL() time.Duration {
	return time.Duration(j.AccessExpirationMinutes) * time.Minute
}

func (j JWT) RefreshTTL() time.Duration {
	return time.Duration(j.RefreshExpirationDays) * 24 * time.Hour
}

func (j JWT) ResetPasswordTTL() time.Duration {
	return time.Duration(j.ResetPasswordExpirationMinutes) * time.Minute
}

func (j JWT) VerifyEmailTTL() time.Duration {
	return time.Duration(j.VerifyEmailExpirationMinutes) * time.Minute
}

func (j JWT) VerifyOTPTTL() time.Duration {
	return time.Duration(j.VerifyOTPExpirationMinutes) * time.Minute
}

type Storage struct {
	Driver          string        `mapstructure:"driver"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	PostgresDSN     string        `mapstructure:"postgres_dsn"`
	MongoURI        string        `mapstructure:"mongo_uri"`
	MongoDatabase   string        `mapstructure:"mongo_database"`
	Timeout         time.Duration `mapstructure:"timeout"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// Cache configures the response cache. An empty RedisAddr keeps it in memory.
type Cache struct {
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

type Mail struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type OAuth struct {
	GoogleUserInfoURL string        `mapstructure:"google_userinfo_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

type Security struct {
	RateLimit int `mapstructure:"rate_limit"`
	// BodyLimit is in bytes
	BodyLimit int64 `mapstructure:"body_limit"`
}

type Turnstile struct {
	Enabled     bool   `mapstructure:"enabled"`
	SecretToken string `mapstructure:"secret_token"`
	VerifyURL   string `mapstructure:"verify_url"`
}

type S3 struct {
	Enabled         bool   `mapstructure:"enabled"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Endpoint        string `mapstructure:"endpoint"`
	PublicURL       string `mapstructure:"public_url"`
}

type Workouts struct {
	Groups []string `mapstructure:"groups"`
	// PictureMaxSize is in bytes
	PictureMaxSize      int64    `mapstructure:"picture_max_size"`
	PictureAllowedTypes []string `mapstructure:"picture_allowed_types"`
}

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. args are the command line arguments without the
// program name. Function will return an error if something
// is critically wrong and the application can't run because of
// that. Warnings are returned separately so they can be logged
// once the logger exists.
func Setup(args []string) (warnings []string, err error) {
	v.Reset()

	fs := pflag.NewFlagSet("fitness-api", pflag.ContinueOnError)
	configPath := fs.String("config", "", "Path to the config file. Defaults to ./config.toml")
	fs.Int("port", 8080, "Port to listen on")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	v.BindPFlag("host.port", fs.Lookup("port"))

	if *configPath != "" {
		v.SetConfigFile(*configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	//
	// ENVS
	//
	for _, k := range keys {
		v.BindEnv(k, strings.ToUpper(strings.ReplaceAll(k, ".", "_")))
	}

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.cors", []string{"http://localhost:3000"})
	v.SetDefault("host.public_url", "http://localhost:8080")

	v.SetDefault("jwt.access_expiration_minutes", 30)
	v.SetDefault("jwt.refresh_expiration_days", 30)
	v.SetDefault("jwt.reset_password_expiration_minutes", 10)
	v.SetDefault("jwt.verify_email_expiration_minutes", 10)
	v.SetDefault("jwt.verify_otp_expiration_minutes", 10)

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite_path", "fitness.db")
	v.SetDefault("storage.mongo_database", "fitness")
	v.SetDefault("storage.timeout", 5*time.Second)
	v.SetDefault("storage.cleanup_interval", 24*time.Hour)

	v.SetDefault("mail.port", 587)

	v.SetDefault("oauth.timeout", 5*time.Second)

	v.SetDefault("security.rate_limit", 10)
	v.SetDefault("security.body_limit", 1<<20)

	v.SetDefault("turnstile.enabled", false)
	v.SetDefault("turnstile.verify_url", "https://challenges.cloudflare.com/turnstile/v0/siteverify")

	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.region", "us-east-1")

	v.SetDefault("workouts.groups", []string{"chest", "back", "shoulders", "arms", "legs", "core", "cardio"})
	v.SetDefault("workouts.picture_max_size", 5<<20)
	v.SetDefault("workouts.picture_allowed_types", []string{"image/png", "image/jpeg", "image/webp"})

	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || *configPath != "" {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}

		warnings = append(warnings, "No config.toml found, using defaults and environment variables")
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return nil, errors.New("invalid log level provided")
	}

	if v.GetString("jwt.secret") == "" {
		return nil, fmt.Errorf("jwt.secret is not set. Set it in config.toml or as JWT_SECRET, here's a random one:\n\n%s", genSecret())
	}

	for _, k := range []string{
		"jwt.access_expiration_minutes",
		"jwt.refresh_expiration_days",
		"jwt.reset_password_expiration_minutes",
		"jwt.verify_email_expiration_minutes",
		"jwt.verify_otp_expiration_minutes",
	} {
		if v.GetInt(k) <= 0 {
			return nil, fmt.Errorf("%s must be bigger than 0", k)
		}
	}

	switch v.GetString("storage.driver") {
	case "sqlite":
		if v.GetString("storage.sqlite_path") == "" {
			return nil, errors.New("sqlite path can't be empty")
		}
	case "postgres":
		if v.GetString("storage.postgres_dsn") == "" {
			return nil, errors.New("postgres dsn can't be empty")
		}
	case "mongo":
		if v.GetString("storage.mongo_uri") == "" {
			return nil, errors.New("mongo uri can't be empty")
		}
		if v.GetString("storage.mongo_database") == "" {
			return nil, errors.New("mongo database can't be empty")
		}
	default:
		return nil, fmt.Errorf("invalid storage driver provided, must be one of %v", validStorageDrivers)
	}

	if v.GetDuration("storage.timeout") <= 0 {
		return nil, errors.New("storage timeout must be bigger than 0")
	}

	if v.GetDuration("oauth.timeout") <= 0 {
		return nil, errors.New("oauth timeout must be bigger than 0")
	}

	if v.GetInt("security.rate_limit") <= 0 {
		return nil, errors.New("rate limit must be bigger than 0")
	}

	if v.GetString("mail.host") == "" {
		warnings = append(warnings, "No mail.host set, emails will only be logged")
	} else if v.GetString("mail.from") == "" {
		return nil, errors.New("mail.from can't be empty when mail.host is set")
	}

	if !v.GetBool("turnstile.enabled") {
		warnings = append(warnings, "Cloudflare's turnstile is disabled. Some public endpoints won't be guarded against bots")
	} else if v.GetString("turnstile.secret_token") == "" {
		return nil, errors.New("turnstile secret token is missing")
	}

	if v.GetBool("s3.enabled") {
		if v.GetString("s3.access_key_id") == "" {
			return nil, errors.New("access key id can't be empty")
		}
		if v.GetString("s3.secret_access_key") == "" {
			return nil, errors.New("secret access key can't be empty")
		}
		if v.GetString("s3.bucket") == "" {
			return nil, errors.New("bucket can't be empty")
		}
	} else {
		warnings = append(warnings, "S3 is disabled, workout picture uploads are turned off")
	}

	if len(v.GetStringSlice("workouts.groups")) == 0 {
		return nil, errors.New("at least one workout group is required")
	}

	if v.GetInt64("workouts.picture_max_size") <= 0 {
		return nil, errors.New("max picture size must be bigger than 0")
	}

	return warnings, nil
}

// Load returns the values read by Setup
func Load() (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to decode config, %w", err)
	}

	// env values arrive as a single comma separated string
	c.Host.CORS = splitList(c.Host.CORS)
	c.Workouts.Groups = splitList(c.Workouts.Groups)
	c.Workouts.PictureAllowedTypes = splitList(c.Workouts.PictureAllowedTypes)

	return &c, nil
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
