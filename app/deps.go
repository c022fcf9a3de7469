package app

import (
	"context"
	"fmt"

	"fitlog/fitness-api/aws"
	"fitlog/fitness-api/config"
	"fitlog/fitness-api/db"
	"fitlog/fitness-api/internal"
	"fitlog/fitness-api/internal/auth"
	"fitlog/fitness-api/internal/mail"
	"fitlog/fitness-api/internal/oauth"
	"fitlog/fitness-api/internal/store"
	"fitlog/fitness-api/internal/token"
	"fitlog/fitness-api/internal/workout"
	"fitlog/fitness-api/pkg/security"

	"go.uber.org/zap"
)

// NewDeps connects to the configured backends and builds the services
func NewDeps(ctx context.Context, cfg *config.Config) (*internal.Deps, error) {
	stores, err := db.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage, %w", err)
	}

	var mailer mail.Sender = mail.Log{}
	if cfg.Mail.Host != "" {
		mailer = mail.NewSMTP(mail.Config{
			Host:      cfg.Mail.Host,
			Port:      cfg.Mail.Port,
			Username:  cfg.Mail.Username,
			Password:  cfg.Mail.Password,
			From:      cfg.Mail.From,
			PublicURL: cfg.Host.PublicURL,
		})
	}

	var pictures workout.PictureStore
	if cfg.S3.Enabled {
		s3, err := aws.NewS3(ctx, aws.S3Config{
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Endpoint:        cfg.S3.Endpoint,
			PublicURL:       cfg.S3.PublicURL,
		})
		if err != nil {
			stores.Close(ctx)
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}

		pictures = s3
		zap.L().Info("S3 picture storage enabled", zap.String("bucket", cfg.S3.Bucket))
	}

	bridge := oauth.NewGoogle(cfg.OAuth.GoogleUserInfoURL, cfg.OAuth.Timeout)

	return Assemble(cfg, stores, mailer, bridge, security.NewArgon(), pictures), nil
}

// Assemble wires the services on top of already opened stores
func Assemble(cfg *config.Config, stores *store.Stores, mailer mail.Sender, bridge oauth.Bridge, hasher security.PasswordHasher, pictures workout.PictureStore) *internal.Deps {
	issuer := token.NewIssuer(token.Config{
		Secret:           []byte(cfg.JWT.Secret),
		AccessTTL:        cfg.JWT.AccessTTL(),
		RefreshTTL:       cfg.JWT.RefreshTTL(),
		ResetPasswordTTL: cfg.JWT.ResetPasswordTTL(),
		VerifyEmailTTL:   cfg.JWT.VerifyEmailTTL(),
		VerifyOTPTTL:     cfg.JWT.VerifyOTPTTL(),
	}, stores.Tokens, bridge)

	return &internal.Deps{
		Stores: stores,
		Issuer: issuer,
		Mailer: mailer,
		Auth:   auth.NewService(stores.Users, stores.Tokens, issuer, hasher, mailer, cfg.Host.PublicURL),
		Workouts: workout.NewService(stores.Workouts, pictures, workout.Config{
			Groups:              cfg.Workouts.Groups,
			PublicURL:           cfg.Host.PublicURL,
			MaxPictureSize:      cfg.Workouts.PictureMaxSize,
			AllowedPictureTypes: cfg.Workouts.PictureAllowedTypes,
		}),
	}
}
