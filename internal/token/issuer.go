// Package token mints, persists and verifies the tokens used by the auth flows
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitlog/fitness-api/internal/apperr"
	"fitlog/fitness-api/internal/model"
	"fitlog/fitness-api/internal/oauth"
	"fitlog/fitness-api/internal/store"
	"fitlog/fitness-api/pkg/security"

	"github.com/golang-jwt/jwt/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var ErrWrongKind = errors.New("token kind mismatch")

type Config struct {
	Secret           []byte
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	ResetPasswordTTL time.Duration
	VerifyEmailTTL   time.Duration
	VerifyOTPTTL     time.Duration
}

type claims struct {
	jwt.RegisteredClaims
	Type model.TokenKind `json:"type"`
}

type Signed struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type Pair struct {
	Access  Signed `json:"access"`
	Refresh Signed `json:"refresh"`
}

type Issuer struct {
	cfg    Config
	tokens store.TokenStore
	bridge oauth.Bridge
	now    func() time.Time
}

func NewIssuer(cfg Config, tokens store.TokenStore, bridge oauth.Bridge) *Issuer {
	return &Issuer{
		cfg:    cfg,
		tokens: tokens,
		bridge: bridge,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// TTL returns the configured lifetime of kind
func (i *Issuer) TTL(kind model.TokenKind) time.Duration {
	switch kind {
	case model.TokenAccess:
		return i.cfg.AccessTTL
	case model.TokenRefresh:
		return i.cfg.RefreshTTL
	case model.TokenResetPassword:
		return i.cfg.ResetPasswordTTL
	case model.TokenVerifyEmail:
		return i.cfg.VerifyEmailTTL
	case model.TokenVerifyOTP:
		return i.cfg.VerifyOTPTTL
	default:
		return 0
	}
}

// Issue signs a token for userID with the configured secret
func (i *Issuer) Issue(userID string, kind model.TokenKind, expiresAt time.Time) (string, error) {
	return i.IssueWithSecret(userID, kind, expiresAt, i.cfg.Secret)
}

func (i *Issuer) IssueWithSecret(userID string, kind model.TokenKind, expiresAt time.Time, secret []byte) (string, error) {
	jti, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate token id, %w", err)
	}

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(i.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Type: kind,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}

func (i *Issuer) Persist(ctx context.Context, value, userID string, kind model.TokenKind, expiresAt time.Time, blacklisted bool) (*model.Token, error) {
	t, err := i.tokens.Create(ctx, &model.Token{
		Value:       value,
		UserID:      userID,
		Kind:        kind,
		ExpiresAt:   expiresAt,
		Blacklisted: blacklisted,
	})
	if err != nil {
		return nil, apperr.FromStore(err, apperr.CauseUnknown, "Failed to save token")
	}

	return t, nil
}

// IssueStored signs a token of kind with its configured lifetime and persists it
func (i *Issuer) IssueStored(ctx context.Context, userID string, kind model.TokenKind) (*Signed, error) {
	expires := i.now().Add(i.TTL(kind))

	value, err := i.Issue(userID, kind, expires)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if _, err := i.Persist(ctx, value, userID, kind, expires, false); err != nil {
		return nil, err
	}

	return &Signed{Token: value, Expires: expires}, nil
}

func (i *Issuer) parse(value string, kind model.TokenKind) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(value, &c,
		func(t *jwt.Token) (any, error) { return i.cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	if c.Type != kind {
		return nil, fmt.Errorf("%w, want %s got %s", ErrWrongKind, kind, c.Type)
	}

	if c.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	return &c, nil
}

// VerifySigned checks the signature, expiry and kind of value and returns the
// matching stored row
func (i *Issuer) VerifySigned(ctx context.Context, value string, kind model.TokenKind) (*model.Token, error) {
	c, err := i.parse(value, kind)
	if err != nil {
		return nil, apperr.Wrap(apperr.CauseInvalidToken, "Invalid token", err)
	}

	t, err := i.tokens.FindOne(ctx, store.TokenFilter{
		Value:  value,
		Kind:   kind,
		UserID: c.Subject,
	})
	if err != nil {
		return nil, apperr.FromStore(err, apperr.CauseTokenNotFound, "Token not found")
	}

	return t, nil
}

// VerifyOpaqueCode finds the unexpired row holding code for userID
func (i *Issuer) VerifyOpaqueCode(ctx context.Context, userID, code string, kind model.TokenKind) (*model.Token, error) {
	t, err := i.tokens.FindOne(ctx, store.TokenFilter{
		Value:   code,
		Kind:    kind,
		UserID:  userID,
		ValidAt: i.now(),
	})
	if err != nil {
		return nil, apperr.FromStore(err, apperr.CauseTokenNotFound, "Invalid code")
	}

	return t, nil
}

// VerifyAccess checks an access token without touching the store and
// returns its subject
func (i *Issuer) VerifyAccess(value string) (string, error) {
	c, err := i.parse(value, model.TokenAccess)
	if err != nil {
		return "", apperr.Wrap(apperr.CauseInvalidToken, "Please authenticate", err)
	}

	return c.Subject, nil
}

// IssueAuthPair returns a fresh access token and a persisted refresh token
func (i *Issuer) IssueAuthPair(ctx context.Context, user *model.User) (*Pair, error) {
	now := i.now()

	accessExp := now.Add(i.cfg.AccessTTL)
	access, err := i.Issue(user.ID, model.TokenAccess, accessExp)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	refreshExp := now.Add(i.cfg.RefreshTTL)
	refresh, err := i.Issue(user.ID, model.TokenRefresh, refreshExp)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if _, err := i.Persist(ctx, refresh, user.ID, model.TokenRefresh, refreshExp, false); err != nil {
		return nil, err
	}

	return &Pair{
		Access:  Signed{Token: access, Expires: accessExp},
		Refresh: Signed{Token: refresh, Expires: refreshExp},
	}, nil
}

// IssueOTP generates a verification code for user. An existing code row is
// overwritten so every user has at most one.
func (i *Issuer) IssueOTP(ctx context.Context, user *model.User) (string, error) {
	code, err := security.NewOTP()
	if err != nil {
		return "", apperr.Internal(err)
	}

	expires := i.now().Add(i.cfg.VerifyOTPTTL)

	_, err = i.tokens.FindByOwner(ctx, user.ID, model.TokenVerifyOTP)
	switch {
	case err == nil:
		err = i.tokens.UpdateValue(ctx, user.ID, model.TokenVerifyOTP, code, expires)
		if err == nil {
			return code, nil
		}
		// consumed in between, insert a new row instead
		if !errors.Is(err, store.ErrNotFound) {
			return "", apperr.FromStore(err, apperr.CauseUnknown, "Failed to update code")
		}
	case !errors.Is(err, store.ErrNotFound):
		return "", apperr.FromStore(err, apperr.CauseUnknown, "Failed to look up code")
	}

	if _, err := i.Persist(ctx, code, user.ID, model.TokenVerifyOTP, expires, false); err != nil {
		return "", err
	}

	return code, nil
}

// FetchExternalIdentity asks the identity provider who owns accessToken
func (i *Issuer) FetchExternalIdentity(ctx context.Context, accessToken string) (*oauth.UserInfo, error) {
	info, err := i.bridge.FetchUserInfo(ctx, accessToken)
	if err != nil {
		if errors.Is(err, oauth.ErrUnavailable) {
			return nil, apperr.Wrap(apperr.CauseProviderUnavailable, "Identity provider unavailable, please try again", err)
		}
		return nil, apperr.Wrap(apperr.CauseProviderRejected, "Failed to verify Google token", err)
	}

	return info, nil
}
