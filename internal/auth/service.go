// Package auth implements the account flows: registration, login, token
// rotation, password reset, email verification and Google sign in.
//
// Every flow reports its failures as one kind. The underlying cause stays in
// the error chain for logging, store I/O errors are passed through untouched
// so callers can tell a retryable failure apart.
package auth

import (
	"context"
	"errors"
	"strings"

	"fitlog/fitness-api/internal/apperr"
	"fitlog/fitness-api/internal/mail"
	"fitlog/fitness-api/internal/model"
	"fitlog/fitness-api/internal/store"
	"fitlog/fitness-api/internal/token"
	"fitlog/fitness-api/pkg/security"

	"go.uber.org/zap"
)

const (
	msgBadCredentials      = "Incorrect email or password"
	msgUnverified          = "User not verified"
	msgNotFound            = "Not found"
	msgPleaseAuthenticate  = "Please authenticate"
	msgResetFailed         = "Password reset failed"
	msgEmailVerifyFailed   = "Email verification failed"
	msgUserVerifyFailed    = "User verification failed"
	msgEmailNotFound       = "No users found with this email"
	msgEmailTaken          = "Email already taken"
	msgUserNotFound        = "User not found"
	msgUserAlreadyVerified = "User already verified"
	defaultUserPicturePath = "/user/default_user.png"
)

type Service struct {
	users     store.UserStore
	tokens    store.TokenStore
	issuer    *token.Issuer
	hasher    security.PasswordHasher
	mailer    mail.Sender
	publicURL string
}

func NewService(users store.UserStore, tokens store.TokenStore, issuer *token.Issuer, hasher security.PasswordHasher, mailer mail.Sender, publicURL string) *Service {
	return &Service{
		users:     users,
		tokens:    tokens,
		issuer:    issuer,
		hasher:    hasher,
		mailer:    mailer,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

// collapse reports err as cause unless it is a store I/O failure
func collapse(err error, cause apperr.Cause, msg string) error {
	if apperr.KindOf(err) == apperr.KindStoreIO {
		return err
	}
	return apperr.Wrap(cause, msg, err)
}

// Login returns the verified user owning email and password
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperr.FromStore(err, apperr.CauseBadCredentials, msgBadCredentials)
	}

	ok, err := s.hasher.Matches(u.PasswordHash, password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if !ok {
		return nil, apperr.New(apperr.CauseBadCredentials, msgBadCredentials)
	}

	if !u.IsEmailVerified {
		return nil, apperr.New(apperr.CauseUnverified, msgUnverified)
	}

	return u, nil
}

// IssueAuthPair returns a new access and refresh token for u
func (s *Service) IssueAuthPair(ctx context.Context, u *model.User) (*token.Pair, error) {
	return s.issuer.IssueAuthPair(ctx, u)
}

// Logout removes the refresh token so it can't be used again
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	row, err := s.tokens.FindOne(ctx, store.TokenFilter{
		Value: refreshToken,
		Kind:  model.TokenRefresh,
	})
	if err != nil {
		return apperr.FromStore(err, apperr.CauseRefreshTokenNotFound, msgNotFound)
	}

	if err := s.tokens.DeleteOne(ctx, row.ID); err != nil {
		return apperr.FromStore(err, apperr.CauseRefreshTokenNotFound, msgNotFound)
	}

	return nil
}

// Refresh consumes refreshToken and returns a new pair. A refresh token
// works exactly once.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	pair, err := s.refresh(ctx, refreshToken)
	if err != nil {
		return nil, collapse(err, apperr.CauseVerificationFailed, msgPleaseAuthenticate)
	}

	return pair, nil
}

func (s *Service) refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	row, err := s.issuer.VerifySigned(ctx, refreshToken, model.TokenRefresh)
	if err != nil {
		return nil, err
	}

	u, err := s.owner(ctx, row)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.DeleteOne(ctx, row.ID); err != nil {
		return nil, apperr.FromStore(err, apperr.CauseTokenNotFound, "Token already used")
	}

	return s.issuer.IssueAuthPair(ctx, u)
}

// ForgotPassword mails a reset password token to the owner of email
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return apperr.FromStore(err, apperr.CauseEmailNotFound, msgEmailNotFound)
	}

	tok, err := s.issuer.IssueStored(ctx, u.ID, model.TokenResetPassword)
	if err != nil {
		return err
	}

	s.mailer.SendResetPasswordEmail(u.Email, tok.Token)
	return nil
}

// ResetPassword sets a new password for the owner of resetToken and
// invalidates every reset token they hold
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if err := s.resetPassword(ctx, resetToken, newPassword); err != nil {
		return collapse(err, apperr.CauseVerificationFailed, msgResetFailed)
	}

	return nil
}

func (s *Service) resetPassword(ctx context.Context, resetToken, newPassword string) error {
	row, err := s.issuer.VerifySigned(ctx, resetToken, model.TokenResetPassword)
	if err != nil {
		return err
	}

	u, err := s.owner(ctx, row)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}

	if err := s.consume(ctx, u.ID, model.TokenResetPassword); err != nil {
		return err
	}

	if _, err := s.users.Update(ctx, u.ID, store.UserUpdate{PasswordHash: &hash}); err != nil {
		return apperr.FromStore(err, apperr.CauseOwnerNotFound, msgUserNotFound)
	}

	return nil
}

// SendVerificationEmail mails a verify email link to an authenticated user
func (s *Service) SendVerificationEmail(ctx context.Context, u *model.User) error {
	tok, err := s.issuer.IssueStored(ctx, u.ID, model.TokenVerifyEmail)
	if err != nil {
		return err
	}

	s.mailer.SendVerificationEmail(u.Email, tok.Token)
	return nil
}

// VerifyEmail marks the owner of verifyToken as verified
func (s *Service) VerifyEmail(ctx context.Context, verifyToken string) (*model.User, error) {
	u, err := s.verifyEmail(ctx, verifyToken)
	if err != nil {
		return nil, collapse(err, apperr.CauseVerificationFailed, msgEmailVerifyFailed)
	}

	return u, nil
}

func (s *Service) verifyEmail(ctx context.Context, verifyToken string) (*model.User, error) {
	row, err := s.issuer.VerifySigned(ctx, verifyToken, model.TokenVerifyEmail)
	if err != nil {
		return nil, err
	}

	u, err := s.owner(ctx, row)
	if err != nil {
		return nil, err
	}

	if err := s.consume(ctx, u.ID, model.TokenVerifyEmail); err != nil {
		return nil, err
	}

	return s.markVerified(ctx, u.ID)
}

// VerifyCode checks the one time code mailed to userID, marks them verified
// and logs them in
func (s *Service) VerifyCode(ctx context.Context, userID, code string) (*model.User, *token.Pair, error) {
	u, pair, err := s.verifyCode(ctx, userID, code)
	if err != nil {
		return nil, nil, collapse(err, apperr.CauseVerificationFailed, msgUserVerifyFailed)
	}

	return u, pair, nil
}

func (s *Service) verifyCode(ctx context.Context, userID, code string) (*model.User, *token.Pair, error) {
	row, err := s.issuer.VerifyOpaqueCode(ctx, userID, code, model.TokenVerifyOTP)
	if err != nil {
		return nil, nil, err
	}

	u, err := s.owner(ctx, row)
	if err != nil {
		return nil, nil, err
	}

	if err := s.consume(ctx, u.ID, model.TokenVerifyOTP); err != nil {
		return nil, nil, err
	}

	u, err = s.markVerified(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.issuer.IssueAuthPair(ctx, u)
	if err != nil {
		return nil, nil, err
	}

	return u, pair, nil
}

// VerifyGoogleToken builds an unsaved user from the Google identity behind
// accessToken. The password is a random placeholder.
func (s *Service) VerifyGoogleToken(ctx context.Context, accessToken string) (*model.User, error) {
	info, err := s.issuer.FetchExternalIdentity(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	placeholder, err := security.NewPlaceholderPassword()
	if err != nil {
		return nil, apperr.Internal(err)
	}

	hash, err := s.hasher.Hash(placeholder)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &model.User{
		Email:           info.Email,
		PasswordHash:    hash,
		Name:            info.Name,
		FirstName:       info.GivenName,
		LastName:        info.FamilyName,
		PictureURL:      info.Picture,
		Type:            model.UserTypeGoogle,
		IsEmailVerified: info.EmailVerified,
		Rank:            model.RankBeginner,
	}, nil
}

// GoogleSignIn logs in the user behind a Google access token. With register
// set the account is created first.
func (s *Service) GoogleSignIn(ctx context.Context, accessToken string, register bool) (*model.User, *token.Pair, error) {
	g, err := s.VerifyGoogleToken(ctx, accessToken)
	if err != nil {
		return nil, nil, err
	}

	var u *model.User
	if register {
		u, err = s.create(ctx, g)
	} else {
		u, err = s.users.FindByEmail(ctx, g.Email)
		if err != nil {
			err = apperr.FromStore(err, apperr.CauseUserNotFound, msgUserNotFound)
		}
	}
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.issuer.IssueAuthPair(ctx, u)
	if err != nil {
		return nil, nil, err
	}

	return u, pair, nil
}

type RegisterInput struct {
	Email      string
	Password   string
	Name       string
	FirstName  string
	LastName   string
	PictureURL string
}

// Register creates an unverified email account and mails it a one time code
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	u := &model.User{
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PictureURL:   in.PictureURL,
		Type:         model.UserTypeEmail,
		Rank:         model.RankBeginner,
	}

	u, err = s.create(ctx, u)
	if err != nil {
		return nil, err
	}

	code, err := s.issuer.IssueOTP(ctx, u)
	if err != nil {
		return nil, err
	}

	s.mailer.SendVerificationCode(u.Email, code)
	return u, nil
}

// ResendCode issues a new one time code for an unverified user
func (s *Service) ResendCode(ctx context.Context, userID string) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return apperr.FromStore(err, apperr.CauseUserNotFound, msgUserNotFound)
	}

	if u.IsEmailVerified {
		return apperr.New(apperr.CauseAlreadyVerified, msgUserAlreadyVerified)
	}

	code, err := s.issuer.IssueOTP(ctx, u)
	if err != nil {
		return err
	}

	s.mailer.SendVerificationCode(u.Email, code)
	return nil
}

func (s *Service) create(ctx context.Context, u *model.User) (*model.User, error) {
	if _, err := s.users.FindByEmail(ctx, u.Email); err == nil {
		return nil, apperr.New(apperr.CauseEmailTaken, msgEmailTaken)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.FromStore(err, apperr.CauseUnknown, "Failed to look up email")
	}

	if u.Name == "" {
		u.Name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	if u.PictureURL == "" {
		u.PictureURL = s.publicURL + defaultUserPicturePath
	}

	created, err := s.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Wrap(apperr.CauseEmailTaken, msgEmailTaken, err)
		}
		return nil, apperr.FromStore(err, apperr.CauseUnknown, "Failed to create user")
	}

	zap.L().Info("User created", zap.String("userID", created.ID), zap.String("type", string(created.Type)))
	return created, nil
}

func (s *Service) owner(ctx context.Context, row *model.Token) (*model.User, error) {
	u, err := s.users.FindByID(ctx, row.UserID)
	if err != nil {
		return nil, apperr.FromStore(err, apperr.CauseOwnerNotFound, msgUserNotFound)
	}

	return u, nil
}

// consume deletes every token of kind owned by userID. Finding none means a
// concurrent call consumed them first.
func (s *Service) consume(ctx context.Context, userID string, kind model.TokenKind) error {
	n, err := s.tokens.DeleteMany(ctx, userID, kind)
	if err != nil {
		return apperr.FromStore(err, apperr.CauseTokenNotFound, "Token already used")
	}

	if n == 0 {
		return apperr.New(apperr.CauseTokenNotFound, "Token already used")
	}

	return nil
}

func (s *Service) markVerified(ctx context.Context, userID string) (*model.User, error) {
	verified := true
	u, err := s.users.Update(ctx, userID, store.UserUpdate{IsEmailVerified: &verified})
	if err != nil {
		return nil, apperr.FromStore(err, apperr.CauseOwnerNotFound, msgUserNotFound)
	}

	return u, nil
}
