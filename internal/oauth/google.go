// Package oauth talks to third party identity providers
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

var (
	// ErrRejected means the provider answered but did not accept the token
	ErrRejected = errors.New("identity provider rejected the access token")
	// ErrUnavailable means the provider could not be reached in time. Any
	// status the provider answers with is a rejection.
	ErrUnavailable = errors.New("identity provider unavailable")
)

type UserInfo struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// Bridge fetches the identity behind an access token
type Bridge interface {
	FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error)
}

type Google struct {
	userInfoURL string
	timeout     time.Duration
	client      *http.Client
}

func NewGoogle(userInfoURL string, timeout time.Duration) *Google {
	if userInfoURL == "" {
		userInfoURL = GoogleUserInfoURL
	}

	return &Google{
		userInfoURL: userInfoURL,
		timeout:     timeout,
		client:      &http.Client{Timeout: timeout},
	}
}

func (g *Google) FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w, empty access token", ErrRejected)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w, status %d", ErrRejected, resp.StatusCode)
	}

	var info UserInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w, failed to decode userinfo, %w", ErrRejected, err)
	}

	if info.Email == "" {
		return nil, fmt.Errorf("%w, userinfo has no email", ErrRejected)
	}

	return &info, nil
}
