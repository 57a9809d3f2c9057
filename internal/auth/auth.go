// Package auth wraps the Spotify OAuth2 authorization-code flow.
package auth

import (
	"context"
	"errors"
	"fmt"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// ErrProviderAPI is returned when a Spotify OAuth endpoint rejects a request
// or answers with a malformed response. No retries are attempted here.
var ErrProviderAPI = errors.New("spotify provider request failed")

// Config holds the Spotify application credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Client issues authorize-URL construction, code exchange and refresh-token
// exchange against Spotify's OAuth endpoints. It is stateless beyond the
// application credentials.
type Client struct {
	conf *oauth2.Config
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the OAuth endpoint, used by tests to point the
// client at a fake token server.
func WithEndpoint(endpoint oauth2.Endpoint) Option {
	return func(c *Client) {
		c.conf.Endpoint = endpoint
	}
}

// New creates a Client for the Spotify authorization-code grant.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes: []string{
				spotifyauth.ScopeUserReadPrivate,
				spotifyauth.ScopeUserTopRead,
			},
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthURL builds the Spotify authorize URL carrying the given state.
func (c *Client) AuthURL(state string) string {
	return c.conf.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token pair.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchanging authorization code: %v", ErrProviderAPI, err)
	}
	return token, nil
}

// Refresh trades a refresh token for a renewed token pair. Spotify may omit
// the refresh token from the response, in which case the original one is
// carried forward.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	src := c.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: refreshing token: %v", ErrProviderAPI, err)
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return token, nil
}
