// Package tokenstore manages the lifecycle of stored Spotify credentials:
// durable storage keyed by Discord ID and expiry-aware lazy refresh.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/justestif/concert-scout/internal/db"
)

// ErrAuthRequired signals that the owner has no usable credential and must
// complete (or re-complete) the authorization flow.
var ErrAuthRequired = errors.New("spotify authorization required")

// DefaultExpiryMargin is how long before the recorded expiry a token is
// already treated as expired, so a token never dies mid-request.
const DefaultExpiryMargin = 30 * time.Second

// Repository is the persistence surface the store needs. *db.CredentialRepository
// implements it.
type Repository interface {
	Get(ctx context.Context, discordID string) (*db.Credential, error)
	Upsert(ctx context.Context, cred *db.Credential) error
	Delete(ctx context.Context, discordID string) error
}

// Refresher exchanges a refresh token for a renewed token pair.
// *auth.Client implements it.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Store provides credential storage with refresh-on-read.
type Store struct {
	repo      Repository
	refresher Refresher
	margin    time.Duration
	now       func() time.Time

	// group collapses concurrent refreshes for the same owner into one
	// provider call; distinct owners do not contend.
	group singleflight.Group
}

// Option configures a Store.
type Option func(*Store)

// WithExpiryMargin sets the safety margin subtracted from expiry checks.
func WithExpiryMargin(d time.Duration) Option {
	return func(s *Store) { s.margin = d }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store.
func New(repo Repository, refresher Refresher, opts ...Option) *Store {
	s := &Store{
		repo:      repo,
		refresher: refresher,
		margin:    DefaultExpiryMargin,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the stored credential for an owner, or (nil, nil) when the
// owner has never authorized. Absence is an expected state, not an error.
func (s *Store) Get(ctx context.Context, discordID string) (*db.Credential, error) {
	cred, err := s.repo.Get(ctx, discordID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading credential: %w", err)
	}
	return cred, nil
}

// Put stores a token pair for an owner, overwriting any previous credential.
func (s *Store) Put(ctx context.Context, discordID string, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return errors.New("cannot store empty token")
	}
	cred := &db.Credential{
		DiscordID:    discordID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}
	if err := s.repo.Upsert(ctx, cred); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	return nil
}

// Delete disconnects an owner. Deleting an absent credential succeeds.
func (s *Store) Delete(ctx context.Context, discordID string) error {
	if err := s.repo.Delete(ctx, discordID); err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}

// AccessToken returns a currently valid access token for the owner,
// refreshing through the provider when the stored one has expired. A missing
// credential or a failed refresh surfaces ErrAuthRequired; the stale
// credential is kept in place either way, only an explicit Delete removes it.
func (s *Store) AccessToken(ctx context.Context, discordID string) (string, error) {
	cred, err := s.repo.Get(ctx, discordID)
	if errors.Is(err, db.ErrNotFound) {
		return "", ErrAuthRequired
	}
	if err != nil {
		return "", fmt.Errorf("loading credential: %w", err)
	}

	if s.valid(cred) {
		return cred.AccessToken, nil
	}

	token, err, _ := s.group.Do(discordID, func() (any, error) {
		return s.refresh(ctx, discordID)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

// refresh runs the check-then-refresh-then-store sequence for one owner.
// Callers are already serialized per owner by the singleflight group.
func (s *Store) refresh(ctx context.Context, discordID string) (string, error) {
	// Re-read: a caller we coalesced behind may have refreshed already.
	cred, err := s.repo.Get(ctx, discordID)
	if errors.Is(err, db.ErrNotFound) {
		return "", ErrAuthRequired
	}
	if err != nil {
		return "", fmt.Errorf("loading credential: %w", err)
	}
	if s.valid(cred) {
		return cred.AccessToken, nil
	}

	token, err := s.refresher.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: refresh rejected: %v", ErrAuthRequired, err)
	}

	// Token pair and expiry land in one row write, so a reader can never see
	// a new access token paired with a stale expiry.
	if err := s.Put(ctx, discordID, token); err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

func (s *Store) valid(cred *db.Credential) bool {
	return s.now().Add(s.margin).Before(cred.ExpiresAt)
}
