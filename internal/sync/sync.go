// Package sync reconciles fetched Spotify data into the database.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/concert-scout/internal/db"
	"github.com/justestif/concert-scout/internal/spotify"
)

// ErrProfileNotSynced is returned when a top-artist sync is attempted for an
// owner whose profile was never synchronized. Profile sync must come first.
var ErrProfileNotSynced = errors.New("profile has not been synced")

// Batch is the set of reads and writes available inside one transaction.
// *db.Tx satisfies it through the adapter below.
type Batch interface {
	UserBySpotifyID(ctx context.Context, spotifyID string) (*db.User, error)
	InsertUser(ctx context.Context, user *db.User) error
	UpdateUser(ctx context.Context, user *db.User) error
	UpsertArtist(ctx context.Context, artist *db.Artist) error
	UpsertUserArtist(ctx context.Context, userID, artistID uuid.UUID, listenedAt time.Time) (*db.UserArtist, error)
}

// Store is the persistence surface the synchronizer needs. Everything inside
// InTx commits atomically or not at all.
type Store interface {
	UserByDiscordID(ctx context.Context, discordID string) (*db.User, error)
	InTx(ctx context.Context, fn func(Batch) error) error
}

// Service synchronizes profile and top-artist snapshots.
type Service struct {
	store Store
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a sync service on top of a database handle.
func New(database *db.DB, opts ...Option) *Service {
	return NewWithStore(pgStore{database}, opts...)
}

// NewWithStore creates a sync service with a custom Store, used by tests.
func NewWithStore(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncProfile upserts the owner's profile into the users table inside one
// transaction. Re-syncing the same profile is idempotent: the existing row is
// updated in place, never duplicated.
func (s *Service) SyncProfile(ctx context.Context, discordID string, profile spotify.Profile) (*db.User, error) {
	if profile.SpotifyID == "" {
		return nil, fmt.Errorf("profile has no spotify id")
	}

	var synced *db.User
	err := s.store.InTx(ctx, func(batch Batch) error {
		existing, err := batch.UserBySpotifyID(ctx, profile.SpotifyID)
		switch {
		case errors.Is(err, db.ErrNotFound):
			user := &db.User{
				ID:          uuid.New(),
				SpotifyID:   profile.SpotifyID,
				DiscordID:   &discordID,
				DisplayName: profile.DisplayName,
			}
			if err := batch.InsertUser(ctx, user); err != nil {
				return err
			}
			synced = user
			return nil
		case err != nil:
			return err
		}

		existing.DisplayName = profile.DisplayName
		// Link the Discord identity only when the row has none yet. A profile
		// already claimed by another owner keeps its original link.
		if existing.DiscordID == nil {
			existing.DiscordID = &discordID
		}
		if err := batch.UpdateUser(ctx, existing); err != nil {
			return err
		}
		synced = existing
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("syncing profile: %w", err)
	}
	return synced, nil
}

// SyncTopArtists reconciles the owner's top-artist snapshot in one
// transaction covering the whole batch: every artist is upserted, then the
// user-artist relation is upserted with play_count+1 on conflict. Either the
// entire batch commits or none of it does.
//
// The play counter moves by a fixed +1 per call, so repeating an identical
// sync double-increments. That is the intended behavior, not a bug.
func (s *Service) SyncTopArtists(ctx context.Context, discordID string, artists []spotify.ArtistSnapshot) ([]db.UserArtist, error) {
	user, err := s.store.UserByDiscordID(ctx, discordID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrProfileNotSynced
	}
	if err != nil {
		return nil, fmt.Errorf("resolving user: %w", err)
	}

	listenedAt := s.now()
	synced := make([]db.UserArtist, 0, len(artists))

	err = s.store.InTx(ctx, func(batch Batch) error {
		for _, snapshot := range artists {
			artist := &db.Artist{
				SpotifyID:  snapshot.SpotifyID,
				Name:       snapshot.Name,
				Genres:     snapshot.Genres,
				Popularity: snapshot.Popularity,
			}
			if err := batch.UpsertArtist(ctx, artist); err != nil {
				return err
			}

			ua, err := batch.UpsertUserArtist(ctx, user.ID, artist.ID, listenedAt)
			if err != nil {
				return err
			}
			synced = append(synced, *ua)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("syncing top artists: %w", err)
	}
	return synced, nil
}

// pgStore adapts *db.DB to the Store interface.
type pgStore struct {
	db *db.DB
}

func (s pgStore) UserByDiscordID(ctx context.Context, discordID string) (*db.User, error) {
	return s.db.Users().GetByDiscordID(ctx, discordID)
}

func (s pgStore) InTx(ctx context.Context, fn func(Batch) error) error {
	return s.db.InTx(ctx, func(tx *db.Tx) error {
		return fn(txBatch{tx})
	})
}

// txBatch adapts *db.Tx repositories to the Batch interface.
type txBatch struct {
	tx *db.Tx
}

func (b txBatch) UserBySpotifyID(ctx context.Context, spotifyID string) (*db.User, error) {
	return b.tx.Users.GetBySpotifyID(ctx, spotifyID)
}

func (b txBatch) InsertUser(ctx context.Context, user *db.User) error {
	return b.tx.Users.Insert(ctx, user)
}

func (b txBatch) UpdateUser(ctx context.Context, user *db.User) error {
	return b.tx.Users.Update(ctx, user)
}

func (b txBatch) UpsertArtist(ctx context.Context, artist *db.Artist) error {
	return b.tx.Artists.Upsert(ctx, artist)
}

func (b txBatch) UpsertUserArtist(ctx context.Context, userID, artistID uuid.UUID, listenedAt time.Time) (*db.UserArtist, error) {
	return b.tx.Artists.UpsertUserArtist(ctx, userID, artistID, listenedAt)
}
