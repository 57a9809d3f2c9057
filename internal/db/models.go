package db

import (
	"time"

	"github.com/google/uuid"
)

// Credential holds one owner's Spotify token pair. Exactly one row exists per
// Discord ID; refreshes replace the whole row.
type Credential struct {
	DiscordID    string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UpdatedAt    time.Time
}

// User represents a synchronized Spotify profile, optionally linked to the
// Discord identity that connected it.
type User struct {
	ID          uuid.UUID
	SpotifyID   string
	DiscordID   *string // nullable
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Artist is a Spotify artist shared across all users. Genres and popularity
// reflect the most recent sync from any user.
type Artist struct {
	ID         uuid.UUID
	SpotifyID  string
	Name       string
	Genres     []string
	Popularity int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UserArtist links a user to one of their top artists. PlayCount goes up by
// one on each sync in which the artist reappears and never decreases.
type UserArtist struct {
	UserID       uuid.UUID
	ArtistID     uuid.UUID
	PlayCount    int
	LastListened time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
