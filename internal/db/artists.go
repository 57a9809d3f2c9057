package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ArtistRepository handles artist and user-artist database operations.
type ArtistRepository struct {
	q querier
}

// Upsert inserts the artist or, when the Spotify ID already exists, updates
// name, genres and popularity. The stored row ID is written back to artist.ID.
func (r *ArtistRepository) Upsert(ctx context.Context, artist *Artist) error {
	query := `
		INSERT INTO artists (id, spotify_id, name, genres, popularity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (spotify_id) DO UPDATE SET
			name = EXCLUDED.name,
			genres = EXCLUDED.genres,
			popularity = EXCLUDED.popularity,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	if artist.ID == uuid.Nil {
		artist.ID = uuid.New()
	}
	err := r.q.QueryRow(ctx, query,
		artist.ID,
		artist.SpotifyID,
		artist.Name,
		artist.Genres,
		artist.Popularity,
	).Scan(&artist.ID, &artist.CreatedAt, &artist.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting artist: %w", err)
	}
	return nil
}

// GetBySpotifyID retrieves an artist by Spotify ID.
func (r *ArtistRepository) GetBySpotifyID(ctx context.Context, spotifyID string) (*Artist, error) {
	query := `
		SELECT id, spotify_id, name, genres, popularity, created_at, updated_at
		FROM artists
		WHERE spotify_id = $1
	`
	var artist Artist
	err := r.q.QueryRow(ctx, query, spotifyID).Scan(
		&artist.ID,
		&artist.SpotifyID,
		&artist.Name,
		&artist.Genres,
		&artist.Popularity,
		&artist.CreatedAt,
		&artist.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying artist: %w", err)
	}
	return &artist, nil
}

// UpsertUserArtist records that the artist appeared in the user's top list.
// A new pair starts at play_count 1; an existing pair is incremented by one
// and has last_listened moved forward. The counter never decreases.
func (r *ArtistRepository) UpsertUserArtist(ctx context.Context, userID, artistID uuid.UUID, listenedAt time.Time) (*UserArtist, error) {
	query := `
		INSERT INTO user_artists (user_id, artist_id, play_count, last_listened, created_at, updated_at)
		VALUES ($1, $2, 1, $3, NOW(), NOW())
		ON CONFLICT (user_id, artist_id) DO UPDATE SET
			play_count = user_artists.play_count + 1,
			last_listened = EXCLUDED.last_listened,
			updated_at = NOW()
		RETURNING user_id, artist_id, play_count, last_listened, created_at, updated_at
	`
	var ua UserArtist
	err := r.q.QueryRow(ctx, query, userID, artistID, listenedAt).Scan(
		&ua.UserID,
		&ua.ArtistID,
		&ua.PlayCount,
		&ua.LastListened,
		&ua.CreatedAt,
		&ua.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting user artist: %w", err)
	}
	return &ua, nil
}
