package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository handles user database operations.
type UserRepository struct {
	q querier
}

// GetBySpotifyID retrieves a user by Spotify ID.
func (r *UserRepository) GetBySpotifyID(ctx context.Context, spotifyID string) (*User, error) {
	return r.getBy(ctx, "spotify_id", spotifyID)
}

// GetByDiscordID retrieves a user by the Discord identity that connected it.
func (r *UserRepository) GetByDiscordID(ctx context.Context, discordID string) (*User, error) {
	return r.getBy(ctx, "discord_id", discordID)
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT id, spotify_id, discord_id, display_name, created_at, updated_at
		FROM users
		WHERE %s = $1
	`, column)
	var user User
	err := r.q.QueryRow(ctx, query, value).Scan(
		&user.ID,
		&user.SpotifyID,
		&user.DiscordID,
		&user.DisplayName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &user, nil
}

// Insert creates a new user row. The caller supplies the ID.
func (r *UserRepository) Insert(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, spotify_id, discord_id, display_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.q.QueryRow(ctx, query,
		user.ID,
		user.SpotifyID,
		user.DiscordID,
		user.DisplayName,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// Update writes the mutable profile fields of an existing user.
func (r *UserRepository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET display_name = $2, discord_id = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.q.QueryRow(ctx, query, user.ID, user.DisplayName, user.DiscordID).Scan(&user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return nil
}

// Delete removes a user and, via cascade, its user_artists rows.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM users WHERE id = $1`
	_, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}
