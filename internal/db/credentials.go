package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CredentialRepository handles Spotify credential storage.
type CredentialRepository struct {
	q querier
}

// Get retrieves the credential for a Discord ID.
// Returns ErrNotFound if the owner has never authorized.
func (r *CredentialRepository) Get(ctx context.Context, discordID string) (*Credential, error) {
	query := `
		SELECT discord_id, access_token, refresh_token, expires_at, updated_at
		FROM credentials
		WHERE discord_id = $1
	`
	var cred Credential
	err := r.q.QueryRow(ctx, query, discordID).Scan(
		&cred.DiscordID,
		&cred.AccessToken,
		&cred.RefreshToken,
		&cred.ExpiresAt,
		&cred.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying credential: %w", err)
	}
	return &cred, nil
}

// Upsert stores a credential, replacing the token pair and expiry together
// when a row already exists for the owner.
func (r *CredentialRepository) Upsert(ctx context.Context, cred *Credential) error {
	query := `
		INSERT INTO credentials (discord_id, access_token, refresh_token, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (discord_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
		RETURNING updated_at
	`
	err := r.q.QueryRow(ctx, query,
		cred.DiscordID,
		cred.AccessToken,
		cred.RefreshToken,
		cred.ExpiresAt,
	).Scan(&cred.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting credential: %w", err)
	}
	return nil
}

// Delete removes the credential for a Discord ID. Deleting an absent
// credential is not an error.
func (r *CredentialRepository) Delete(ctx context.Context, discordID string) error {
	query := `DELETE FROM credentials WHERE discord_id = $1`
	_, err := r.q.Exec(ctx, query, discordID)
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}
