// Package db provides PostgreSQL database access for Concert Scout.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Common errors.
var (
	ErrNotFound = errors.New("not found")
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so repositories can
// run against the pool or inside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Credentials returns a CredentialRepository.
func (db *DB) Credentials() *CredentialRepository {
	return &CredentialRepository{q: db.pool}
}

// Users returns a UserRepository bound to the pool.
func (db *DB) Users() *UserRepository {
	return &UserRepository{q: db.pool}
}

// Artists returns an ArtistRepository bound to the pool.
func (db *DB) Artists() *ArtistRepository {
	return &ArtistRepository{q: db.pool}
}

// Tx exposes repositories bound to a single open transaction. Writes made
// through it are invisible to other connections until the transaction commits.
type Tx struct {
	Users   *UserRepository
	Artists *ArtistRepository
}

// InTx runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back otherwise; the connection goes back to the pool
// on every exit path.
func (db *DB) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	// No-op after a successful commit.
	defer func() { _ = tx.Rollback(ctx) }()

	err = fn(&Tx{
		Users:   &UserRepository{q: tx},
		Artists: &ArtistRepository{q: tx},
	})
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
