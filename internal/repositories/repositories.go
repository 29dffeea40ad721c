// package repositories provides the entity store for artists, songs and albums.
//
// Each repository owns one entity type and handles its CRUD operations and sequence generation.
// Multi-step writes run inside a single transaction.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/apostles/internal/shared"
)

// querier is satisfied by both [sql.DB] and [sql.Tx].
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store aggregates the repositories sharing one database handle.
type Store struct {
	db      *sql.DB
	Artists *ArtistRepository
	Songs   *SongRepository
	Albums  *AlbumRepository
}

// NewStore creates a [Store] over a migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:      db,
		Artists: NewArtistRepository(db),
		Songs:   NewSongRepository(db),
		Albums:  NewAlbumRepository(db),
	}
}

// Open opens the database at path, applies pending migrations and returns a ready [Store].
func Open(path string) (*Store, error) {
	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}

	if _, err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return NewStore(db), nil
}

// DB exposes the underlying handle for pool configuration.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the database handle. For ":memory:" stores this discards all data.
func (s *Store) Close() error {
	return s.db.Close()
}

// NextSequence increments and returns the next sequence number for the given table.
//
// Sequence numbers give entities a stable insertion order; listings sort on them.
// Must run inside the transaction that inserts the row.
func NextSequence(ctx context.Context, q querier, table string) (int, error) {
	sequenceTable := table + "_sequence"

	_, err := q.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable))
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	err = q.QueryRowContext(ctx, fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	return sequence, nil
}

// withTx runs fn in a transaction, committing only if fn succeeds.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// encodeList stores a string list as a JSON array. Nil encodes as "[]".
func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(raw), nil
}

// decodeList reads a JSON array column. Empty input decodes as an empty list.
func decodeList(raw string) ([]string, error) {
	values := []string{}
	if raw == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

// addUnique appends v unless already present, preserving order.
func addUnique(values []string, v string) []string {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}

func now() time.Time {
	return time.Now().UTC()
}
