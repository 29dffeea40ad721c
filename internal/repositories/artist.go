package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/apostles/internal/models"
	"github.com/desertthunder/apostles/internal/shared"
	"github.com/mattn/go-sqlite3"
)

const artistColumns = `id, email, password, name, type, verified, otp, about, description, profile_img, created_at, updated_at`

// ArtistRepository persists [models.Artist] accounts keyed by email.
type ArtistRepository struct {
	db *sql.DB
}

// NewArtistRepository creates a new [ArtistRepository] with the given database connection
func NewArtistRepository(db *sql.DB) *ArtistRepository {
	return &ArtistRepository{db: db}
}

// Create inserts a new unverified artist with an empty profile and empty follower/like sets.
//
// Returns an error wrapping [shared.ErrConflict] when the email is already registered.
func (r *ArtistRepository) Create(ctx context.Context, input models.NewArtist) (*models.Artist, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	kind := input.Type
	if strings.TrimSpace(kind) == "" {
		kind = models.DefaultArtistType
	}

	ts := now()
	artist := &models.Artist{
		ID:        shared.GenerateID("artist"),
		Email:     input.Email,
		Password:  input.Password,
		Name:      input.Name,
		Type:      kind,
		Followers: []string{},
		Likes:     []string{},
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		sequence, err := NextSequence(ctx, tx, "artists")
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}

		query := `
			INSERT INTO artists (id, sequence, email, password, name, type, verified, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
		`
		_, err = tx.ExecContext(ctx, query,
			artist.ID, sequence, artist.Email, artist.Password, artist.Name, artist.Type, artist.CreatedAt, artist.UpdatedAt)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", shared.ErrArtistExists, input.Email)
		}
		if err != nil {
			return fmt.Errorf("failed to insert artist: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return artist, nil
}

// Get retrieves an artist by ID
func (r *ArtistRepository) Get(ctx context.Context, id string) (*models.Artist, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetByEmail retrieves an artist by the exact (case-sensitive) email
func (r *ArtistRepository) GetByEmail(ctx context.Context, email string) (*models.Artist, error) {
	return r.getOne(ctx, "email = ?", email)
}

// GetByName retrieves the earliest registered artist whose display name matches case-insensitively
func (r *ArtistRepository) GetByName(ctx context.Context, name string) (*models.Artist, error) {
	return r.getOne(ctx, "name = ? COLLATE NOCASE", name)
}

// Exists reports whether an account is registered under email.
func (r *ArtistRepository) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM artists WHERE email = ?)", email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query artist: %w", err)
	}
	return exists, nil
}

// List retrieves all artists in registration order
func (r *ArtistRepository) List(ctx context.Context) ([]*models.Artist, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+artistColumns+" FROM artists ORDER BY sequence ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}

	artists := []*models.Artist{}
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		artists = append(artists, artist)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	// Sets load after the cursor is closed: in-memory stores hold a single connection.
	for _, artist := range artists {
		if err := loadArtistSets(ctx, r.db, artist); err != nil {
			return nil, err
		}
	}

	return artists, nil
}

// SetOTP stores a pending OTP challenge, replacing any previous one.
func (r *ArtistRepository) SetOTP(ctx context.Context, email, otp string) error {
	query := `UPDATE artists SET otp = ?, updated_at = ? WHERE email = ?`
	return r.execOne(ctx, email, query, otp, now(), email)
}

// VerifyOTP consumes the pending challenge when otp matches it exactly.
//
// On success the challenge is cleared and the account marked verified in one statement, so each OTP verifies at most once.
// A mismatch, an empty otp, an unknown email or no pending challenge all report false without error.
func (r *ArtistRepository) VerifyOTP(ctx context.Context, email, otp string) (bool, error) {
	if otp == "" {
		return false, nil
	}

	query := `
		UPDATE artists
		SET verified = 1, otp = NULL, updated_at = ?
		WHERE email = ? AND otp IS NOT NULL AND otp = ?
	`
	result, err := r.db.ExecContext(ctx, query, now(), email, otp)
	if err != nil {
		return false, fmt.Errorf("failed to verify otp: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows == 1, nil
}

// SetPassword overwrites the stored password.
func (r *ArtistRepository) SetPassword(ctx context.Context, email, password string) error {
	query := `UPDATE artists SET password = ?, updated_at = ? WHERE email = ?`
	return r.execOne(ctx, email, query, password, now(), email)
}

// UpdateProfile merges the non-nil fields of patch into the artist's profile.
func (r *ArtistRepository) UpdateProfile(ctx context.Context, email string, patch models.ProfilePatch) (*models.Artist, error) {
	var artist *models.Artist

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := getArtist(ctx, tx, "email = ?", email)
		if err != nil {
			return err
		}

		patch.Apply(current)
		current.UpdatedAt = now()

		query := `
			UPDATE artists
			SET name = ?, type = ?, about = ?, description = ?, profile_img = ?, updated_at = ?
			WHERE id = ?
		`
		_, err = tx.ExecContext(ctx, query,
			current.Name, current.Type, current.About, current.Description, current.ProfileImg, current.UpdatedAt, current.ID)
		if err != nil {
			return fmt.Errorf("failed to update artist: %w", err)
		}

		artist = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return artist, nil
}

// Follow adds followerID to the artist's followers. Adding an existing follower is a no-op.
func (r *ArtistRepository) Follow(ctx context.Context, artistID, followerID string) (*models.Artist, error) {
	return r.addToSet(ctx, "artist_followers", "follower_id", artistID, followerID)
}

// Like adds likerID to the artist's likes. Adding an existing liker is a no-op.
func (r *ArtistRepository) Like(ctx context.Context, artistID, likerID string) (*models.Artist, error) {
	return r.addToSet(ctx, "artist_likes", "liker_id", artistID, likerID)
}

// Delete hard-removes an artist together with its follower and like sets.
func (r *ArtistRepository) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "DELETE FROM artists WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete artist: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: %s", shared.ErrArtistNotFound, id)
		}

		for _, table := range []string{"artist_followers", "artist_likes"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE artist_id = ?", id); err != nil {
				return fmt.Errorf("failed to delete %s: %w", table, err)
			}
		}
		return nil
	})
}

func (r *ArtistRepository) addToSet(ctx context.Context, table, column, artistID, memberID string) (*models.Artist, error) {
	if memberID == "" {
		return nil, fmt.Errorf("%w: missing member id", shared.ErrValidation)
	}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM artists WHERE id = ?)", artistID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to query artist: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: %s", shared.ErrArtistNotFound, artistID)
		}

		query := fmt.Sprintf("INSERT OR IGNORE INTO %s (artist_id, %s) VALUES (?, ?)", table, column)
		if _, err := tx.ExecContext(ctx, query, artistID, memberID); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.Get(ctx, artistID)
}

func (r *ArtistRepository) getOne(ctx context.Context, where string, arg any) (*models.Artist, error) {
	return getArtist(ctx, r.db, where, arg)
}

// execOne runs an UPDATE keyed by email and reports a missing account as not found.
func (r *ArtistRepository) execOne(ctx context.Context, email, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update artist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrArtistNotFound, email)
	}
	return nil
}

func getArtist(ctx context.Context, q querier, where string, arg any) (*models.Artist, error) {
	query := "SELECT " + artistColumns + " FROM artists WHERE " + where + " ORDER BY sequence ASC LIMIT 1"

	artist, err := scanArtist(q.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", shared.ErrArtistNotFound, arg)
	}
	if err != nil {
		return nil, err
	}

	if err := loadArtistSets(ctx, q, artist); err != nil {
		return nil, err
	}
	return artist, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtist(row rowScanner) (*models.Artist, error) {
	var (
		artist models.Artist
		otp    sql.NullString
	)

	err := row.Scan(
		&artist.ID, &artist.Email, &artist.Password, &artist.Name, &artist.Type, &artist.Verified, &otp,
		&artist.About, &artist.Description, &artist.ProfileImg, &artist.CreatedAt, &artist.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan artist: %w", err)
	}

	artist.OTP = otp.String
	return &artist, nil
}

func loadArtistSets(ctx context.Context, q querier, artist *models.Artist) error {
	followers, err := loadSet(ctx, q, "SELECT follower_id FROM artist_followers WHERE artist_id = ? ORDER BY rowid", artist.ID)
	if err != nil {
		return fmt.Errorf("failed to load followers: %w", err)
	}

	likes, err := loadSet(ctx, q, "SELECT liker_id FROM artist_likes WHERE artist_id = ? ORDER BY rowid", artist.ID)
	if err != nil {
		return fmt.Errorf("failed to load likes: %w", err)
	}

	artist.Followers = followers
	artist.Likes = likes
	return nil
}

func loadSet(ctx context.Context, q querier, query, id string) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []string{}
	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
