package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/apostles/internal/models"
	"github.com/desertthunder/apostles/internal/shared"
)

const songColumns = `id, title, author, track_url, track_img, description, category, genre, track_id, likes, hidden, created_at, updated_at`

// SongRepository persists [models.Song] records.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new [SongRepository] with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// Create stores a visible song with an empty likes set
func (r *SongRepository) Create(ctx context.Context, upload models.SongUpload) (*models.Song, error) {
	var song *models.Song
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		created, err := createSong(ctx, tx, upload)
		song = created
		return err
	})
	if err != nil {
		return nil, err
	}
	return song, nil
}

// Get retrieves a song by ID
func (r *SongRepository) Get(ctx context.Context, id string) (*models.Song, error) {
	return getSong(ctx, r.db, "id = ?", id)
}

// GetByTrackID retrieves the earliest uploaded song carrying the given track code
func (r *SongRepository) GetByTrackID(ctx context.Context, trackID string) (*models.Song, error) {
	if trackID == "" {
		return nil, fmt.Errorf("%w: empty track id", shared.ErrSongNotFound)
	}
	return getSong(ctx, r.db, "track_id = ?", trackID)
}

// List retrieves songs matching filter, most recently uploaded first
func (r *SongRepository) List(ctx context.Context, filter models.SongFilter) ([]*models.Song, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.Author != "" {
		clauses = append(clauses, "author = ?")
		args = append(args, filter.Author)
	}
	if filter.Query != "" {
		clauses = append(clauses, "instr(lower(title || ' ' || author || ' ' || description), lower(?)) > 0")
		args = append(args, filter.Query)
	}

	query := "SELECT " + songColumns + " FROM songs"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY sequence DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := []*models.Song{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		if filter.Category != "" && !slices.Contains(song.Category, filter.Category) {
			continue
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}

// Update merges the non-nil fields of patch into the song
func (r *SongRepository) Update(ctx context.Context, id string, patch models.SongPatch) (*models.Song, error) {
	var song *models.Song

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := getSong(ctx, tx, "id = ?", id)
		if err != nil {
			return err
		}

		patch.Apply(current)
		current.UpdatedAt = now()

		category, err := encodeList(current.Category)
		if err != nil {
			return err
		}
		genre, err := encodeList(current.Genre)
		if err != nil {
			return err
		}

		query := `
			UPDATE songs
			SET title = ?, author = ?, track_url = ?, track_img = ?, description = ?,
				category = ?, genre = ?, track_id = ?, hidden = ?, updated_at = ?
			WHERE id = ?
		`
		_, err = tx.ExecContext(ctx, query,
			current.Title, current.Author, current.TrackURL, current.TrackImg, current.Description,
			category, genre, current.TrackID, current.Hidden, current.UpdatedAt, current.ID)
		if err != nil {
			return fmt.Errorf("failed to update song: %w", err)
		}

		song = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return song, nil
}

// SetHidden toggles the hidden flag. Hiding is a flag only; listings still include hidden songs.
func (r *SongRepository) SetHidden(ctx context.Context, id string, hidden bool) (*models.Song, error) {
	return r.Update(ctx, id, models.SongPatch{Hidden: &hidden})
}

// Delete removes a song. Albums referencing it keep the dangling reference.
func (r *SongRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM songs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
	}
	return nil
}

// createSong inserts a song using q, which must be a transaction so the sequence and row commit together.
func createSong(ctx context.Context, q querier, upload models.SongUpload) (*models.Song, error) {
	if err := upload.Validate(); err != nil {
		return nil, err
	}

	ts := now()
	song := &models.Song{
		ID:          shared.GenerateID("song"),
		Title:       upload.Title,
		Author:      upload.Author,
		TrackURL:    upload.TrackURL,
		TrackImg:    upload.TrackImg,
		Description: upload.Description,
		Category:    copyList(upload.Category),
		Genre:       copyList(upload.Genre),
		TrackID:     upload.TrackID,
		Likes:       []string{},
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	category, err := encodeList(song.Category)
	if err != nil {
		return nil, err
	}
	genre, err := encodeList(song.Genre)
	if err != nil {
		return nil, err
	}

	sequence, err := NextSequence(ctx, q, "songs")
	if err != nil {
		return nil, fmt.Errorf("failed to generate sequence: %w", err)
	}

	query := `
		INSERT INTO songs (id, sequence, title, author, track_url, track_img, description, category, genre, track_id, likes, hidden, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, '[]', 0, ?, ?)
	`
	_, err = q.ExecContext(ctx, query,
		song.ID, sequence, song.Title, song.Author, song.TrackURL, song.TrackImg, song.Description,
		category, genre, song.TrackID, song.CreatedAt, song.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert song: %w", err)
	}

	return song, nil
}

func getSong(ctx context.Context, q querier, where string, arg any) (*models.Song, error) {
	query := "SELECT " + songColumns + " FROM songs WHERE " + where + " ORDER BY sequence ASC LIMIT 1"

	song, err := scanSong(q.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", shared.ErrSongNotFound, arg)
	}
	return song, err
}

func scanSong(row rowScanner) (*models.Song, error) {
	var (
		song                   models.Song
		category, genre, likes string
	)

	err := row.Scan(
		&song.ID, &song.Title, &song.Author, &song.TrackURL, &song.TrackImg, &song.Description,
		&category, &genre, &song.TrackID, &likes, &song.Hidden, &song.CreatedAt, &song.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}

	if song.Category, err = decodeList(category); err != nil {
		return nil, err
	}
	if song.Genre, err = decodeList(genre); err != nil {
		return nil, err
	}
	if song.Likes, err = decodeList(likes); err != nil {
		return nil, err
	}

	return &song, nil
}

func copyList(values []string) []string {
	return append([]string{}, values...)
}
