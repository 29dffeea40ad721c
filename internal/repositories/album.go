package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/apostles/internal/models"
	"github.com/desertthunder/apostles/internal/shared"
)

const albumColumns = `id, name, cover_img, description, category, genre, hidden, likes, author, tracks_id, created_at, updated_at`

// AlbumRepository persists [models.Album] records and resolves their track references.
type AlbumRepository struct {
	db *sql.DB
}

// NewAlbumRepository creates a new [AlbumRepository] with the given database connection
func NewAlbumRepository(db *sql.DB) *AlbumRepository {
	return &AlbumRepository{db: db}
}

// Create stores a visible album with an empty likes set.
//
// Songs in upload.Tracks are created in the same transaction and their IDs appended to TracksID,
// so either the album and all of its new songs exist or none do.
func (r *AlbumRepository) Create(ctx context.Context, upload models.AlbumUpload) (*models.Album, error) {
	ts := now()
	album := &models.Album{
		ID:          shared.GenerateID("album"),
		Name:        upload.Name,
		CoverImg:    upload.CoverImg,
		Description: upload.Description,
		Category:    copyList(upload.Category),
		Genre:       copyList(upload.Genre),
		Likes:       []string{},
		Author:      upload.Author,
		TracksID:    copyList(upload.TracksID),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, track := range upload.Tracks {
			if track.Author == "" {
				track.Author = upload.Author
			}
			song, err := createSong(ctx, tx, track)
			if err != nil {
				return err
			}
			album.TracksID = addUnique(album.TracksID, song.ID)
		}

		sequence, err := NextSequence(ctx, tx, "albums")
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}

		category, genre, tracks, err := encodeAlbumLists(album)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO albums (id, sequence, name, cover_img, description, category, genre, hidden, likes, author, tracks_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, 0, '[]', ?, ?, ?, ?)
		`
		_, err = tx.ExecContext(ctx, query,
			album.ID, sequence, album.Name, album.CoverImg, album.Description, category, genre,
			album.Author, tracks, album.CreatedAt, album.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert album: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return album, nil
}

// Get retrieves an album by ID
func (r *AlbumRepository) Get(ctx context.Context, id string) (*models.Album, error) {
	return getAlbum(ctx, r.db, id)
}

// List retrieves albums matching filter, most recently created first
func (r *AlbumRepository) List(ctx context.Context, filter models.AlbumFilter) ([]*models.Album, error) {
	query := "SELECT " + albumColumns + " FROM albums"
	var args []any
	if filter.Author != "" {
		query += " WHERE author = ?"
		args = append(args, filter.Author)
	}
	query += " ORDER BY sequence DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query albums: %w", err)
	}
	defer rows.Close()

	albums := []*models.Album{}
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, album)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return albums, nil
}

// Update merges the non-nil fields of patch into the album
func (r *AlbumRepository) Update(ctx context.Context, id string, patch models.AlbumPatch) (*models.Album, error) {
	var album *models.Album

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := getAlbum(ctx, tx, id)
		if err != nil {
			return err
		}

		patch.Apply(current)
		current.UpdatedAt = now()

		if err := saveAlbum(ctx, tx, current); err != nil {
			return err
		}

		album = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return album, nil
}

// SetHidden toggles the hidden flag
func (r *AlbumRepository) SetHidden(ctx context.Context, id string, hidden bool) (*models.Album, error) {
	return r.Update(ctx, id, models.AlbumPatch{Hidden: &hidden})
}

// AddSong creates a song and appends its ID to the album's track list in one transaction.
func (r *AlbumRepository) AddSong(ctx context.Context, albumID string, upload models.SongUpload) (*models.Album, *models.Song, error) {
	var (
		album *models.Album
		song  *models.Song
	)

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := getAlbum(ctx, tx, albumID)
		if err != nil {
			return err
		}

		created, err := createSong(ctx, tx, upload)
		if err != nil {
			return err
		}

		current.TracksID = addUnique(current.TracksID, created.ID)
		current.UpdatedAt = now()
		if err := saveAlbum(ctx, tx, current); err != nil {
			return err
		}

		album, song = current, created
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return album, song, nil
}

// Tracks resolves the album's track references in order.
//
// Each reference is matched against song IDs first, then track codes. References matching neither are skipped.
func (r *AlbumRepository) Tracks(ctx context.Context, album *models.Album) ([]*models.Song, error) {
	songs := []*models.Song{}
	for _, ref := range album.TracksID {
		if ref == "" {
			continue
		}

		song, err := getSong(ctx, r.db, "id = ?", ref)
		if errors.Is(err, shared.ErrNotFound) {
			song, err = getSong(ctx, r.db, "track_id = ?", ref)
		}
		if errors.Is(err, shared.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}
	return songs, nil
}

// Delete removes an album. Its songs are left in place.
func (r *AlbumRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM albums WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete album: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrAlbumNotFound, id)
	}
	return nil
}

func getAlbum(ctx context.Context, q querier, id string) (*models.Album, error) {
	row := q.QueryRowContext(ctx, "SELECT "+albumColumns+" FROM albums WHERE id = ?", id)

	album, err := scanAlbum(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrAlbumNotFound, id)
	}
	return album, err
}

func saveAlbum(ctx context.Context, q querier, album *models.Album) error {
	category, genre, tracks, err := encodeAlbumLists(album)
	if err != nil {
		return err
	}

	query := `
		UPDATE albums
		SET name = ?, cover_img = ?, description = ?, category = ?, genre = ?,
			hidden = ?, author = ?, tracks_id = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = q.ExecContext(ctx, query,
		album.Name, album.CoverImg, album.Description, category, genre,
		album.Hidden, album.Author, tracks, album.UpdatedAt, album.ID)
	if err != nil {
		return fmt.Errorf("failed to update album: %w", err)
	}
	return nil
}

func encodeAlbumLists(album *models.Album) (category, genre, tracks string, err error) {
	if category, err = encodeList(album.Category); err != nil {
		return
	}
	if genre, err = encodeList(album.Genre); err != nil {
		return
	}
	tracks, err = encodeList(album.TracksID)
	return
}

func scanAlbum(row rowScanner) (*models.Album, error) {
	var (
		album                          models.Album
		category, genre, likes, tracks string
	)

	err := row.Scan(
		&album.ID, &album.Name, &album.CoverImg, &album.Description, &category, &genre,
		&album.Hidden, &likes, &album.Author, &tracks, &album.CreatedAt, &album.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan album: %w", err)
	}

	if album.Category, err = decodeList(category); err != nil {
		return nil, err
	}
	if album.Genre, err = decodeList(genre); err != nil {
		return nil, err
	}
	if album.Likes, err = decodeList(likes); err != nil {
		return nil, err
	}
	if album.TracksID, err = decodeList(tracks); err != nil {
		return nil, err
	}

	return &album, nil
}
