package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/apostles/internal/models"
)

// Totals are the dashboard counters.
//
// Content counters span the whole store; Followers and ProfileLikes belong to the requesting artist.
type Totals struct {
	Songs        int `json:"songs"`
	Albums       int `json:"albums"`
	Playlists    int `json:"playlists"`
	HiddenSongs  int `json:"hiddenSongs"`
	HiddenAlbums int `json:"hiddenAlbums"`
	SongLikes    int `json:"songLikes"`
	AlbumLikes   int `json:"albumLikes"`
	Followers    int `json:"followers"`
	ProfileLikes int `json:"profileLikes"`
}

// TagCount is the number of songs carrying a category or genre slug.
type TagCount struct {
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// Stats is the dashboard summary.
type Stats struct {
	Totals        Totals     `json:"totals"`
	TopCategories []TagCount `json:"topCategories"`
	TopGenres     []TagCount `json:"topGenres"`
}

// Stats computes dashboard totals and tag counts. artist may be nil for anonymous callers.
//
// Tag counts are ordered by count descending, then slug.
func (s *Store) Stats(ctx context.Context, artist *models.Artist) (*Stats, error) {
	stats := &Stats{}

	songQuery := `
		SELECT COUNT(*), COALESCE(SUM(hidden), 0), COALESCE(SUM(json_array_length(likes)), 0)
		FROM songs
	`
	err := s.db.QueryRowContext(ctx, songQuery).Scan(&stats.Totals.Songs, &stats.Totals.HiddenSongs, &stats.Totals.SongLikes)
	if err != nil {
		return nil, fmt.Errorf("failed to count songs: %w", err)
	}

	albumQuery := `
		SELECT COUNT(*), COALESCE(SUM(hidden), 0), COALESCE(SUM(json_array_length(likes)), 0)
		FROM albums
	`
	err = s.db.QueryRowContext(ctx, albumQuery).Scan(&stats.Totals.Albums, &stats.Totals.HiddenAlbums, &stats.Totals.AlbumLikes)
	if err != nil {
		return nil, fmt.Errorf("failed to count albums: %w", err)
	}

	if artist != nil {
		stats.Totals.Followers = len(artist.Followers)
		stats.Totals.ProfileLikes = len(artist.Likes)
	}

	if stats.TopCategories, err = s.tagCounts(ctx, "category"); err != nil {
		return nil, err
	}
	if stats.TopGenres, err = s.tagCounts(ctx, "genre"); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *Store) tagCounts(ctx context.Context, column string) ([]TagCount, error) {
	query := fmt.Sprintf(`
		SELECT tag.value, COUNT(*) AS n
		FROM songs, json_each(songs.%s) AS tag
		GROUP BY tag.value
		ORDER BY n DESC, tag.value ASC
	`, column)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s tags: %w", column, err)
	}
	defer rows.Close()

	counts := []TagCount{}
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Slug, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan %s count: %w", column, err)
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}
