// package formatter renders catalog snapshots (songs, albums) as CSV, Markdown and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/apostles/internal/models"
)

// Format names accepted by [Songs].
const (
	FormatCSV      = "csv"
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// SongsToCSV converts songs to CSV with columns: ID, Title, Author, TrackID, Category, Genre, Likes, Hidden.
//
// List columns are joined with ";".
func SongsToCSV(songs []*models.Song) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Author", "TrackID", "Category", "Genre", "Likes", "Hidden"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		record := []string{
			song.ID,
			song.Title,
			song.Author,
			song.TrackID,
			strings.Join(song.Category, ";"),
			strings.Join(song.Genre, ";"),
			strconv.Itoa(len(song.Likes)),
			strconv.FormatBool(song.Hidden),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// SongsToText lists songs one per line as "n. Author - Title".
func SongsToText(songs []*models.Song) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Songs: %d\n\n", len(songs)))
	for i, song := range songs {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, song.Author, song.Title))
	}

	return buf.Bytes(), nil
}

// SongsToMarkdown renders songs as a Markdown table.
func SongsToMarkdown(songs []*models.Song) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("| # | Title | Author | Track | Visibility |\n")
	buf.WriteString("|---|---|---|---|---|\n")
	for i, song := range songs {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			i+1, escapeCell(song.Title), escapeCell(song.Author), song.TrackID, visibility(song.Hidden)))
	}

	return buf.Bytes(), nil
}

// Songs renders songs in the named format.
func Songs(songs []*models.Song, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return SongsToCSV(songs)
	case FormatText:
		return SongsToText(songs)
	case FormatMarkdown:
		return SongsToMarkdown(songs)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// AlbumToMarkdown renders an album and its resolved tracks, linking the cover image when set.
func AlbumToMarkdown(album *models.Album, tracks []*models.Song) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", album.Name))

	if album.CoverImg != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", album.CoverImg))
	}

	if album.Author != "" {
		buf.WriteString(fmt.Sprintf("**Author**: %s\n\n", album.Author))
	}

	if album.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", album.Description))
	}

	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(tracks)))
	buf.WriteString(fmt.Sprintf("**Visibility**: %s\n\n", visibility(album.Hidden)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range tracks {
		codePart := ""
		if track.TrackID != "" {
			codePart = fmt.Sprintf(" [%s]", track.TrackID)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s\n", i+1, track.Author, track.Title, codePart))
	}

	return buf.Bytes(), nil
}

// WriteSongsExport writes songs to path in the named format.
//
// Defaults to songs.{ext} in the working directory.
func WriteSongsExport(songs []*models.Song, format, path string) (string, error) {
	data, err := Songs(songs, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = "songs." + extension(format)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

// WriteAlbumExport writes {dir}/README.md for the album. Directory name defaults to the album ID.
func WriteAlbumExport(album *models.Album, tracks []*models.Song, dir string) (string, error) {
	if dir == "" {
		dir = album.ID
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := AlbumToMarkdown(album, tracks)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	path := filepath.Join(dir, "README.md")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return path, nil
}

func visibility(hidden bool) string {
	if hidden {
		return "Hidden"
	}
	return "Visible"
}

func extension(format string) string {
	switch format {
	case FormatText:
		return "txt"
	case FormatMarkdown:
		return "md"
	default:
		return format
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
