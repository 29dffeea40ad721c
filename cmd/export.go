package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/apostles/internal/formatter"
	"github.com/desertthunder/apostles/internal/models"
	"github.com/desertthunder/apostles/internal/repositories"
	"github.com/desertthunder/apostles/internal/shared"
	"github.com/desertthunder/apostles/internal/tasks"
	"github.com/urfave/cli/v3"
)

// openStore opens the configured database for offline commands.
// In-memory stores are rejected because a fresh one is always empty.
func (r *Runner) openStore(cmd *cli.Command) (*repositories.Store, error) {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if shared.IsMemoryPath(config.Database.Path) {
		return nil, fmt.Errorf("%w: export needs a file database, not %s", shared.ErrInvalidConfig, config.Database.Path)
	}

	return repositories.Open(config.Database.Path)
}

// ExportSongs writes every song, newest first, in the requested format.
func (r *Runner) ExportSongs(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	songs, err := store.Songs.List(ctx, models.SongFilter{Author: cmd.String("author")})
	if err != nil {
		return fmt.Errorf("failed to list songs: %w", err)
	}

	path, err := formatter.WriteSongsExport(songs, cmd.String("format"), cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("songs exported", "count", len(songs), "path", path)
	return r.writePlain("Exported %d song(s) to %s\n", len(songs), path)
}

// ExportAlbum writes an album README with its resolved tracks.
func (r *Runner) ExportAlbum(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	album, err := store.Albums.Get(ctx, cmd.String("id"))
	if err != nil {
		return err
	}

	tracks, err := store.Albums.Tracks(ctx, album)
	if err != nil {
		return fmt.Errorf("failed to resolve tracks: %w", err)
	}

	path, err := formatter.WriteAlbumExport(album, tracks, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("album exported", "album", album.ID, "tracks", len(tracks), "path", path)
	return r.writePlain("Exported album %q to %s\n", album.Name, path)
}

// ExportAlbums writes every album, or every album by --author, through the bulk export worker pool.
func (r *Runner) ExportAlbums(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	albums, err := store.Albums.List(ctx, models.AlbumFilter{Author: cmd.String("author")})
	if err != nil {
		return fmt.Errorf("failed to list albums: %w", err)
	}

	ids := make([]string, 0, len(albums))
	for _, album := range albums {
		ids = append(ids, album.ID)
	}

	result, err := tasks.BulkExport(ctx, store.Albums, ids, tasks.BulkExportOpts{
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
		Logger:     r.logger,
	})
	if err != nil {
		return err
	}

	r.writePlain("Exported %d of %d album(s) to %s\n", result.SuccessfulExports, result.TotalAlbums, result.OutputDirectory)
	if result.FailedExports > 0 {
		return fmt.Errorf("%d album export(s) failed, see %s", result.FailedExports, result.ManifestPath)
	}
	return nil
}
