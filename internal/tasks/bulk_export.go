package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/apostles/internal/formatter"
	"github.com/desertthunder/apostles/internal/models"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers = 4
	maxWorkers     = 10
	manifestName   = "export_manifest.json"
)

// AlbumSource loads albums and resolves their track references.
// [repositories.AlbumRepository] satisfies it.
type AlbumSource interface {
	Get(ctx context.Context, id string) (*models.Album, error)
	Tracks(ctx context.Context, album *models.Album) ([]*models.Song, error)
}

// BulkExportOpts contains configuration for bulk album exports.
type BulkExportOpts struct {
	OutputDir  string  // Base output directory (default: album_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 4, max: 10)
	RateLimit  float64 // Albums started per second; 0 means unlimited
	Logger     *log.Logger
}

// AlbumExportResult is the outcome for a single album.
type AlbumExportResult struct {
	AlbumID   string `json:"albumId"`
	AlbumName string `json:"albumName,omitempty"`
	Tracks    int    `json:"tracks"`
	File      string `json:"file,omitempty"`
	Success   bool   `json:"success"`
	Error     error  `json:"-"`
	Message   string `json:"error,omitempty"`
}

// BulkExportResult summarizes a [BulkExport] run. It doubles as the manifest.
type BulkExportResult struct {
	TotalAlbums       int                 `json:"totalAlbums"`
	SuccessfulExports int                 `json:"successfulExports"`
	FailedExports     int                 `json:"failedExports"`
	OutputDirectory   string              `json:"outputDirectory"`
	ExportedAt        time.Time           `json:"exportedAt"`
	Results           []AlbumExportResult `json:"results"`
	ManifestPath      string              `json:"-"`
}

type exportJob struct {
	index   int
	albumID string
}

// BulkExport exports the given albums concurrently and writes a manifest.
//
// A per-album failure never aborts the run; only failing to create the output
// directory or write the manifest returns an error.
func BulkExport(ctx context.Context, src AlbumSource, ids []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("album_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	limiter := rate.NewLimiter(limit, 1)

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalAlbums:     len(ids),
		OutputDirectory: opts.OutputDir,
		ExportedAt:      time.Now().UTC(),
		Results:         make([]AlbumExportResult, len(ids)),
	}

	jobs := make(chan exportJob)

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				result.Results[job.index] = exportAlbum(ctx, src, job.albumID, opts.OutputDir)
			}
		}()
	}

	next := 0
	for ; next < len(ids); next++ {
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		jobs <- exportJob{index: next, albumID: ids[next]}
	}
	close(jobs)
	wg.Wait()

	for i := next; i < len(ids); i++ {
		result.Results[i] = failed(ids[i], fmt.Errorf("export cancelled: %w", ctx.Err()))
	}

	for _, res := range result.Results {
		if res.Success {
			result.SuccessfulExports++
			opts.Logger.Debug("album exported", "album", res.AlbumID, "file", res.File)
		} else {
			result.FailedExports++
			opts.Logger.Warn("album export failed", "album", res.AlbumID, "error", res.Error)
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

func exportAlbum(ctx context.Context, src AlbumSource, albumID, outputDir string) AlbumExportResult {
	if err := ctx.Err(); err != nil {
		return failed(albumID, fmt.Errorf("export cancelled: %w", err))
	}

	album, err := src.Get(ctx, albumID)
	if err != nil {
		return failed(albumID, err)
	}

	tracks, err := src.Tracks(ctx, album)
	if err != nil {
		return failed(albumID, fmt.Errorf("failed to resolve tracks: %w", err))
	}

	path, err := formatter.WriteAlbumExport(album, tracks, filepath.Join(outputDir, album.ID))
	if err != nil {
		return failed(albumID, err)
	}

	return AlbumExportResult{
		AlbumID:   album.ID,
		AlbumName: album.Name,
		Tracks:    len(tracks),
		File:      path,
		Success:   true,
	}
}

func failed(albumID string, err error) AlbumExportResult {
	return AlbumExportResult{AlbumID: albumID, Error: err, Message: err.Error()}
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
