package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/apostles/internal/models"
	"github.com/desertthunder/apostles/internal/repositories"
	"github.com/desertthunder/apostles/internal/shared"
	tu "github.com/desertthunder/apostles/internal/testing"
	"github.com/urfave/cli/v3"
)

// run executes a single command through a root command the way main does.
func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "apostles", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"apostles"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{Config: config, Logger: logger, Output: output})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("loadConfig", func(t *testing.T) {
		dir := t.TempDir()

		t.Run("prefers injected config", func(t *testing.T) {
			config := shared.DefaultConfig()
			runner := NewRunner(RunnerOpts{Config: config})

			got, err := runner.loadConfig(filepath.Join(dir, "ignored.toml"))
			if err != nil || got != config {
				t.Errorf("loadConfig() = %v, %v", got, err)
			}
		})

		t.Run("missing file uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(&bytes.Buffer{})})

			got, err := runner.loadConfig(filepath.Join(dir, "missing.toml"))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got.Server.Port != shared.DefaultConfig().Server.Port {
				t.Errorf("expected default port, got %d", got.Server.Port)
			}
		})

		t.Run("invalid file fails", func(t *testing.T) {
			path := filepath.Join(dir, "broken.toml")
			os.WriteFile(path, []byte("[server\nport ="), 0644)

			runner := NewRunner(RunnerOpts{})
			if _, err := runner.loadConfig(path); err == nil {
				t.Error("expected parse error")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "{\"key\":\"value\"}\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("writes pretty JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(output.String(), "\n  \"key\": \"value\"\n") {
				t.Errorf("expected indented output, got %q", output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for _, cmd := range commands {
			names[cmd.Name] = true
		}
		for _, want := range []string{"serve", "setup", "taxonomy", "export"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})
}

func TestSetupCommands(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	t.Run("config", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(&bytes.Buffer{})})

		if err := run(t, runner, "setup", "config", "--config", configPath); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}
		tu.AssertFileExists(t, configPath)
		if !strings.Contains(tu.MustReadFile(t, configPath), "[server]") {
			t.Error("expected written config to contain the server section")
		}

		if err := run(t, runner, "setup", "config", "--config", configPath); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("database", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(dir, "apostles.db")
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Config: config, Output: output, Logger: shared.NewLogger(&bytes.Buffer{})})

		if err := run(t, runner, "setup", "database"); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}
		tu.AssertFileExists(t, config.Database.Path)
		if !strings.HasPrefix(output.String(), "Applied ") {
			t.Errorf("unexpected output %q", output.String())
		}

		output.Reset()
		if err := run(t, runner, "setup", "database"); err != nil {
			t.Fatalf("second setup failed: %v", err)
		}
		if !strings.HasPrefix(output.String(), "Applied 0 migration(s)") {
			t.Errorf("expected no pending migrations, got %q", output.String())
		}

		output.Reset()
		if err := run(t, runner, "setup", "rollback"); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}
		if !strings.HasPrefix(output.String(), "Rolled back migration ") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("memory database is skipped", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Path = shared.MemoryPath
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Config: config, Output: output, Logger: shared.NewLogger(&bytes.Buffer{})})

		if err := run(t, runner, "setup", "database"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.Len() != 0 {
			t.Errorf("expected no output, got %q", output.String())
		}
	})
}

func TestTaxonomyCommand(t *testing.T) {
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig(), Output: output})

	if err := run(t, runner, "taxonomy", "--pretty=false"); err != nil {
		t.Fatalf("taxonomy failed: %v", err)
	}

	var body struct {
		Categories []map[string]string `json:"categories"`
		Genres     []map[string]string `json:"genres"`
	}
	if err := json.Unmarshal(output.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode output %q: %v", output.String(), err)
	}
	if len(body.Categories) == 0 || len(body.Genres) == 0 {
		t.Errorf("expected built-in taxonomy, got %+v", body)
	}
}

func TestNewAPI(t *testing.T) {
	t.Run("serves the configured routes", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Path = shared.MemoryPath
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(&bytes.Buffer{})})

		handler, store, err := runner.newAPI(config)
		if err != nil {
			t.Fatalf("newAPI failed: %v", err)
		}
		defer store.Close()

		rec := tu.Serve(handler, tu.JSONRequest(t, http.MethodGet, "/api/content/categories", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if body := tu.DecodeJSON(t, rec); body["success"] != true {
			t.Errorf("unexpected body %v", body)
		}
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		tt := []struct {
			name   string
			modify func(*shared.Config)
		}{
			{name: "port", modify: func(c *shared.Config) { c.Server.Port = 0 }},
			{name: "ttl", modify: func(c *shared.Config) { c.Session.TTL = "soon" }},
			{name: "log level", modify: func(c *shared.Config) { c.Log.Level = "loud" }},
			{name: "taxonomy", modify: func(c *shared.Config) { c.Content.TaxonomyPath = filepath.Join(t.TempDir(), "none.toml") }},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				config := shared.DefaultConfig()
				config.Database.Path = shared.MemoryPath
				tc.modify(config)

				runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(&bytes.Buffer{})})
				if _, _, err := runner.newAPI(config); err == nil {
					t.Error("expected error")
				}
			})
		}
	})
}

func TestExportCommands(t *testing.T) {
	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(dir, "catalog.db")

	store, err := repositories.Open(config.Database.Path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	ctx := context.Background()
	song, _ := store.Songs.Create(ctx, models.SongUpload{Title: "Grace", Author: "Ann"})
	store.Songs.Create(ctx, models.SongUpload{Title: "Jubilee", Author: "Bob"})
	album, err := store.Albums.Create(ctx, models.AlbumUpload{Name: "Psalms", Author: "Ann", TracksID: []string{song.ID}})
	if err != nil {
		t.Fatalf("failed to create album: %v", err)
	}
	store.Close()

	t.Run("songs", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Config: config, Output: output, Logger: shared.NewLogger(&bytes.Buffer{})})
		path := filepath.Join(dir, "ann.csv")

		if err := run(t, runner, "export", "songs", "--author", "Ann", "--output", path); err != nil {
			t.Fatalf("export songs failed: %v", err)
		}
		if !strings.HasPrefix(output.String(), "Exported 1 song(s)") {
			t.Errorf("unexpected output %q", output.String())
		}

		content := tu.MustReadFile(t, path)
		if !strings.Contains(content, "Grace") || strings.Contains(content, "Jubilee") {
			t.Errorf("expected only Ann's songs, got %s", content)
		}
	})

	t.Run("album", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Config: config, Output: &bytes.Buffer{}, Logger: shared.NewLogger(&bytes.Buffer{})})
		out := filepath.Join(dir, "psalms")

		if err := run(t, runner, "export", "album", "--id", album.ID, "--output", out); err != nil {
			t.Fatalf("export album failed: %v", err)
		}
		if !strings.Contains(tu.MustReadFile(t, filepath.Join(out, "README.md")), "1. Ann - Grace") {
			t.Error("expected resolved track in README")
		}

		if err := run(t, runner, "export", "album", "--id", "album_missing"); err == nil {
			t.Error("expected error for unknown album")
		}
	})

	t.Run("albums", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Config: config, Output: output, Logger: shared.NewLogger(&bytes.Buffer{})})
		out := filepath.Join(dir, "bulk")

		if err := run(t, runner, "export", "albums", "--output", out, "--workers", "2"); err != nil {
			t.Fatalf("export albums failed: %v", err)
		}
		if !strings.HasPrefix(output.String(), "Exported 1 of 1 album(s)") {
			t.Errorf("unexpected output %q", output.String())
		}
		tu.AssertFileExists(t, filepath.Join(out, "export_manifest.json"))
		tu.AssertFileExists(t, filepath.Join(out, album.ID, "README.md"))
	})

	t.Run("memory database is rejected", func(t *testing.T) {
		memory := shared.DefaultConfig()
		memory.Database.Path = shared.MemoryPath
		runner := NewRunner(RunnerOpts{Config: memory, Output: &bytes.Buffer{}})

		if err := run(t, runner, "export", "songs"); err == nil {
			t.Error("expected error for in-memory database")
		}
	})
}
