package shared

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestGenerateID(t *testing.T) {
	tc := []struct {
		name   string
		prefix string
		want   string
	}{
		{name: "artist prefix", prefix: "artist", want: "artist_"},
		{name: "song prefix", prefix: "song", want: "song_"},
		{name: "no prefix", prefix: "", want: ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateID(tt.prefix)
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("GenerateID() = %v, want prefix %v", got, tt.want)
			}
			if len(got) != len(tt.want)+36 {
				t.Errorf("GenerateID() = %v, expected a uuid after the prefix", got)
			}
		})
	}

	t.Run("unique", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			id := GenerateID("song")
			if seen[id] {
				t.Fatalf("duplicate id generated: %s", id)
			}
			seen[id] = true
		}
	})
}

func TestSetLogLevel(t *testing.T) {
	t.Run("valid level", func(t *testing.T) {
		logger := NewLogger(&bytes.Buffer{})
		if err := SetLogLevel(logger, "debug"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if logger.GetLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", logger.GetLevel())
		}
	})

	t.Run("empty level keeps current", func(t *testing.T) {
		logger := NewLogger(&bytes.Buffer{})
		logger.SetLevel(log.WarnLevel)
		if err := SetLogLevel(logger, ""); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if logger.GetLevel() != log.WarnLevel {
			t.Errorf("expected warn level, got %v", logger.GetLevel())
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		logger := NewLogger(&bytes.Buffer{})
		err := SetLogLevel(logger, "loud")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestWithLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := WithLogger(NewLogger(buf), "component", "store")
	logger.Info("opened")

	if !strings.Contains(buf.String(), "component=store") {
		t.Errorf("expected child logger fields in output, got %q", buf.String())
	}
}
