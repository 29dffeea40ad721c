package api

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/apostles/internal/models"
	"github.com/desertthunder/apostles/internal/shared"
)

//go:embed taxonomy.toml
var defaultTaxonomy string

// Taxonomy is the read-only category and genre reference data.
type Taxonomy struct {
	Categories []models.Category `json:"categories" toml:"categories"`
	Genres     []models.Genre    `json:"genres" toml:"genres"`
}

// DefaultTaxonomy returns the built-in taxonomy.
func DefaultTaxonomy() *Taxonomy {
	var t Taxonomy
	if _, err := toml.Decode(defaultTaxonomy, &t); err != nil {
		panic(fmt.Sprintf("embedded taxonomy is invalid: %v", err))
	}
	t.normalize()
	return &t
}

// LoadTaxonomy reads a taxonomy file. An empty path returns [DefaultTaxonomy].
func LoadTaxonomy(path string) (*Taxonomy, error) {
	if path == "" {
		return DefaultTaxonomy(), nil
	}

	var t Taxonomy
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("%w: failed to decode taxonomy: %v", shared.ErrInvalidConfig, err)
	}

	seen := map[string]bool{}
	for _, c := range t.Categories {
		if c.Slug == "" || seen["c:"+c.Slug] {
			return nil, fmt.Errorf("%w: empty or duplicate category slug %q", shared.ErrInvalidConfig, c.Slug)
		}
		seen["c:"+c.Slug] = true
	}
	for _, g := range t.Genres {
		if g.Slug == "" || seen["g:"+g.Slug] {
			return nil, fmt.Errorf("%w: empty or duplicate genre slug %q", shared.ErrInvalidConfig, g.Slug)
		}
		seen["g:"+g.Slug] = true
	}

	t.normalize()
	return &t, nil
}

// Category finds a category by exact slug.
func (t *Taxonomy) Category(slug string) (models.Category, bool) {
	for _, c := range t.Categories {
		if c.Slug == slug {
			return c, true
		}
	}
	return models.Category{}, false
}

// Genre finds a genre by exact slug.
func (t *Taxonomy) Genre(slug string) (models.Genre, bool) {
	for _, g := range t.Genres {
		if g.Slug == slug {
			return g, true
		}
	}
	return models.Genre{}, false
}

func (t *Taxonomy) normalize() {
	if t.Categories == nil {
		t.Categories = []models.Category{}
	}
	if t.Genres == nil {
		t.Genres = []models.Genre{}
	}
}
