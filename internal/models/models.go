// package models defines the data model for the artist dashboard
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/apostles/internal/shared"
)

// DefaultArtistType is the account type tag given to artists registered without one.
const DefaultArtistType = "artist"

// Artist is a registered content owner, keyed by email.
//
// Password and OTP never leave the process through JSON.
type Artist struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Password    string    `json:"-"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Verified    bool      `json:"verified"`
	OTP         string    `json:"-"`
	About       string    `json:"about"`
	Description string    `json:"description"`
	ProfileImg  string    `json:"profileImg"`
	Followers   []string  `json:"followers"`
	Likes       []string  `json:"likes"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewArtist carries the registration fields for [Artist] creation.
type NewArtist struct {
	Email    string
	Password string
	Name     string
	Type     string
}

// Validate checks the fields registration cannot proceed without.
func (n NewArtist) Validate() error {
	var missing []string
	if strings.TrimSpace(n.Email) == "" {
		missing = append(missing, "email")
	}
	if n.Password == "" {
		missing = append(missing, "password")
	}
	if strings.TrimSpace(n.Name) == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", shared.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// ProfilePatch is a partial profile update. Nil fields are left untouched.
type ProfilePatch struct {
	Name        *string `json:"name"`
	Type        *string `json:"type"`
	About       *string `json:"about"`
	Description *string `json:"description"`
	ProfileImg  *string `json:"profileImg"`
}

// Apply merges the non-nil fields of p into a.
func (p ProfilePatch) Apply(a *Artist) {
	setString(&a.Name, p.Name)
	setString(&a.Type, p.Type)
	setString(&a.About, p.About)
	setString(&a.Description, p.Description)
	setString(&a.ProfileImg, p.ProfileImg)
}

// Song is an uploaded track. Author is the artist's display name.
type Song struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	TrackURL    string    `json:"trackUrl"`
	TrackImg    string    `json:"trackImg"`
	Description string    `json:"description"`
	Category    []string  `json:"category"`
	Genre       []string  `json:"genre"`
	TrackID     string    `json:"trackId"`
	Likes       []string  `json:"likes"`
	Hidden      bool      `json:"hidden"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SongUpload carries the fields of a new [Song].
type SongUpload struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	TrackURL    string   `json:"trackUrl"`
	TrackImg    string   `json:"trackImg"`
	Description string   `json:"description"`
	Category    []string `json:"category"`
	Genre       []string `json:"genre"`
	TrackID     string   `json:"trackId"`
}

// Validate checks the fields a song cannot be stored without.
func (u SongUpload) Validate() error {
	if strings.TrimSpace(u.Title) == "" {
		return fmt.Errorf("%w: missing title", shared.ErrValidation)
	}
	return nil
}

// SongPatch is a partial song update. Nil fields are left untouched.
type SongPatch struct {
	Title       *string   `json:"title"`
	Author      *string   `json:"author"`
	TrackURL    *string   `json:"trackUrl"`
	TrackImg    *string   `json:"trackImg"`
	Description *string   `json:"description"`
	Category    *[]string `json:"category"`
	Genre       *[]string `json:"genre"`
	TrackID     *string   `json:"trackId"`
	Hidden      *bool     `json:"hidden"`
}

// Apply merges the non-nil fields of p into s.
func (p SongPatch) Apply(s *Song) {
	setString(&s.Title, p.Title)
	setString(&s.Author, p.Author)
	setString(&s.TrackURL, p.TrackURL)
	setString(&s.TrackImg, p.TrackImg)
	setString(&s.Description, p.Description)
	setStrings(&s.Category, p.Category)
	setStrings(&s.Genre, p.Genre)
	setString(&s.TrackID, p.TrackID)
	if p.Hidden != nil {
		s.Hidden = *p.Hidden
	}
}

// SongFilter narrows a song listing. Zero values match everything.
type SongFilter struct {
	Author   string // exact display name
	Category string // category slug contained in Song.Category
	Query    string // case-insensitive substring of title, author or description
}

// Album groups tracks. TracksID entries reference a [Song] by ID or by TrackID and may dangle.
type Album struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	CoverImg    string    `json:"coverImg"`
	Description string    `json:"description"`
	Category    []string  `json:"category"`
	Genre       []string  `json:"genre"`
	Hidden      bool      `json:"hidden"`
	Likes       []string  `json:"likes"`
	Author      string    `json:"author"`
	TracksID    []string  `json:"tracksId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AlbumUpload carries the fields of a new [Album].
//
// Tracks are created as songs in the same transaction and appended to TracksID.
type AlbumUpload struct {
	Name        string       `json:"name"`
	CoverImg    string       `json:"coverImg"`
	Description string       `json:"description"`
	Category    []string     `json:"category"`
	Genre       []string     `json:"genre"`
	TracksID    []string     `json:"tracksId"`
	Author      string       `json:"author"`
	Tracks      []SongUpload `json:"tracks"`
}

// AlbumPatch is a partial album update. Nil fields are left untouched.
type AlbumPatch struct {
	Name        *string   `json:"name"`
	CoverImg    *string   `json:"coverImg"`
	Description *string   `json:"description"`
	Category    *[]string `json:"category"`
	Genre       *[]string `json:"genre"`
	Author      *string   `json:"author"`
	TracksID    *[]string `json:"tracksId"`
	Hidden      *bool     `json:"hidden"`
}

// Apply merges the non-nil fields of p into a.
func (p AlbumPatch) Apply(a *Album) {
	setString(&a.Name, p.Name)
	setString(&a.CoverImg, p.CoverImg)
	setString(&a.Description, p.Description)
	setStrings(&a.Category, p.Category)
	setStrings(&a.Genre, p.Genre)
	setString(&a.Author, p.Author)
	setStrings(&a.TracksID, p.TracksID)
	if p.Hidden != nil {
		a.Hidden = *p.Hidden
	}
}

// AlbumFilter narrows an album listing. Zero values match everything.
type AlbumFilter struct {
	Author string
}

// Category is a read-only taxonomy entry.
type Category struct {
	Slug string `json:"slug" toml:"slug"`
	Name string `json:"name" toml:"name"`
}

// Genre is a read-only taxonomy entry.
type Genre struct {
	Slug string `json:"slug" toml:"slug"`
	Name string `json:"name" toml:"name"`
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setStrings(dst *[]string, v *[]string) {
	if v == nil {
		return
	}
	if *v == nil {
		*dst = []string{}
		return
	}
	*dst = append([]string{}, (*v)...)
}
