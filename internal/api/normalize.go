package api

import "github.com/desertthunder/apostles/internal/models"

// ArtistPayload is the public shape of an artist. It never carries the password or a pending OTP.
type ArtistPayload struct {
	ID          string   `json:"id"`
	LegacyID    string   `json:"_id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Type        string   `json:"type"`
	Verified    bool     `json:"verified"`
	ProfileImg  string   `json:"profileImg"`
	About       string   `json:"about"`
	Description string   `json:"description"`
	Followers   []string `json:"followers"`
	Likes       []string `json:"likes"`
}

// NormalizeArtist projects an artist onto [ArtistPayload]. Nil sets become empty; a nil artist yields nil.
func NormalizeArtist(a *models.Artist) *ArtistPayload {
	if a == nil {
		return nil
	}

	p := &ArtistPayload{
		ID:          a.ID,
		LegacyID:    a.ID,
		Name:        a.Name,
		Email:       a.Email,
		Type:        a.Type,
		Verified:    a.Verified,
		ProfileImg:  a.ProfileImg,
		About:       a.About,
		Description: a.Description,
		Followers:   a.Followers,
		Likes:       a.Likes,
	}
	if p.Followers == nil {
		p.Followers = []string{}
	}
	if p.Likes == nil {
		p.Likes = []string{}
	}
	return p
}

// NormalizeArtists projects a list of artists.
func NormalizeArtists(artists []*models.Artist) []*ArtistPayload {
	out := make([]*ArtistPayload, 0, len(artists))
	for _, a := range artists {
		out = append(out, NormalizeArtist(a))
	}
	return out
}
