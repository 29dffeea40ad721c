package api

import (
	"net/http"

	"github.com/desertthunder/apostles/internal/models"
)

const (
	untitledSong  = "Untitled"
	untitledAlbum = "Untitled Album"
)

type songEdit struct {
	SongID string `json:"songId"`
	models.SongPatch
}

type albumUploadBody struct {
	models.AlbumUpload
	Title string   `json:"title"`
	Songs []string `json:"songs"`
}

type albumEdit struct {
	AlbumID string  `json:"albumId"`
	Title   *string `json:"title"`
	models.AlbumPatch
}

type albumSongUpload struct {
	AlbumID  string `json:"albumId"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	TrackURL string `json:"trackUrl"`
	TrackImg string `json:"trackImg"`
}

// authorFor falls back to the caller's display name when an upload names no author.
func (h *ArtistHandler) authorFor(r *http.Request, author string) (string, error) {
	if author != "" {
		return author, nil
	}

	artist, err := h.caller(r)
	if err != nil || artist == nil {
		return author, err
	}
	return artist.Name, nil
}

func (h *ArtistHandler) uploadSong(w http.ResponseWriter, r *http.Request) {
	upload := decodeBody[models.SongUpload](r)
	if err := upload.Validate(); err != nil {
		fail(w, h.logger, err)
		return
	}

	author, err := h.authorFor(r, upload.Author)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	upload.Author = author

	song, err := h.store.Songs.Create(r.Context(), upload)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "", envelope{"song": song})
}

func (h *ArtistHandler) editSong(w http.ResponseWriter, r *http.Request) {
	body := decodeBody[songEdit](r)

	song, err := h.store.Songs.Update(r.Context(), body.SongID, body.SongPatch)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "", envelope{"song": song})
}

func (h *ArtistHandler) removeSong(w http.ResponseWriter, r *http.Request) {
	body := decodeBody[songEdit](r)

	if err := h.store.Songs.Delete(r.Context(), body.SongID); err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "Song removed", nil)
}

func (h *ArtistHandler) hideSong(hidden bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody[songEdit](r)

		song, err := h.store.Songs.SetHidden(r.Context(), body.SongID, hidden)
		if err != nil {
			fail(w, h.logger, err)
			return
		}
		ok(w, "", envelope{"song": song})
	}
}

// uploadAlbum accepts "title" as an alias for "name" and "songs" as an alias for "tracksId".
func (h *ArtistHandler) uploadAlbum(w http.ResponseWriter, r *http.Request) {
	body := decodeBody[albumUploadBody](r)

	upload := body.AlbumUpload
	upload.Name = orDefault(upload.Name, orDefault(body.Title, untitledAlbum))
	if len(upload.TracksID) == 0 {
		upload.TracksID = body.Songs
	}

	author, err := h.authorFor(r, upload.Author)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	upload.Author = author

	album, err := h.store.Albums.Create(r.Context(), upload)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "", envelope{"album": album})
}

func (h *ArtistHandler) editAlbum(w http.ResponseWriter, r *http.Request) {
	body := decodeBody[albumEdit](r)

	patch := body.AlbumPatch
	if body.Title != nil && *body.Title != "" {
		patch.Name = body.Title
	}

	album, err := h.store.Albums.Update(r.Context(), body.AlbumID, patch)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "", envelope{"album": album})
}

func (h *ArtistHandler) removeAlbum(w http.ResponseWriter, r *http.Request) {
	body := decodeBody[albumEdit](r)

	if err := h.store.Albums.Delete(r.Context(), body.AlbumID); err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "Album removed", nil)
}

func (h *ArtistHandler) hideAlbum(hidden bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody[albumEdit](r)

		album, err := h.store.Albums.SetHidden(r.Context(), body.AlbumID, hidden)
		if err != nil {
			fail(w, h.logger, err)
			return
		}
		ok(w, "", envelope{"album": album})
	}
}

// uploadAlbumSong creates a song with a generated track code and appends it to the album.
func (h *ArtistHandler) uploadAlbumSong(w http.ResponseWriter, r *http.Request) {
	body := decodeBody[albumSongUpload](r)

	album, song, err := h.store.Albums.AddSong(r.Context(), body.AlbumID, models.SongUpload{
		Title:    orDefault(body.Title, untitledSong),
		Author:   body.Author,
		TrackURL: body.TrackURL,
		TrackImg: body.TrackImg,
		Category: []string{},
		Genre:    []string{},
		TrackID:  trackCode(),
	})
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "", envelope{"album": album, "song": song})
}
