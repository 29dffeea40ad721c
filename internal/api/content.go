package api

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/apostles/internal/models"
	"github.com/desertthunder/apostles/internal/repositories"
	"github.com/desertthunder/apostles/internal/server"
	"github.com/desertthunder/apostles/internal/shared"
)

// ContentHandler serves the read-only public catalog under /api/content.
type ContentHandler struct {
	store    *repositories.Store
	taxonomy *Taxonomy
	logger   *log.Logger
}

// NewContentHandler creates a [ContentHandler] from the shared API options.
func NewContentHandler(opts Options) *ContentHandler {
	opts = opts.withDefaults()
	return &ContentHandler{
		store:    opts.Store,
		taxonomy: opts.Taxonomy,
		logger:   shared.WithLogger(opts.Logger, "handler", "content"),
	}
}

// Routes implements [server.Handler].
func (h *ContentHandler) Routes() []server.Route {
	return []server.Route{
		{Method: http.MethodGet, Pattern: "/categories", Handler: h.categories},
		{Method: http.MethodGet, Pattern: "/categories/{slug}", Handler: h.category},
		{Method: http.MethodGet, Pattern: "/genres", Handler: h.genres},
		{Method: http.MethodGet, Pattern: "/genres/{slug}", Handler: h.genre},
		{Method: http.MethodGet, Pattern: "/songs", Handler: h.songs},
		{Method: http.MethodGet, Pattern: "/songs/{id}", Handler: h.song},
		{Method: http.MethodGet, Pattern: "/songs/track/{trackId}", Handler: h.songByTrack},
		{Method: http.MethodGet, Pattern: "/songs/search/{query}", Handler: h.search},
		{Method: http.MethodGet, Pattern: "/songs/category/{category}", Handler: h.songsInCategory},
		{Method: http.MethodGet, Pattern: "/albums/{id}", Handler: h.album},
		{Method: http.MethodGet, Pattern: "/playlists", Handler: h.playlists},
		{Method: http.MethodGet, Pattern: "/playlists/{id}", Handler: h.playlist},
		{Method: http.MethodGet, Pattern: "/discover", Handler: h.discover},
	}
}

func (h *ContentHandler) categories(w http.ResponseWriter, r *http.Request) {
	ok(w, "", envelope{"categories": h.taxonomy.Categories})
}

func (h *ContentHandler) category(w http.ResponseWriter, r *http.Request) {
	category, found := h.taxonomy.Category(pathParam(r, "slug"))
	if !found {
		server.WriteError(w, http.StatusNotFound, "Category not found")
		return
	}
	ok(w, "", envelope{"category": category})
}

func (h *ContentHandler) genres(w http.ResponseWriter, r *http.Request) {
	ok(w, "", envelope{"genres": h.taxonomy.Genres})
}

func (h *ContentHandler) genre(w http.ResponseWriter, r *http.Request) {
	genre, found := h.taxonomy.Genre(pathParam(r, "slug"))
	if !found {
		server.WriteError(w, http.StatusNotFound, "Genre not found")
		return
	}
	ok(w, "", envelope{"genre": genre})
}

func (h *ContentHandler) songs(w http.ResponseWriter, r *http.Request) {
	h.listSongs(w, r, models.SongFilter{})
}

func (h *ContentHandler) song(w http.ResponseWriter, r *http.Request) {
	song, err := h.store.Songs.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "", envelope{"song": song})
}

func (h *ContentHandler) songByTrack(w http.ResponseWriter, r *http.Request) {
	song, err := h.store.Songs.GetByTrackID(r.Context(), pathParam(r, "trackId"))
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "", envelope{"song": song})
}

func (h *ContentHandler) search(w http.ResponseWriter, r *http.Request) {
	h.listSongs(w, r, models.SongFilter{Query: pathParam(r, "query")})
}

func (h *ContentHandler) songsInCategory(w http.ResponseWriter, r *http.Request) {
	h.listSongs(w, r, models.SongFilter{Category: pathParam(r, "category")})
}

func (h *ContentHandler) listSongs(w http.ResponseWriter, r *http.Request, filter models.SongFilter) {
	songs, err := h.store.Songs.List(r.Context(), filter)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "", envelope{"songs": songs})
}

// album returns the album with its track references resolved to songs.
func (h *ContentHandler) album(w http.ResponseWriter, r *http.Request) {
	album, err := h.store.Albums.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		fail(w, h.logger, err)
		return
	}

	tracks, err := h.store.Albums.Tracks(r.Context(), album)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "", envelope{"album": album, "tracks": tracks})
}

func (h *ContentHandler) playlists(w http.ResponseWriter, r *http.Request) {
	ok(w, "", envelope{"playlists": []any{}})
}

func (h *ContentHandler) playlist(w http.ResponseWriter, r *http.Request) {
	ok(w, "", envelope{"playlist": nil})
}

func (h *ContentHandler) discover(w http.ResponseWriter, r *http.Request) {
	songs, err := h.store.Songs.List(r.Context(), models.SongFilter{})
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "", envelope{"categories": h.taxonomy.Categories, "genres": h.taxonomy.Genres, "songs": songs})
}
