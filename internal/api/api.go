// package api implements the artist and content HTTP endpoints of the dashboard.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"maps"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/apostles/internal/auth"
	"github.com/desertthunder/apostles/internal/repositories"
	"github.com/desertthunder/apostles/internal/server"
	"github.com/desertthunder/apostles/internal/shared"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// Options holds the dependencies shared by the API handlers.
type Options struct {
	Store    *repositories.Store
	Tokens   *auth.TokenAuthority
	Taxonomy *Taxonomy
	Session  shared.SessionConfig
	Logger   *log.Logger
}

// withDefaults fills unset options. Store is required.
func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = shared.NewLogger(nil)
	}
	if o.Taxonomy == nil {
		o.Taxonomy = DefaultTaxonomy()
	}
	if o.Tokens == nil {
		o.Tokens = auth.NewTokenAuthority(0)
	}
	if o.Session.AccessCookie == "" || o.Session.RefreshCookie == "" {
		defaults := shared.DefaultConfig().Session
		o.Session.AccessCookie = defaults.AccessCookie
		o.Session.RefreshCookie = defaults.RefreshCookie
	}
	return o
}

// NewRouter builds the dashboard router: request ID, logging, panic recovery and identity resolution
// wrap every route of the artist ("/api/artist") and content ("/api/content") handlers.
func NewRouter(opts Options) *server.BasicRouter {
	opts = opts.withDefaults()

	router := server.NewBasicRouter()
	router.Use(
		server.RequestID(),
		server.RequestLogger(opts.Logger),
		server.Recover(opts.Logger),
		auth.Identify(opts.Tokens, opts.Session.AccessCookie),
	)
	router.Handler("/api/artist", NewArtistHandler(opts))
	router.Handler("/api/content", NewContentHandler(opts))
	return router
}

// envelope is a successful response body. Payload keys sit beside "success" and "message".
type envelope map[string]any

func ok(w http.ResponseWriter, message string, payload envelope) {
	body := envelope{"success": true}
	if message != "" {
		body["message"] = message
	}
	maps.Copy(body, payload)
	server.WriteJSON(w, http.StatusOK, body)
}

// decodeBody reads a JSON request body into T. Missing or malformed bodies yield the zero value.
func decodeBody[T any](r *http.Request) T {
	var v T
	if r.Body == nil {
		return v
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(raw) == 0 {
		return v
	}

	var decoded T
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return v
	}
	return decoded
}

// pathParam returns the decoded chi URL parameter.
// chi matches against RawPath when it is set, so only then is the segment still escaped.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return raw
	}
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// statusFor maps store and auth errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInvalidOTP):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrUnauthorized), errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, shared.ErrArtistNotFound):
		return "Artist not found"
	case errors.Is(err, shared.ErrSongNotFound):
		return "Song not found"
	case errors.Is(err, shared.ErrAlbumNotFound):
		return "Album not found"
	case errors.Is(err, shared.ErrNotFound):
		return "Not found"
	case errors.Is(err, shared.ErrArtistExists):
		return "Artist already exists"
	case errors.Is(err, shared.ErrValidation):
		return "Missing fields"
	case errors.Is(err, shared.ErrInvalidOTP):
		return "Invalid OTP"
	case errors.Is(err, shared.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, shared.ErrUnauthorized):
		return "Unauthorized"
	default:
		return "Internal server error"
	}
}

// fail writes the error envelope for err. Unexpected errors are logged before answering 500.
func fail(w http.ResponseWriter, logger *log.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}
	server.WriteError(w, status, messageFor(err))
}
