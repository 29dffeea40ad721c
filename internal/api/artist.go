package api

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/apostles/internal/auth"
	"github.com/desertthunder/apostles/internal/models"
	"github.com/desertthunder/apostles/internal/repositories"
	"github.com/desertthunder/apostles/internal/server"
	"github.com/desertthunder/apostles/internal/shared"
)

// ArtistHandler serves account, profile and catalog management under /api/artist.
type ArtistHandler struct {
	store   *repositories.Store
	tokens  *auth.TokenAuthority
	session shared.SessionConfig
	logger  *log.Logger
}

// NewArtistHandler creates an [ArtistHandler] from the shared API options.
func NewArtistHandler(opts Options) *ArtistHandler {
	opts = opts.withDefaults()
	return &ArtistHandler{
		store:   opts.Store,
		tokens:  opts.Tokens,
		session: opts.Session,
		logger:  shared.WithLogger(opts.Logger, "handler", "artist"),
	}
}

// Routes implements [server.Handler].
func (h *ArtistHandler) Routes() []server.Route {
	return []server.Route{
		{Method: http.MethodGet, Pattern: "/dashboard/stats", Handler: h.stats},
		{Method: http.MethodGet, Pattern: "/profile/me", Handler: h.profile},
		{Method: http.MethodGet, Pattern: "/song/my", Handler: h.mySongs},
		{Method: http.MethodGet, Pattern: "/album/my", Handler: h.myAlbums},
		{Method: http.MethodGet, Pattern: "/getAllArtists", Handler: h.allArtists},
		{Method: http.MethodGet, Pattern: "/getArtistById/{id}", Handler: h.artistByID},
		{Method: http.MethodGet, Pattern: "/getArtistByName/{name}", Handler: h.artistByName},
		{Method: http.MethodGet, Pattern: "/isVerified", Handler: h.isVerified},

		{Method: http.MethodPost, Pattern: "/register", Handler: h.register},
		{Method: http.MethodPost, Pattern: "/login", Handler: h.login},
		{Method: http.MethodPost, Pattern: "/verifyOtp", Handler: h.verifyOTP},
		{Method: http.MethodPost, Pattern: "/resendOtp", Handler: h.resendOTP},
		{Method: http.MethodPost, Pattern: "/forgotPassword", Handler: h.forgotPassword},
		{Method: http.MethodPost, Pattern: "/resetPassword", Handler: h.resetPassword},
		{Method: http.MethodPost, Pattern: "/logout", Handler: h.logout},
		{Method: http.MethodPost, Pattern: "/followArtist", Handler: h.follow},
		{Method: http.MethodPost, Pattern: "/likeArtist", Handler: h.like},
		{Method: http.MethodPost, Pattern: "/deleteArtist", Handler: h.deleteArtist},
		{Method: http.MethodPost, Pattern: "/profile/edit", Handler: h.editProfile},

		{Method: http.MethodPost, Pattern: "/song/upload", Handler: h.uploadSong},
		{Method: http.MethodPost, Pattern: "/song/edit", Handler: h.editSong},
		{Method: http.MethodPost, Pattern: "/song/remove", Handler: h.removeSong},
		{Method: http.MethodPost, Pattern: "/song/hide", Handler: h.hideSong(true)},
		{Method: http.MethodPost, Pattern: "/song/unhide", Handler: h.hideSong(false)},

		{Method: http.MethodPost, Pattern: "/album/upload", Handler: h.uploadAlbum},
		{Method: http.MethodPost, Pattern: "/album/edit", Handler: h.editAlbum},
		{Method: http.MethodPost, Pattern: "/album/remove", Handler: h.removeAlbum},
		{Method: http.MethodPost, Pattern: "/album/hide", Handler: h.hideAlbum(true)},
		{Method: http.MethodPost, Pattern: "/album/unhide", Handler: h.hideAlbum(false)},
		{Method: http.MethodPost, Pattern: "/album/song/upload", Handler: h.uploadAlbumSong},
	}
}

type credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type artistRef struct {
	ArtistID string `json:"artistId"`
	UserID   string `json:"userId"`
}

// caller resolves the authenticated artist. Anonymous callers and stale identities yield nil.
func (h *ArtistHandler) caller(r *http.Request) (*models.Artist, error) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		return nil, nil
	}

	artist, err := h.store.Artists.GetByEmail(r.Context(), email)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return artist, err
}

func (h *ArtistHandler) stats(w http.ResponseWriter, r *http.Request) {
	artist, err := h.caller(r)
	if err != nil {
		fail(w, h.logger, err)
		return
	}

	stats, err := h.store.Stats(r.Context(), artist)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "", envelope{"stats": stats})
}

func (h *ArtistHandler) profile(w http.ResponseWriter, r *http.Request) {
	email, authed := auth.EmailFromContext(r.Context())
	if !authed {
		fail(w, h.logger, shared.ErrUnauthorized)
		return
	}

	artist, err := h.store.Artists.GetByEmail(r.Context(), email)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "", envelope{"artist": NormalizeArtist(artist)})
}

// mySongs lists the caller's songs, or every song for anonymous callers.
func (h *ArtistHandler) mySongs(w http.ResponseWriter, r *http.Request) {
	artist, err := h.caller(r)
	if err != nil {
		fail(w, h.logger, err)
		return
	}

	var filter models.SongFilter
	if artist != nil {
		filter.Author = artist.Name
	}

	songs, err := h.store.Songs.List(r.Context(), filter)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "", envelope{"songs": songs})
}

// myAlbums lists the caller's albums, or every album for anonymous callers.
func (h *ArtistHandler) myAlbums(w http.ResponseWriter, r *http.Request) {
	artist, err := h.caller(r)
	if err != nil {
		fail(w, h.logger, err)
		return
	}

	var filter models.AlbumFilter
	if artist != nil {
		filter.Author = artist.Name
	}

	albums, err := h.store.Albums.List(r.Context(), filter)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "", envelope{"albums": albums})
}

func (h *ArtistHandler) allArtists(w http.ResponseWriter, r *http.Request) {
	artists, err := h.store.Artists.List(r.Context())
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "", envelope{"artists": NormalizeArtists(artists)})
}

func (h *ArtistHandler) artistByID(w http.ResponseWriter, r *http.Request) {
	artist, err := h.store.Artists.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "", envelope{"artist": NormalizeArtist(artist)})
}

func (h *ArtistHandler) artistByName(w http.ResponseWriter, r *http.Request) {
	artist, err := h.store.Artists.GetByName(r.Context(), pathParam(r, "name"))
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "", envelope{"artist": NormalizeArtist(artist)})
}

func (h *ArtistHandler) isVerified(w http.ResponseWriter, r *http.Request) {
	verified := false

	artist, err := h.store.Artists.GetByEmail(r.Context(), r.URL.Query().Get("email"))
	switch {
	case err == nil:
		verified = artist.Verified
	case !errors.Is(err, shared.ErrNotFound):
		fail(w, h.logger, err)
		return
	}
	ok(w, "", envelope{"verified": verified})
}

func (h *ArtistHandler) register(w http.ResponseWriter, r *http.Request) {
	body := decodeBody[credentials](r)

	artist, err := h.store.Artists.Create(r.Context(), models.NewArtist{
		Email:    body.Email,
		Password: body.Password,
		Name:     body.Name,
		Type:     body.Type,
	})
	if err != nil {
		fail(w, h.logger, err)
		return
	}

	otp, err := h.issueOTP(r, artist.Email)
	if err != nil {
		fail(w, h.logger, err)
		return
	}

	h.logger.Info("artist registered", "artist", artist.ID)
	ok(w, "Registered", envelope{"artist": NormalizeArtist(artist), "otp": otp})
}

func (h *ArtistHandler) login(w http.ResponseWriter, r *http.Request) {
	body := decodeBody[credentials](r)

	artist, err := h.store.Artists.GetByEmail(r.Context(), body.Email)
	if errors.Is(err, shared.ErrNotFound) || (err == nil && !passwordMatches(artist.Password, body.Password)) {
		fail(w, h.logger, shared.ErrInvalidCredentials)
		return
	}
	if err != nil {
		fail(w, h.logger, err)
		return
	}

	h.signIn(w, artist, "Logged in")
}

func (h *ArtistHandler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	body := decodeBody[credentials](r)

	verified, err := h.store.Artists.VerifyOTP(r.Context(), body.Email, body.OTP)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	if !verified {
		fail(w, h.logger, shared.ErrInvalidOTP)
		return
	}

	artist, err := h.store.Artists.GetByEmail(r.Context(), body.Email)
	if err != nil {
		fail(w, h.logger, err)
		return
	}

	h.signIn(w, artist, "OTP verified")
}

func (h *ArtistHandler) resendOTP(w http.ResponseWriter, r *http.Request) {
	h.sendOTP(w, r, "OTP sent")
}

func (h *ArtistHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	h.sendOTP(w, r, "Reset OTP sent")
}

func (h *ArtistHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	body := decodeBody[credentials](r)
	if body.NewPassword == "" {
		fail(w, h.logger, fmt.Errorf("%w: missing newPassword", shared.ErrValidation))
		return
	}

	verified, err := h.store.Artists.VerifyOTP(r.Context(), body.Email, body.OTP)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	if !verified {
		fail(w, h.logger, shared.ErrInvalidOTP)
		return
	}

	if err := h.store.Artists.SetPassword(r.Context(), body.Email, body.NewPassword); err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "Password reset", nil)
}

// logout revokes every token the request presents and expires the session cookies.
func (h *ArtistHandler) logout(w http.ResponseWriter, r *http.Request) {
	h.tokens.Revoke(auth.PresentedTokens(r, h.session.AccessCookie, h.session.RefreshCookie)...)
	h.clearCookies(w)
	ok(w, "Logged out", nil)
}

func (h *ArtistHandler) follow(w http.ResponseWriter, r *http.Request) {
	body := decodeBody[artistRef](r)

	artist, err := h.store.Artists.Follow(r.Context(), body.ArtistID, body.UserID)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "", envelope{"artist": NormalizeArtist(artist)})
}

func (h *ArtistHandler) like(w http.ResponseWriter, r *http.Request) {
	body := decodeBody[artistRef](r)

	artist, err := h.store.Artists.Like(r.Context(), body.ArtistID, body.UserID)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "", envelope{"artist": NormalizeArtist(artist)})
}

func (h *ArtistHandler) deleteArtist(w http.ResponseWriter, r *http.Request) {
	body := decodeBody[artistRef](r)

	if err := h.store.Artists.Delete(r.Context(), body.ArtistID); err != nil {
		fail(w, h.logger, err)
		return
	}

	h.logger.Info("artist deleted", "artist", body.ArtistID)
	ok(w, "Artist deleted", nil)
}

func (h *ArtistHandler) editProfile(w http.ResponseWriter, r *http.Request) {
	email, authed := auth.EmailFromContext(r.Context())
	if !authed {
		fail(w, h.logger, shared.ErrUnauthorized)
		return
	}

	patch := decodeBody[models.ProfilePatch](r)

	artist, err := h.store.Artists.UpdateProfile(r.Context(), email, patch)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, "", envelope{"artist": NormalizeArtist(artist)})
}

func (h *ArtistHandler) sendOTP(w http.ResponseWriter, r *http.Request, message string) {
	body := decodeBody[credentials](r)

	exists, err := h.store.Artists.Exists(r.Context(), body.Email)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	if !exists {
		fail(w, h.logger, shared.ErrArtistNotFound)
		return
	}

	otp, err := h.issueOTP(r, body.Email)
	if err != nil {
		fail(w, h.logger, err)
		return
	}
	ok(w, message, envelope{"otp": otp})
}

func (h *ArtistHandler) issueOTP(r *http.Request, email string) (string, error) {
	otp, err := auth.GenerateOTP()
	if err != nil {
		return "", err
	}
	if err := h.store.Artists.SetOTP(r.Context(), email, otp); err != nil {
		return "", err
	}
	return otp, nil
}

// signIn issues a token pair, sets the session cookies and answers with the artist and both tokens.
func (h *ArtistHandler) signIn(w http.ResponseWriter, artist *models.Artist, message string) {
	pair, err := h.tokens.Issue(artist.Email)
	if err != nil {
		fail(w, h.logger, err)
		return
	}

	h.setCookies(w, pair)
	ok(w, message, envelope{
		"artist":       NormalizeArtist(artist),
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (h *ArtistHandler) setCookies(w http.ResponseWriter, pair auth.TokenPair) {
	maxAge := 0
	if ttl, err := h.session.SessionTTL(); err == nil && ttl > 0 {
		maxAge = int(ttl.Seconds())
	}

	http.SetCookie(w, h.cookie(h.session.AccessCookie, pair.AccessToken, maxAge))
	http.SetCookie(w, h.cookie(h.session.RefreshCookie, pair.RefreshToken, maxAge))
}

func (h *ArtistHandler) clearCookies(w http.ResponseWriter) {
	http.SetCookie(w, h.cookie(h.session.AccessCookie, "", -1))
	http.SetCookie(w, h.cookie(h.session.RefreshCookie, "", -1))
}

func (h *ArtistHandler) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.session.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func passwordMatches(stored, given string) bool {
	return given != "" && subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

// trackCode returns a "TRK-<n>" code with n in [0, 9999].
func trackCode() string {
	return fmt.Sprintf("TRK-%d", rand.IntN(10000))
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
