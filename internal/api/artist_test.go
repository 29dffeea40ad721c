package api

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/apostles/internal/auth"
	"github.com/desertthunder/apostles/internal/repositories"
	"github.com/desertthunder/apostles/internal/shared"
	tu "github.com/desertthunder/apostles/internal/testing"
)

type testAPI struct {
	t      *testing.T
	router http.Handler
	store  *repositories.Store
	tokens *auth.TokenAuthority
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := tu.NewStore(t)
	tokens := auth.NewTokenAuthority(0)
	router := NewRouter(Options{
		Store:   store,
		Tokens:  tokens,
		Session: shared.DefaultConfig().Session,
		Logger:  shared.NewLogger(&bytes.Buffer{}),
	})
	return &testAPI{t: t, router: router, store: store, tokens: tokens}
}

// do sends a JSON request, authenticating with token when non-empty.
func (a *testAPI) do(method, path, token string, body any) (int, map[string]any) {
	a.t.Helper()

	req := tu.JSONRequest(a.t, method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := tu.Serve(a.router, req)
	return rec.Code, tu.DecodeJSON(a.t, rec)
}

// signUp registers and verifies an artist, returning its access token.
func (a *testAPI) signUp(email, name string) string {
	a.t.Helper()

	status, body := a.do(http.MethodPost, "/api/artist/register", "", map[string]string{
		"email": email, "password": "pw", "name": name,
	})
	if status != http.StatusOK {
		a.t.Fatalf("register failed: %d %v", status, body)
	}

	status, body = a.do(http.MethodPost, "/api/artist/verifyOtp", "", map[string]string{
		"email": email, "otp": body["otp"].(string),
	})
	if status != http.StatusOK {
		a.t.Fatalf("verify failed: %d %v", status, body)
	}
	return body["accessToken"].(string)
}

func object(t *testing.T, body map[string]any, key string) map[string]any {
	t.Helper()

	v, ok := body[key].(map[string]any)
	if !ok {
		t.Fatalf("expected object at %q, got %v", key, body[key])
	}
	return v
}

func list(t *testing.T, body map[string]any, key string) []any {
	t.Helper()

	v, ok := body[key].([]any)
	if !ok {
		t.Fatalf("expected array at %q, got %v", key, body[key])
	}
	return v
}

func assertFailure(t *testing.T, status int, body map[string]any, wantStatus int, wantMessage string) {
	t.Helper()

	if status != wantStatus {
		t.Errorf("expected status %d, got %d (%v)", wantStatus, status, body)
	}
	if body["success"] != false || body["message"] != wantMessage {
		t.Errorf("expected failure %q, got %v", wantMessage, body)
	}
}

func TestRegisterAndVerify(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(http.MethodPost, "/api/artist/register", "", map[string]string{
		"email": "a@x.com", "password": "pw", "name": "Ann",
	})
	if status != http.StatusOK || body["success"] != true || body["message"] != "Registered" {
		t.Fatalf("unexpected register response: %d %v", status, body)
	}

	artist := object(t, body, "artist")
	if artist["verified"] != false {
		t.Errorf("new artist should be unverified, got %v", artist["verified"])
	}
	for _, key := range []string{"password", "otp", "OTP", "Password"} {
		if _, leaked := artist[key]; leaked {
			t.Errorf("normalized artist leaked %q", key)
		}
	}

	otp, _ := body["otp"].(string)
	if len(otp) != 6 {
		t.Fatalf("expected six digit otp, got %q", otp)
	}

	wrong := "000000"
	if otp == wrong {
		wrong = "111111"
	}
	status, body = api.do(http.MethodPost, "/api/artist/verifyOtp", "", map[string]string{"email": "a@x.com", "otp": wrong})
	assertFailure(t, status, body, http.StatusBadRequest, "Invalid OTP")

	req := tu.JSONRequest(t, http.MethodPost, "/api/artist/verifyOtp", map[string]string{"email": "a@x.com", "otp": otp})
	rec := tu.Serve(api.router, req)
	body = tu.DecodeJSON(t, rec)

	if rec.Code != http.StatusOK || body["message"] != "OTP verified" {
		t.Fatalf("unexpected verify response: %d %v", rec.Code, body)
	}
	if object(t, body, "artist")["verified"] != true {
		t.Error("artist should be verified")
	}

	access, _ := body["accessToken"].(string)
	refresh, _ := body["refreshToken"].(string)
	if !strings.HasPrefix(access, auth.AccessPrefix) || !strings.HasPrefix(refresh, auth.RefreshPrefix) {
		t.Errorf("unexpected tokens %q %q", access, refresh)
	}

	cookies := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}
	if c := cookies["apostolicaccesstoken"]; c == nil || c.Value != access || !c.HttpOnly || c.Path != "/" || c.SameSite != http.SameSiteLaxMode {
		t.Errorf("unexpected access cookie %+v", c)
	}
	if c := cookies["apostolicrefreshtoken"]; c == nil || c.Value != refresh {
		t.Errorf("unexpected refresh cookie %+v", c)
	}

	status, body = api.do(http.MethodPost, "/api/artist/verifyOtp", "", map[string]string{"email": "a@x.com", "otp": otp})
	assertFailure(t, status, body, http.StatusBadRequest, "Invalid OTP")

	status, body = api.do(http.MethodGet, "/api/artist/isVerified?email=a@x.com", "", nil)
	if status != http.StatusOK || body["verified"] != true {
		t.Errorf("isVerified = %d %v", status, body)
	}
}

func TestRegisterErrors(t *testing.T) {
	api := newTestAPI(t)
	api.signUp("a@x.com", "Ann")

	tt := []struct {
		name    string
		body    any
		status  int
		message string
	}{
		{name: "missing name", body: map[string]string{"email": "b@x.com", "password": "pw"}, status: http.StatusBadRequest, message: "Missing fields"},
		{name: "empty body", body: nil, status: http.StatusBadRequest, message: "Missing fields"},
		{name: "malformed field types", body: map[string]any{"email": 5}, status: http.StatusBadRequest, message: "Missing fields"},
		{name: "duplicate", body: map[string]string{"email": "a@x.com", "password": "x", "name": "Other"}, status: http.StatusConflict, message: "Artist already exists"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			status, body := api.do(http.MethodPost, "/api/artist/register", "", tc.body)
			assertFailure(t, status, body, tc.status, tc.message)
		})
	}
}

func TestLoginAndProfile(t *testing.T) {
	api := newTestAPI(t)
	api.signUp("a@x.com", "Ann")

	t.Run("InvalidCredentials", func(t *testing.T) {
		for _, creds := range []map[string]string{
			{"email": "a@x.com", "password": "wrong"},
			{"email": "ghost@x.com", "password": "pw"},
			{"email": "a@x.com"},
		} {
			status, body := api.do(http.MethodPost, "/api/artist/login", "", creds)
			assertFailure(t, status, body, http.StatusUnauthorized, "Invalid credentials")
		}
	})

	t.Run("Success", func(t *testing.T) {
		status, body := api.do(http.MethodPost, "/api/artist/login", "", map[string]string{"email": "a@x.com", "password": "pw"})
		if status != http.StatusOK || body["message"] != "Logged in" {
			t.Fatalf("unexpected login response: %d %v", status, body)
		}
		token := body["accessToken"].(string)

		status, body = api.do(http.MethodGet, "/api/artist/profile/me", token, nil)
		if status != http.StatusOK || object(t, body, "artist")["email"] != "a@x.com" {
			t.Errorf("profile/me = %d %v", status, body)
		}
	})

	t.Run("CookieIdentity", func(t *testing.T) {
		pair, _ := api.tokens.Issue("a@x.com")
		req := tu.JSONRequest(t, http.MethodGet, "/api/artist/profile/me", nil)
		req.AddCookie(&http.Cookie{Name: "apostolicaccesstoken", Value: pair.AccessToken})

		rec := tu.Serve(api.router, req)
		if rec.Code != http.StatusOK {
			t.Errorf("expected cookie identity to resolve, got %d", rec.Code)
		}
	})

	t.Run("Anonymous", func(t *testing.T) {
		status, body := api.do(http.MethodGet, "/api/artist/profile/me", "", nil)
		assertFailure(t, status, body, http.StatusUnauthorized, "Unauthorized")

		status, body = api.do(http.MethodPost, "/api/artist/profile/edit", "", map[string]string{"about": "x"})
		assertFailure(t, status, body, http.StatusUnauthorized, "Unauthorized")
	})

	t.Run("EditProfile", func(t *testing.T) {
		pair, _ := api.tokens.Issue("a@x.com")

		status, body := api.do(http.MethodPost, "/api/artist/profile/edit", pair.AccessToken, map[string]string{"about": "Choir lead"})
		if status != http.StatusOK {
			t.Fatalf("profile/edit = %d %v", status, body)
		}
		artist := object(t, body, "artist")
		if artist["about"] != "Choir lead" || artist["name"] != "Ann" {
			t.Errorf("unexpected profile %v", artist)
		}
	})
}

func TestLogout(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp("a@x.com", "Ann")

	req := tu.JSONRequest(t, http.MethodPost, "/api/artist/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := tu.Serve(api.router, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout = %d", rec.Code)
	}

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			t.Errorf("expected cookie %s to be expired, got MaxAge %d", c.Name, c.MaxAge)
		}
	}

	status, body := api.do(http.MethodGet, "/api/artist/profile/me", token, nil)
	assertFailure(t, status, body, http.StatusUnauthorized, "Unauthorized")
}

func TestPasswordReset(t *testing.T) {
	api := newTestAPI(t)
	api.signUp("a@x.com", "Ann")

	status, body := api.do(http.MethodPost, "/api/artist/forgotPassword", "", map[string]string{"email": "ghost@x.com"})
	assertFailure(t, status, body, http.StatusNotFound, "Artist not found")

	status, body = api.do(http.MethodPost, "/api/artist/forgotPassword", "", map[string]string{"email": "a@x.com"})
	if status != http.StatusOK || body["message"] != "Reset OTP sent" {
		t.Fatalf("forgotPassword = %d %v", status, body)
	}
	otp := body["otp"].(string)

	status, body = api.do(http.MethodPost, "/api/artist/resetPassword", "", map[string]string{"email": "a@x.com", "otp": otp})
	assertFailure(t, status, body, http.StatusBadRequest, "Missing fields")

	status, body = api.do(http.MethodPost, "/api/artist/resetPassword", "", map[string]string{"email": "a@x.com", "otp": otp, "newPassword": "new"})
	if status != http.StatusOK || body["message"] != "Password reset" {
		t.Fatalf("resetPassword = %d %v", status, body)
	}

	status, _ = api.do(http.MethodPost, "/api/artist/login", "", map[string]string{"email": "a@x.com", "password": "new"})
	if status != http.StatusOK {
		t.Errorf("expected login with new password, got %d", status)
	}

	status, body = api.do(http.MethodPost, "/api/artist/resetPassword", "", map[string]string{"email": "a@x.com", "otp": otp, "newPassword": "again"})
	assertFailure(t, status, body, http.StatusBadRequest, "Invalid OTP")
}

func TestResendOTP(t *testing.T) {
	api := newTestAPI(t)
	api.do(http.MethodPost, "/api/artist/register", "", map[string]string{"email": "a@x.com", "password": "pw", "name": "Ann"})

	status, body := api.do(http.MethodPost, "/api/artist/resendOtp", "", map[string]string{"email": "a@x.com"})
	if status != http.StatusOK || body["message"] != "OTP sent" {
		t.Fatalf("resendOtp = %d %v", status, body)
	}

	status, _ = api.do(http.MethodPost, "/api/artist/verifyOtp", "", map[string]string{"email": "a@x.com", "otp": body["otp"].(string)})
	if status != http.StatusOK {
		t.Errorf("resent otp should verify, got %d", status)
	}
}

func TestArtistDirectory(t *testing.T) {
	api := newTestAPI(t)
	api.signUp("a@x.com", "Ann Marie")
	api.signUp("b@x.com", "Bob")

	_, body := api.do(http.MethodGet, "/api/artist/getAllArtists", "", nil)
	artists := list(t, body, "artists")
	if len(artists) != 2 {
		t.Fatalf("expected 2 artists, got %d", len(artists))
	}
	first := artists[0].(map[string]any)
	id := first["id"].(string)
	if first["_id"] != id {
		t.Errorf("expected _id to mirror id, got %v", first)
	}

	status, body := api.do(http.MethodGet, "/api/artist/getArtistById/"+id, "", nil)
	if status != http.StatusOK || object(t, body, "artist")["name"] != "Ann Marie" {
		t.Errorf("getArtistById = %d %v", status, body)
	}

	status, body = api.do(http.MethodGet, "/api/artist/getArtistByName/ann%20marie", "", nil)
	if status != http.StatusOK || object(t, body, "artist")["id"] != id {
		t.Errorf("getArtistByName = %d %v", status, body)
	}

	status, body = api.do(http.MethodGet, "/api/artist/getArtistById/artist_missing", "", nil)
	assertFailure(t, status, body, http.StatusNotFound, "Artist not found")

	t.Run("FollowIsIdempotent", func(t *testing.T) {
		ref := map[string]string{"artistId": id, "userId": "fan-1"}
		api.do(http.MethodPost, "/api/artist/followArtist", "", ref)
		status, body := api.do(http.MethodPost, "/api/artist/followArtist", "", ref)

		followers := list(t, object(t, body, "artist"), "followers")
		if status != http.StatusOK || len(followers) != 1 {
			t.Errorf("expected one follower, got %d %v", status, followers)
		}

		status, body = api.do(http.MethodPost, "/api/artist/likeArtist", "", ref)
		if status != http.StatusOK || len(list(t, object(t, body, "artist"), "likes")) != 1 {
			t.Errorf("likeArtist = %d %v", status, body)
		}

		status, body = api.do(http.MethodPost, "/api/artist/followArtist", "", map[string]string{"artistId": "nope", "userId": "fan-1"})
		assertFailure(t, status, body, http.StatusNotFound, "Artist not found")
	})

	t.Run("Delete", func(t *testing.T) {
		status, body := api.do(http.MethodPost, "/api/artist/deleteArtist", "", map[string]string{"artistId": id})
		if status != http.StatusOK || body["message"] != "Artist deleted" {
			t.Fatalf("deleteArtist = %d %v", status, body)
		}

		status, body = api.do(http.MethodPost, "/api/artist/deleteArtist", "", map[string]string{"artistId": id})
		assertFailure(t, status, body, http.StatusNotFound, "Artist not found")
	})
}

func TestArtistByNameEscapes(t *testing.T) {
	api := newTestAPI(t)
	api.signUp("a@x.com", "100%41")
	api.signUp("b@x.com", "AC/DC")

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "literal percent", path: "/api/artist/getArtistByName/100%2541", want: "100%41"},
		{name: "escaped slash", path: "/api/artist/getArtistByName/AC%2FDC", want: "AC/DC"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, body := api.do(http.MethodGet, tc.path, "", nil)
			if status != http.StatusOK {
				t.Fatalf("getArtistByName = %d %v", status, body)
			}
			if got := object(t, body, "artist")["name"]; got != tc.want {
				t.Errorf("expected %q, got %v", tc.want, got)
			}
		})
	}
}

func TestUnknownArtistRoute(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(http.MethodGet, "/api/artist/nothing/here", "", nil)
	assertFailure(t, status, body, http.StatusNotFound, "Not found")
}
