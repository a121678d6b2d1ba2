package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"coverletter-backend/internal/users"
)

type fakeLinker struct {
	got users.GoogleProfile
}

func (f *fakeLinker) UpsertFromGoogle(ctx context.Context, profile users.GoogleProfile) (users.Session, error) {
	f.got = profile
	return users.Session{User: users.User{ID: "user-1", Email: profile.Email}, Token: "session-token"}, nil
}

func TestGoogleCallbackLinksAccountAndRedirects(t *testing.T) {
	gin.SetMode(gin.TestMode)

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "at", "token_type": "Bearer", "expires_in": 3600})
		case "/userinfo":
			if r.Header.Get("Authorization") != "Bearer at" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{
				"id": "g-123", "email": "ada@example.com", "given_name": "Ada", "family_name": "Lovelace",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer provider.Close()

	linker := &fakeLinker{}
	svc := NewGoogleService(linker, "client", "secret", "http://api.local/callback", "http://ui.local/auth")
	svc.oauthConfig.Endpoint = oauth2.Endpoint{AuthURL: provider.URL + "/auth", TokenURL: provider.URL + "/token"}
	svc.userInfoURL = provider.URL + "/userinfo"

	router := gin.New()
	svc.RegisterRoutes(router.Group("/api/v1"))

	start := httptest.NewRecorder()
	router.ServeHTTP(start, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	if start.Code != http.StatusFound {
		t.Fatalf("expected 302 from start, got %d", start.Code)
	}
	loc, err := url.Parse(start.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatalf("expected state in auth url")
	}

	cb := httptest.NewRecorder()
	router.ServeHTTP(cb, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state="+state+"&code=abc", nil))
	if cb.Code != http.StatusFound {
		t.Fatalf("expected 302 from callback, got %d: %s", cb.Code, cb.Body.String())
	}
	if got := cb.Header().Get("Location"); got != "http://ui.local/auth?token=session-token" {
		t.Fatalf("unexpected redirect %q", got)
	}
	if linker.got.Subject != "g-123" || linker.got.GivenName != "Ada" {
		t.Fatalf("unexpected profile: %+v", linker.got)
	}

	replay := httptest.NewRecorder()
	router.ServeHTTP(replay, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state="+state+"&code=abc", nil))
	if replay.Code != http.StatusBadRequest {
		t.Fatalf("expected replayed state to be rejected, got %d", replay.Code)
	}
}

func TestGoogleStartRequiresConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewGoogleService(&fakeLinker{}, "", "", "", "")
	router := gin.New()
	svc.RegisterRoutes(router.Group("/api/v1"))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "auth_not_configured") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestAppendTokenKeepsExistingQuery(t *testing.T) {
	got, err := appendToken("http://ui.local/auth?next=%2Fhistory", "tok")
	if err != nil {
		t.Fatalf("appendToken: %v", err)
	}
	if got != "http://ui.local/auth?next=%2Fhistory&token=tok" {
		t.Fatalf("unexpected url %q", got)
	}
	if _, err := appendToken("", "tok"); err == nil {
		t.Fatalf("expected error for empty redirect")
	}
}
