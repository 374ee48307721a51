package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"legacy-keeper-go/internal/config"
	roledomain "legacy-keeper-go/internal/domain/role"
	userdomain "legacy-keeper-go/internal/domain/user"
	"legacy-keeper-go/pkg/logger"
)

const testSecret = "super-secret"

type profileCall struct {
	userID, email, name, avatarURL string
}

type fakeProfiles struct {
	calls []profileCall
}

func (f *fakeProfiles) UpsertProfile(ctx context.Context, userID, email, name, avatarURL string) error {
	f.calls = append(f.calls, profileCall{userID, email, name, avatarURL})
	return nil
}

func testLogger() logger.Logger {
	return logger.New(io.Discard, slog.LevelError, "text")
}

func signed(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": user.ID, "email": user.Email, "name": user.Name})
	})
}

func serve(handler http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	if body.Success {
		t.Fatalf("expected success=false")
	}
	return body.Error.Code
}

func TestSupabaseAuthVerifiesLocally(t *testing.T) {
	profiles := &fakeProfiles{}
	auth := NewSupabaseAuth(config.SupabaseConfig{JWTSecret: testSecret}, profiles, testLogger())
	handler := auth.Middleware(echoUser())

	token := signed(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub":           "u1",
		"email":         "owner@x.com",
		"exp":           time.Now().Add(time.Hour).Unix(),
		"user_metadata": map[string]interface{}{"full_name": "Owner", "avatar_url": "https://a.test/p.png"},
	})
	rec := serve(handler, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(profiles.calls) != 1 || profiles.calls[0] != (profileCall{"u1", "owner@x.com", "Owner", "https://a.test/p.png"}) {
		t.Fatalf("unexpected profile calls %+v", profiles.calls)
	}
}

func TestSupabaseAuthRejectsBadTokens(t *testing.T) {
	auth := NewSupabaseAuth(config.SupabaseConfig{JWTSecret: testSecret}, nil, testLogger())
	handler := auth.Middleware(echoUser())

	cases := map[string]string{
		"missing": "",
		"garbage": "not-a-token",
		"wrong secret": signed(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{
			"sub": "u1", "exp": time.Now().Add(time.Hour).Unix(),
		}),
		"expired": signed(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
			"sub": "u1", "exp": time.Now().Add(-time.Minute).Unix(),
		}),
		"no expiry": signed(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
			"sub": "u1",
		}),
		"no subject": signed(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		}),
		"other algorithm": signed(t, jwt.SigningMethodHS512, []byte(testSecret), jwt.MapClaims{
			"sub": "u1", "exp": time.Now().Add(time.Hour).Unix(),
		}),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			rec := serve(handler, token)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if code := errorCode(t, rec); code != "not_authenticated" {
				t.Fatalf("expected not_authenticated, got %q", code)
			}
		})
	}
}

func TestSupabaseAuthFetchesUser(t *testing.T) {
	authServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" || r.Header.Get("apikey") != "anon" || r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":            "u2",
			"email":         "n@x.com",
			"user_metadata": map[string]interface{}{"name": "Nominee"},
		})
	}))
	defer authServer.Close()

	auth := NewSupabaseAuth(config.SupabaseConfig{URL: authServer.URL + "/", PublishableKey: "anon"}, nil, testLogger())
	handler := auth.Middleware(echoUser())

	rec := serve(handler, "good")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got["id"] != "u2" || got["email"] != "n@x.com" || got["name"] != "Nominee" {
		t.Fatalf("unexpected user %v", got)
	}

	if rec := serve(handler, "bad"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a rejected token, got %d", rec.Code)
	}
}

func TestSupabaseAuthNotConfigured(t *testing.T) {
	auth := NewSupabaseAuth(config.SupabaseConfig{}, nil, testLogger())
	rec := serve(auth.Middleware(echoUser()), "anything")
	if rec.Code != http.StatusInternalServerError || errorCode(t, rec) != "auth_not_configured" {
		t.Fatalf("expected auth_not_configured, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestSupabaseAuthSkipUsesMockUser(t *testing.T) {
	auth := NewSupabaseAuth(config.SupabaseConfig{SkipAuth: true, MockUserID: " dev-user ", MockUserEmail: "dev@x.com"}, nil, testLogger())
	rec := serve(auth.Middleware(echoUser()), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got["id"] != "dev-user" || got["email"] != "dev@x.com" {
		t.Fatalf("unexpected mock user %v", got)
	}
}

type fakeRoles struct {
	desc      *roledomain.Descriptor
	err       error
	actingFor string
}

func (f *fakeRoles) CurrentRole(ctx context.Context, subject roledomain.Subject, actingFor string) (*roledomain.Descriptor, error) {
	f.actingFor = actingFor
	return f.desc, f.err
}

func TestRoleContextReadsActingFor(t *testing.T) {
	roles := &fakeRoles{desc: &roledomain.Descriptor{Name: roledomain.NameTrustee, RelatedUser: &userdomain.Public{ID: "u1"}}}
	var seen *roledomain.Descriptor
	handler := RoleContext(roles, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me/context?acting_for=from-query", nil)
	req.Header.Set(ActingForHeader, " u1 ")
	req = req.WithContext(WithUser(req.Context(), User{ID: "u3", Email: "t@x.com"}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if roles.actingFor != "u1" {
		t.Fatalf("expected header to win, got %q", roles.actingFor)
	}
	if seen == nil || seen.Name != roledomain.NameTrustee {
		t.Fatalf("unexpected role %+v", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/me/context?acting_for=from-query", nil)
	req = req.WithContext(WithUser(req.Context(), User{ID: "u3"}))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if roles.actingFor != "from-query" {
		t.Fatalf("expected query fallback, got %q", roles.actingFor)
	}
}

func TestRoleContextFallsBackToUser(t *testing.T) {
	roles := &fakeRoles{err: errors.New("db down")}
	var seen *roledomain.Descriptor
	handler := RoleContext(roles, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), User{ID: "u3"}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen == nil || seen.Name != roledomain.NameUser {
		t.Fatalf("expected plain user, got %+v", seen)
	}
	if RoleFromContext(context.Background()).Name != roledomain.NameUser {
		t.Fatalf("expected default descriptor without a role in context")
	}
}
