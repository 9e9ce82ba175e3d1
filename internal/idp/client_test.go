package idp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dropDatabas3/fieldtask/internal/cache/memory"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

func mintToken(t *testing.T, claims jwtv5.MapClaims) string {
	t.Helper()
	s, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	handlePath := filepath.Join(t.TempDir(), "provider.json")
	c := New(Config{
		BaseURL:    srv.URL,
		ClientID:   "dashboard",
		HandlePath: handlePath,
		HTTP:       srv.Client(),
		Attrs:      memory.New(time.Minute),
	})
	return c, handlePath
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestAuthenticate_Success(t *testing.T) {
	idToken := mintToken(t, jwtv5.MapClaims{"sub": "u1", "groups": []string{"admin"}})

	c, handlePath := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/auth/login" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req loginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.ClientID != "dashboard" || req.Email != "a@x.com" {
			t.Errorf("request = %+v", req)
		}
		writeJSON(w, 200, tokenResponse{IDToken: idToken, RefreshToken: "rt-1", ExpiresIn: 3600})
	}))

	ps, ch, err := c.Authenticate(context.Background(), "a@x.com", "pw")
	if err != nil || ch != nil {
		t.Fatalf("err=%v ch=%v", err, ch)
	}
	if ps.IDToken != idToken || ps.RefreshToken != "rt-1" {
		t.Errorf("session = %+v", ps)
	}
	if ps.ExpiresAt.IsZero() {
		t.Error("ExpiresAt sin setear")
	}

	// El handle local debe quedar persistido para restore.
	if _, err := os.Stat(handlePath); err != nil {
		t.Errorf("handle no persistido: %v", err)
	}
	if !c.HasLocalHandle() {
		t.Error("HasLocalHandle() = false tras login")
	}
}

func TestAuthenticate_Challenge(t *testing.T) {
	c, handlePath := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, tokenResponse{Challenge: challengePasswordChange, ChallengeToken: "ch-1", ExpiresIn: 300})
	}))

	ps, ch, err := c.Authenticate(context.Background(), "new@x.com", "temp")
	if err != nil || ps != nil {
		t.Fatalf("err=%v ps=%v", err, ps)
	}
	if ch == nil || ch.Token != "ch-1" || ch.Email != "new@x.com" {
		t.Fatalf("challenge = %+v", ch)
	}

	// Un challenge NO emite sesión: no debe haber handle.
	if _, err := os.Stat(handlePath); !errors.Is(err, os.ErrNotExist) {
		t.Error("handle escrito en branch de challenge")
	}
}

func TestAuthenticate_InvalidCredentials(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, apiError{Code: "invalid_credentials"})
	}))

	_, _, err := c.Authenticate(context.Background(), "a@x.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthenticate_ProviderDown(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 503, apiError{Code: "unavailable"})
	}))

	_, _, err := c.Authenticate(context.Background(), "a@x.com", "pw")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("err = %v, want ErrProviderUnavailable", err)
	}
}

func TestCurrentSession_NoHandle(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no debería llegar al provider sin handle local")
	}))

	_, err := c.CurrentSession(context.Background())
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
}

func TestCurrentSession_Valid(t *testing.T) {
	idToken := mintToken(t, jwtv5.MapClaims{"sub": "u1"})

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/auth/login":
			writeJSON(w, 200, tokenResponse{IDToken: idToken, RefreshToken: "rt-1", ExpiresIn: 3600})
		case "/v2/auth/refresh":
			var req refreshRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.RefreshToken != "rt-1" {
				t.Errorf("refresh con token %q", req.RefreshToken)
			}
			// Sin rotación: refresh_token vacío => el cliente conserva el vigente.
			writeJSON(w, 200, tokenResponse{IDToken: idToken, ExpiresIn: 3600})
		default:
			t.Errorf("path inesperado: %s", r.URL.Path)
		}
	}))

	if _, _, err := c.Authenticate(context.Background(), "a@x.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	ps, err := c.CurrentSession(context.Background())
	if err != nil {
		t.Fatalf("current session: %v", err)
	}
	if ps.RefreshToken != "rt-1" {
		t.Errorf("refresh token = %q, want rt-1 (sin rotación)", ps.RefreshToken)
	}
}

func TestCurrentSession_Expired(t *testing.T) {
	idToken := mintToken(t, jwtv5.MapClaims{"sub": "u1"})

	c, handlePath := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/auth/login":
			writeJSON(w, 200, tokenResponse{IDToken: idToken, RefreshToken: "rt-dead", ExpiresIn: 3600})
		case "/v2/auth/refresh":
			writeJSON(w, 401, apiError{Code: "invalid_refresh"})
		}
	}))

	if _, _, err := c.Authenticate(context.Background(), "a@x.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err := c.CurrentSession(context.Background())
	if !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("err = %v, want ErrSessionInvalid", err)
	}

	// El handle muerto se descarta.
	if _, err := os.Stat(handlePath); !errors.Is(err, os.ErrNotExist) {
		t.Error("handle muerto no eliminado")
	}
}

func TestCurrentSession_TransientKeepsHandle(t *testing.T) {
	idToken := mintToken(t, jwtv5.MapClaims{"sub": "u1"})

	c, handlePath := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/auth/login":
			writeJSON(w, 200, tokenResponse{IDToken: idToken, RefreshToken: "rt-1", ExpiresIn: 3600})
		case "/v2/auth/refresh":
			writeJSON(w, 500, apiError{Code: "internal"})
		}
	}))

	if _, _, err := c.Authenticate(context.Background(), "a@x.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err := c.CurrentSession(context.Background())
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}

	// Error transitorio: el handle debe sobrevivir para reintentar.
	if _, err := os.Stat(handlePath); err != nil {
		t.Error("handle eliminado ante error transitorio")
	}
}

func TestSignOut_BestEffort(t *testing.T) {
	idToken := mintToken(t, jwtv5.MapClaims{"sub": "u1"})

	c, handlePath := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/auth/login":
			writeJSON(w, 200, tokenResponse{IDToken: idToken, RefreshToken: "rt-1", ExpiresIn: 3600})
		case "/v2/auth/logout":
			// Provider caído: el signout local debe completarse igual.
			writeJSON(w, 503, apiError{Code: "unavailable"})
		}
	}))

	if _, _, err := c.Authenticate(context.Background(), "a@x.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	c.SignOut(context.Background())

	if _, err := os.Stat(handlePath); !errors.Is(err, os.ErrNotExist) {
		t.Error("handle no eliminado tras SignOut")
	}

	// Idempotente: repetir sin sesión no rompe nada.
	c.SignOut(context.Background())
}

func TestFetchProfile_SubjectFromToken(t *testing.T) {
	idToken := mintToken(t, jwtv5.MapClaims{"sub": "u1", "groups": []string{"admin"}})
	calls := 0

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/me" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer "+idToken {
			t.Error("userinfo sin bearer token")
		}
		calls++
		writeJSON(w, 200, userinfoResponse{Sub: "u1", Name: "Admin", Email: "a@x.com", Username: "a@x.com"})
	}))

	ps := &ProviderSession{IDToken: idToken}
	p, err := c.FetchProfile(context.Background(), ps)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if p.Subject != "u1" || p.Name != "Admin" || p.Email != "a@x.com" {
		t.Errorf("profile = %+v", p)
	}

	// Segunda llamada: cache de atributos, sin round-trip.
	if _, err := c.FetchProfile(context.Background(), ps); err != nil {
		t.Fatalf("fetch cacheado: %v", err)
	}
	if calls != 1 {
		t.Errorf("userinfo calls = %d, want 1", calls)
	}
}

func TestFetchProfile_FallbackToUsername(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, userinfoResponse{Name: "Ana", Email: "ana@x.com", Username: "ana@x.com"})
	}))

	// Token opaco: el decode falla y el sub cae al login name.
	p, err := c.FetchProfile(context.Background(), &ProviderSession{IDToken: "opaque-token"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if p.Subject != "ana@x.com" {
		t.Errorf("subject = %q, want fallback al username", p.Subject)
	}
}

func TestFetchProfile_NoStableID(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, userinfoResponse{Name: "X", Email: "x@x.com"})
	}))

	_, err := c.FetchProfile(context.Background(), &ProviderSession{IDToken: "opaque"})
	if !errors.Is(err, ErrProfileIncomplete) {
		t.Errorf("err = %v, want ErrProfileIncomplete", err)
	}
}

func TestCompleteChallenge(t *testing.T) {
	var gotToken, gotPass string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req completeChallengeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotToken, gotPass = req.ChallengeToken, req.NewPassword
		if req.NewPassword == "weak" {
			writeJSON(w, 422, apiError{Code: "password_policy"})
			return
		}
		w.WriteHeader(204)
	}))

	ch := &Challenge{Token: "ch-1"}
	if err := c.CompleteChallenge(context.Background(), ch, "N3wPassw0rd!"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if gotToken != "ch-1" || gotPass != "N3wPassw0rd!" {
		t.Errorf("wire = %q %q", gotToken, gotPass)
	}

	if err := c.CompleteChallenge(context.Background(), ch, "weak"); !errors.Is(err, ErrChallengeRejected) {
		t.Errorf("err = %v, want ErrChallengeRejected", err)
	}
}
