package auth

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"besocial/cmd/identity"
)

func newTestHandler(t *testing.T) (*Handler, *http.ServeMux) {
	t.Helper()

	cfg := testTokenConfig()
	tokens, err := NewPasetoV4PublicManager(cfg)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h, err := NewHandler(log, cfg, identity.NewInMemoryStore(), tokens)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	mux := http.NewServeMux()
	h.Register(mux)
	return h, mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func signup(t *testing.T, mux *http.ServeMux, username string) sessionResponse {
	t.Helper()

	body := `{"fullName":"Test User","username":"` + username + `","email":"` + username + `@example.com","password":"secret123"}`
	rr := doJSON(t, mux, http.MethodPost, "/api/auth/signup", body, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("signup status=%d body=%s", rr.Code, rr.Body.String())
	}
	var resp sessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode signup response: %v", err)
	}
	return resp
}

func TestSignupLoginMe(t *testing.T) {
	t.Parallel()

	_, mux := newTestHandler(t)

	sess := signup(t, mux, "alice")
	if sess.Token == "" || sess.User.ID == "" {
		t.Fatalf("signup response incomplete: %+v", sess)
	}
	if sess.User.Username != "alice" {
		t.Fatalf("username=%q", sess.User.Username)
	}

	rr := doJSON(t, mux, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"secret123"}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rr.Code, rr.Body.String())
	}
	var login sessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	rr = doJSON(t, mux, http.MethodGet, "/api/auth/me", "", login.Token)
	if rr.Code != http.StatusOK {
		t.Fatalf("me status=%d body=%s", rr.Code, rr.Body.String())
	}
	var me identity.Public
	if err := json.Unmarshal(rr.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Username != "alice" {
		t.Fatalf("me=%+v", me)
	}
}

func TestSignupValidation(t *testing.T) {
	t.Parallel()

	_, mux := newTestHandler(t)

	cases := []struct {
		name string
		body string
	}{
		{name: "bad email", body: `{"fullName":"x","username":"alice","email":"nope","password":"secret123"}`},
		{name: "bad username", body: `{"fullName":"x","username":"A!","email":"a@b.co","password":"secret123"}`},
		{name: "short password", body: `{"fullName":"x","username":"alice","email":"a@b.co","password":"12345"}`},
		{name: "unknown field", body: `{"fullName":"x","username":"alice","email":"a@b.co","password":"secret123","admin":true}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, mux, http.MethodPost, "/api/auth/signup", tc.body, "")
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestSignupDuplicateUsername(t *testing.T) {
	t.Parallel()

	_, mux := newTestHandler(t)
	signup(t, mux, "alice")

	body := `{"fullName":"Other","username":"alice","email":"other@example.com","password":"secret123"}`
	rr := doJSON(t, mux, http.MethodPost, "/api/auth/signup", body, "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	_, mux := newTestHandler(t)
	signup(t, mux, "alice")

	rr := doJSON(t, mux, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"wrong-password"}`, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestLoginUnknownUser(t *testing.T) {
	t.Parallel()

	_, mux := newTestHandler(t)

	rr := doJSON(t, mux, http.MethodPost, "/api/auth/login", `{"username":"ghost","password":"whatever1"}`, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestMeRequiresToken(t *testing.T) {
	t.Parallel()

	_, mux := newTestHandler(t)

	rr := doJSON(t, mux, http.MethodGet, "/api/auth/me", "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", rr.Code)
	}

	rr = doJSON(t, mux, http.MethodGet, "/api/auth/me", "", "not-a-token")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := BearerToken(req); got != "" {
		t.Fatalf("empty header token=%q", got)
	}

	req.Header.Set("Authorization", "Bearer abc123")
	if got := BearerToken(req); got != "abc123" {
		t.Fatalf("token=%q", got)
	}

	req.Header.Set("Authorization", "abc123")
	if got := BearerToken(req); got != "abc123" {
		t.Fatalf("bare token=%q", got)
	}
}
