package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"besocial/cmd/identity"
	"besocial/cmd/internal/auth"
)

type assistantFixture struct {
	mux   *http.ServeMux
	gen   *fakeGenerator
	token string
}

func newAssistantFixture(t *testing.T, gen *fakeGenerator) *assistantFixture {
	t.Helper()

	log := testLogger()
	cfg := auth.Config{
		Issuer:         "besocial-test",
		AccessTokenTTL: time.Hour,
		ClockSkew:      30 * time.Second,
		MaxBodyBytes:   1 << 20,
	}
	tokens, err := auth.NewPasetoV4PublicManager(cfg)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}

	users := identity.NewInMemoryStore()
	authH, err := auth.NewHandler(log, cfg, users, tokens)
	if err != nil {
		t.Fatalf("auth handler: %v", err)
	}
	u, err := users.Create(context.Background(), identity.User{
		FullName:     "carol",
		Username:     "carol",
		Email:        "carol@example.com",
		PasswordHash: "$argon2id$fake",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, _, err := tokens.Issue(u.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	h := NewAssistantHandler(log, authH.Resolver(), gen)
	mux := http.NewServeMux()
	h.Register(mux)

	return &assistantFixture{mux: mux, gen: gen, token: token}
}

func (f *assistantFixture) post(t *testing.T, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.mux.ServeHTTP(rr, req)
	return rr
}

func TestAssistantChatReturnsReply(t *testing.T) {
	t.Parallel()

	f := newAssistantFixture(t, &fakeGenerator{out: "  Happy to help!  "})

	rr := f.post(t, `{"messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"},{"role":"user","content":"what should I post?"}]}`, f.token)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	var resp assistantResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Happy to help!" {
		t.Fatalf("message=%q", resp.Message)
	}
	if resp.Timestamp.IsZero() {
		t.Fatalf("timestamp missing")
	}

	prompt := f.gen.lastPrompt
	if !strings.Contains(prompt, "User: hi") || !strings.Contains(prompt, "Assistant: hello") {
		t.Fatalf("history not rendered:\n%s", prompt)
	}
	if !strings.Contains(prompt, "User: what should I post?") {
		t.Fatalf("last turn missing:\n%s", prompt)
	}
}

func TestAssistantChatValidation(t *testing.T) {
	t.Parallel()

	f := newAssistantFixture(t, &fakeGenerator{out: "ok"})

	rr := f.post(t, `{"messages":[{"role":"user","content":"hi"}]}`, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status=%d", rr.Code)
	}

	rr = f.post(t, `{"messages":[]}`, f.token)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty messages status=%d", rr.Code)
	}

	rr = f.post(t, `{}`, f.token)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing messages status=%d", rr.Code)
	}

	rr = f.post(t, `{"messages":[{"role":"user","content":"   "}]}`, f.token)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("blank last message status=%d", rr.Code)
	}
}

func TestAssistantChatErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"missing key", ErrNoAPIKey, http.StatusUnauthorized},
		{"quota", ErrQuotaExhausted, http.StatusTooManyRequests},
		{"other", errors.New("network down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newAssistantFixture(t, &fakeGenerator{err: tc.err})
			rr := f.post(t, `{"messages":[{"role":"user","content":"hi"}]}`, f.token)
			if rr.Code != tc.want {
				t.Fatalf("status=%d want=%d body=%s", rr.Code, tc.want, rr.Body.String())
			}
		})
	}
}

func TestGeminiQuotaErrorIsSentinel(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGeminiGenerator("key", 0, WithBaseURL(srv.URL))
	if _, err := g.Generate(context.Background(), "hello"); !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("err=%v want ErrQuotaExhausted", err)
	}
}
