package chat

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"besocial/cmd/identity"
	"besocial/cmd/internal/auth"
	"besocial/cmd/internal/realtime"
	v1 "besocial/shared/contracts/realtime/v1"
)

type fixedSuggester struct {
	out []string
}

func (f fixedSuggester) Suggest(_ context.Context, _ Message, _ []Message, count int) []string {
	if len(f.out) >= count {
		return f.out[:count]
	}
	return f.out
}

type chatFixture struct {
	mux      *http.ServeMux
	users    identity.Store
	store    MessageStore
	registry *realtime.Registry

	alice identity.User
	bob   identity.User

	aliceToken string
	bobToken   string
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
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
	resolver := authH.Resolver()

	newUser := func(username string) (identity.User, string) {
		u, err := users.Create(context.Background(), identity.User{
			FullName:     username,
			Username:     username,
			Email:        username + "@example.com",
			PasswordHash: "$argon2id$fake",
		})
		if err != nil {
			t.Fatalf("create %q: %v", username, err)
		}
		token, _, err := tokens.Issue(u.ID, time.Now().UTC())
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		return u, token
	}

	alice, aliceToken := newUser("alice")
	bob, bobToken := newUser("bob")

	registry := realtime.NewRegistry()
	router := realtime.NewRouter(log, registry)
	store := NewInMemoryStore()

	h := NewHandler(log, resolver, users, store, router, fixedSuggester{out: []string{"a", "b", "c", "d"}})
	mux := http.NewServeMux()
	h.Register(mux)

	return &chatFixture{
		mux:        mux,
		users:      users,
		store:      store,
		registry:   registry,
		alice:      alice,
		bob:        bob,
		aliceToken: aliceToken,
		bobToken:   bobToken,
	}
}

func (f *chatFixture) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.mux.ServeHTTP(rr, req)
	return rr
}

func TestSendPersistsAndDelivers(t *testing.T) {
	t.Parallel()

	f := newChatFixture(t)

	bobClient := realtime.NewClient(f.bob.ID, "s1", 8)
	f.registry.Register(f.bob.ID, bobClient)

	rr := f.do(t, http.MethodPost, "/api/messages/send/"+f.bob.ID, `{"text":"hello bob"}`, f.aliceToken)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	var sent v1.MessagePayload
	if err := json.Unmarshal(rr.Body.Bytes(), &sent); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if sent.SenderID != f.alice.ID || sent.ReceiverID != f.bob.ID || sent.Text != "hello bob" {
		t.Fatalf("payload=%+v", sent)
	}

	// Durable before (and regardless of) live delivery.
	if _, err := f.store.GetByID(context.Background(), sent.ID); err != nil {
		t.Fatalf("message not persisted: %v", err)
	}

	env := <-bobClient.Send
	if env.Event != v1.EventNewMessage {
		t.Fatalf("event=%q", env.Event)
	}
	var pushed v1.MessagePayload
	if err := json.Unmarshal(env.Payload, &pushed); err != nil {
		t.Fatalf("decode push: %v", err)
	}
	if pushed.ID != sent.ID {
		t.Fatalf("pushed id=%q want=%q", pushed.ID, sent.ID)
	}
}

func TestSendToOfflineRecipientStillPersists(t *testing.T) {
	t.Parallel()

	f := newChatFixture(t)

	rr := f.do(t, http.MethodPost, "/api/messages/send/"+f.bob.ID, `{"text":"catch up later"}`, f.aliceToken)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	hist, err := f.store.History(context.Background(), f.alice.ID, f.bob.ID)
	if err != nil || len(hist) != 1 {
		t.Fatalf("history len=%d err=%v", len(hist), err)
	}
}

func TestSendValidation(t *testing.T) {
	t.Parallel()

	f := newChatFixture(t)

	rr := f.do(t, http.MethodPost, "/api/messages/send/"+f.bob.ID, `{"text":"   "}`, f.aliceToken)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("blank text status=%d", rr.Code)
	}

	rr = f.do(t, http.MethodPost, "/api/messages/send/unknown-user", `{"text":"hi"}`, f.aliceToken)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown receiver status=%d", rr.Code)
	}

	rr = f.do(t, http.MethodPost, "/api/messages/send/"+f.bob.ID, `{"text":"hi"}`, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status=%d", rr.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	t.Parallel()

	f := newChatFixture(t)

	f.do(t, http.MethodPost, "/api/messages/send/"+f.bob.ID, `{"text":"one"}`, f.aliceToken)
	f.do(t, http.MethodPost, "/api/messages/send/"+f.alice.ID, `{"text":"two"}`, f.bobToken)

	rr := f.do(t, http.MethodGet, "/api/messages/"+f.bob.ID, "", f.aliceToken)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	var msgs []v1.MessagePayload
	if err := json.Unmarshal(rr.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Text != "one" || msgs[1].Text != "two" {
		t.Fatalf("msgs=%+v", msgs)
	}
}

func TestSidebarUsersExcludesSelf(t *testing.T) {
	t.Parallel()

	f := newChatFixture(t)

	rr := f.do(t, http.MethodGet, "/api/messages/users", "", f.aliceToken)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	var others []identity.Public
	if err := json.Unmarshal(rr.Body.Bytes(), &others); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(others) != 1 || others[0].ID != f.bob.ID {
		t.Fatalf("others=%+v", others)
	}
}

func TestSuggestionsEndpoint(t *testing.T) {
	t.Parallel()

	f := newChatFixture(t)

	rr := f.do(t, http.MethodPost, "/api/messages/send/"+f.bob.ID, `{"text":"dinner?"}`, f.aliceToken)
	var sent v1.MessagePayload
	if err := json.Unmarshal(rr.Body.Bytes(), &sent); err != nil {
		t.Fatalf("decode sent: %v", err)
	}

	rr = f.do(t, http.MethodGet, "/api/messages/suggestions/"+sent.ID, "", f.bobToken)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	var resp suggestionsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Suggestions) != 4 {
		t.Fatalf("suggestions=%v", resp.Suggestions)
	}
}

func TestSuggestionsUnknownMessage(t *testing.T) {
	t.Parallel()

	f := newChatFixture(t)

	rr := f.do(t, http.MethodGet, "/api/messages/suggestions/does-not-exist", "", f.aliceToken)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}
