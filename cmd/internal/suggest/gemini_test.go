package suggest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGeminiGeneratorRoundTrip(t *testing.T) {
	t.Parallel()

	var gotReq geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key query param = %q", r.URL.Query().Get("key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hi|||there"}]}}]}`))
	}))
	defer srv.Close()

	g := NewGeminiGenerator("test-key", time.Second, WithBaseURL(srv.URL))
	out, err := g.Generate(context.Background(), "prompt text")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "hi|||there" {
		t.Fatalf("out=%q", out)
	}

	if len(gotReq.Contents) != 1 || len(gotReq.Contents[0].Parts) != 1 || gotReq.Contents[0].Parts[0].Text != "prompt text" {
		t.Fatalf("request contents=%+v", gotReq.Contents)
	}
	gc := gotReq.GenerationConfig
	if gc.Temperature != 0.7 || gc.TopK != 40 || gc.TopP != 0.95 || gc.MaxOutputTokens != 1024 {
		t.Fatalf("generation config=%+v", gc)
	}
}

func TestGeminiGeneratorHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "backend unavailable", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewGeminiGenerator("test-key", time.Second, WithBaseURL(srv.URL))
	if _, err := g.Generate(context.Background(), "p"); err == nil {
		t.Fatalf("expected error on HTTP 500")
	}
}

func TestGeminiGeneratorEmptyCandidates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	g := NewGeminiGenerator("test-key", time.Second, WithBaseURL(srv.URL))
	if _, err := g.Generate(context.Background(), "p"); err == nil {
		t.Fatalf("expected error on empty candidates")
	}
}
