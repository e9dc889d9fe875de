package suggest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"besocial/cmd/internal/chat"
)

type fakeGenerator struct {
	out        string
	err        error
	lastPrompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.out, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMessage(id, sender, receiver, text string) chat.Message {
	return chat.Message{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Text:       text,
		CreatedAt:  time.Now().UTC(),
	}
}

func assertSuggestions(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d suggestions %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("suggestion %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSuggestPadsShortOutput(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{out: "Sure!|||Sounds good|||"}
	g := NewGateway(testLogger(), gen)

	got := g.Suggest(context.Background(), testMessage("m1", "a", "b", "lunch?"), nil, 4)
	assertSuggestions(t, got, []string{
		"Sure!",
		"Sounds good",
		"I see what you mean. What do you think about this?",
		"That's interesting! Tell me more.",
	})
}

func TestSuggestTruncatesLongOutput(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{out: "one|||two|||three|||four|||five|||six"}
	g := NewGateway(testLogger(), gen)

	got := g.Suggest(context.Background(), testMessage("m1", "a", "b", "hey"), nil, 4)
	assertSuggestions(t, got, []string{"one", "two", "three", "four"})
}

func TestSuggestExactCountPassesThrough(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{out: " alpha ||| beta|||gamma ||| delta "}
	g := NewGateway(testLogger(), gen)

	got := g.Suggest(context.Background(), testMessage("m1", "a", "b", "hey"), nil, 4)
	assertSuggestions(t, got, []string{"alpha", "beta", "gamma", "delta"})
}

func TestSuggestEmptyOutputFillsFromPool(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{out: "   ||| |||"}
	g := NewGateway(testLogger(), gen)

	got := g.Suggest(context.Background(), testMessage("m1", "a", "b", "hey"), nil, 4)
	assertSuggestions(t, got, genericPool[:])
}

func TestSuggestGeneratorErrorReturnsFallback(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{err: errors.New("network down")}
	g := NewGateway(testLogger(), gen)

	got := g.Suggest(context.Background(), testMessage("m1", "a", "b", "hey"), nil, 4)
	assertSuggestions(t, got, genericPool[:])
}

func TestSuggestNeverReturnsEmptyStrings(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		gen  *fakeGenerator
	}{
		{name: "error", gen: &fakeGenerator{err: errors.New("boom")}},
		{name: "empty", gen: &fakeGenerator{out: ""}},
		{name: "delimiters only", gen: &fakeGenerator{out: "||||||"}},
		{name: "partial", gen: &fakeGenerator{out: "ok|||"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGateway(testLogger(), tc.gen)
			got := g.Suggest(context.Background(), testMessage("m1", "a", "b", "hey"), nil, 4)
			if len(got) != 4 {
				t.Fatalf("got %d suggestions, want 4", len(got))
			}
			for i, s := range got {
				if strings.TrimSpace(s) == "" {
					t.Fatalf("suggestion %d is empty", i)
				}
			}
		})
	}
}

func TestSuggestPadsBeyondPoolSize(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{out: "Sure!|||"}
	g := NewGateway(testLogger(), gen)

	got := g.Suggest(context.Background(), testMessage("m1", "a", "b", "hey"), nil, 6)
	if len(got) != 6 {
		t.Fatalf("got %d suggestions, want 6", len(got))
	}
	assertSuggestions(t, got, []string{
		"Sure!",
		genericPool[0],
		genericPool[1],
		genericPool[2],
		genericPool[3],
		genericPool[0],
	})
}

func TestBuildPromptSpeakerLabels(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{out: "a|||b|||c|||d"}
	g := NewGateway(testLogger(), gen)

	target := testMessage("m3", "alice", "bob", "see you there")
	ctxMsgs := []chat.Message{
		testMessage("m2", "bob", "alice", "where do we meet?"),
		testMessage("m1", "alice", "bob", "dinner tonight?"),
	}
	g.Suggest(context.Background(), target, ctxMsgs, 4)

	prompt := gen.lastPrompt
	if !strings.Contains(prompt, "User2: where do we meet?") {
		t.Fatalf("peer message not labeled User2:\n%s", prompt)
	}
	if !strings.Contains(prompt, "User1: dinner tonight?") {
		t.Fatalf("target sender message not labeled User1:\n%s", prompt)
	}
	if !strings.Contains(prompt, `"see you there"`) {
		t.Fatalf("target message missing from prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Separate each suggestion with a ||| delimiter.") {
		t.Fatalf("delimiter instruction missing:\n%s", prompt)
	}
}

func TestBuildPromptKeepsNewestFirstOrder(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{out: "a|||b|||c|||d"}
	g := NewGateway(testLogger(), gen)

	target := testMessage("m3", "alice", "bob", "see you there")
	ctxMsgs := []chat.Message{
		testMessage("m2", "bob", "alice", "where do we meet?"),
		testMessage("m1", "alice", "bob", "dinner tonight?"),
	}
	g.Suggest(context.Background(), target, ctxMsgs, 4)

	prompt := gen.lastPrompt
	newer := strings.Index(prompt, "User2: where do we meet?")
	older := strings.Index(prompt, "User1: dinner tonight?")
	if newer < 0 || older < 0 || newer > older {
		t.Fatalf("context not rendered newest first (newer=%d older=%d):\n%s", newer, older, prompt)
	}
}

func TestBuildPromptLimitsContext(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{out: "a|||b|||c|||d"}
	g := NewGateway(testLogger(), gen)

	var ctxMsgs []chat.Message
	for i := 0; i < 10; i++ {
		ctxMsgs = append(ctxMsgs, testMessage("m", "alice", "bob", "line"))
	}
	g.Suggest(context.Background(), testMessage("t", "alice", "bob", "x"), ctxMsgs, 4)

	if got := strings.Count(gen.lastPrompt, "User1: line"); got != maxContextMessages {
		t.Fatalf("prompt contains %d context lines, want %d", got, maxContextMessages)
	}
}

func TestGeminiGeneratorRequiresKey(t *testing.T) {
	t.Parallel()

	g := NewGeminiGenerator("", 0)
	if _, err := g.Generate(context.Background(), "hello"); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("err=%v want ErrNoAPIKey", err)
	}
}
