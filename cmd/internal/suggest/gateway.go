package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"besocial/cmd/internal/chat"
	"besocial/cmd/internal/metrics"
)

// Most recent context messages rendered into the prompt.
const maxContextMessages = 5

// genericPool is the fixed fallback set. Padding consumes it in order;
// a full generation failure returns the whole pool.
var genericPool = [4]string{
	"I see what you mean. What do you think about this?",
	"That's interesting! Tell me more.",
	"I appreciate your perspective on this.",
	"Thanks for sharing that with me.",
}

// Gateway turns conversation context into reply suggestions. It never
// returns an error: any failure degrades to the generic pool so the
// chat UI always has something to show.
type Gateway struct {
	log *slog.Logger
	gen Generator
}

// NewGateway constructs a suggestion Gateway.
func NewGateway(log *slog.Logger, gen Generator) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{log: log, gen: gen}
}

// Suggest returns exactly count non-empty reply suggestions for target.
// contextMsgs is expected newest-first; only the most recent few are
// rendered into the prompt.
func (g *Gateway) Suggest(ctx context.Context, target chat.Message, contextMsgs []chat.Message, count int) []string {
	if count <= 0 {
		count = len(genericPool)
	}

	prompt := buildPrompt(target, contextMsgs, count)

	raw, err := g.gen.Generate(ctx, prompt)
	if err != nil {
		g.log.Warn("suggest.generate.fail", "err", err, "message_id", target.ID)
		metrics.SuggestionRequests.WithLabelValues("fallback").Inc()
		return fallback(count)
	}

	suggestions := splitSuggestions(raw)
	suggestions = padSuggestions(suggestions, count)
	if len(suggestions) > count {
		suggestions = suggestions[:count]
	}

	metrics.SuggestionRequests.WithLabelValues("generated").Inc()
	return suggestions
}

// buildPrompt renders the conversation and the instruction block. Each
// context line is labeled User1 when its sender matches the target
// message's sender, User2 otherwise.
func buildPrompt(target chat.Message, contextMsgs []chat.Message, count int) string {
	lines := make([]string, 0, maxContextMessages)
	for i, m := range contextMsgs {
		if i >= maxContextMessages {
			break
		}
		speaker := "User2"
		if m.SenderID == target.SenderID {
			speaker = "User1"
		}
		lines = append(lines, speaker+": "+m.Text)
	}

	var b strings.Builder
	b.WriteString("You are an AI assistant helping to generate reply suggestions for a social media chat.\n\n")
	b.WriteString("Previous conversation:\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\nMost recent message:\n")
	fmt.Fprintf(&b, "%q\n\n", target.Text)
	fmt.Fprintf(&b, "Generate %d different natural-sounding reply suggestions that match the tone, style, and context of the conversation.\n", count)
	b.WriteString("The replies should sound like they're coming from a real person, not an AI.\n")
	b.WriteString("Each reply should be different in content and approach.\n")
	b.WriteString("Keep the replies concise and conversational.\n")
	b.WriteString("Don't include any prefixes, numbering, or quotation marks in your responses.\n")
	b.WriteString("Separate each suggestion with a ||| delimiter.\n")
	return b.String()
}

// splitSuggestions splits raw model output on the ||| delimiter, trims
// whitespace and drops empty segments.
func splitSuggestions(raw string) []string {
	parts := strings.Split(raw, "|||")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// padSuggestions tops up short results from the generic pool, in pool
// order, repeating the pool if count exceeds it.
func padSuggestions(suggestions []string, count int) []string {
	for i := 0; len(suggestions) < count; i++ {
		suggestions = append(suggestions, genericPool[i%len(genericPool)])
	}
	return suggestions
}

func fallback(count int) []string {
	out := make([]string, 0, len(genericPool))
	out = append(out, genericPool[:]...)
	if count < len(out) {
		out = out[:count]
	}
	for len(out) < count {
		// More than four requested: repeat the pool rather than return short.
		out = append(out, genericPool[len(out)%len(genericPool)])
	}
	return out
}
