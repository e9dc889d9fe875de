package suggest

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"besocial/cmd/internal/auth"
	"besocial/cmd/internal/metrics"
)

// Conversations longer than this are truncated to the most recent turns
// before prompting.
const maxAssistantTurns = 20

// AssistantHandler serves the freeform AI chat endpoint. Unlike the
// suggestion Gateway it surfaces generation failures to the caller;
// there is no canned reply that makes sense for open conversation.
type AssistantHandler struct {
	log *slog.Logger
	res *auth.Resolver
	gen Generator

	maxBodyBytes int64
}

// NewAssistantHandler constructs an AssistantHandler.
func NewAssistantHandler(log *slog.Logger, res *auth.Resolver, gen Generator) *AssistantHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AssistantHandler{
		log:          log,
		res:          res,
		gen:          gen,
		maxBodyBytes: 1 << 20,
	}
}

// Register wires routes onto the provided mux.
func (h *AssistantHandler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /api/chat", h.handleChat)
}

type assistantTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type assistantRequest struct {
	Messages []assistantTurn `json:"messages"`
}

type assistantResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *AssistantHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	if _, err := h.res.UserFromRequest(r); err != nil {
		auth.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid or missing token")
		return
	}

	var req assistantRequest
	if err := auth.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		auth.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		auth.WriteError(w, http.StatusBadRequest, "invalid_request", "no messages provided")
		return
	}
	last := req.Messages[len(req.Messages)-1]
	if strings.TrimSpace(last.Content) == "" {
		auth.WriteError(w, http.StatusBadRequest, "invalid_request", "last message is empty")
		return
	}

	reply, err := h.gen.Generate(r.Context(), buildAssistantPrompt(req.Messages))
	if err != nil {
		metrics.AssistantChats.WithLabelValues("failed").Inc()
		h.log.Warn("assistant.generate.fail", "err", err)
		switch {
		case errors.Is(err, ErrNoAPIKey):
			auth.WriteError(w, http.StatusUnauthorized, "no_api_key", "invalid or missing API key")
		case errors.Is(err, ErrQuotaExhausted):
			auth.WriteError(w, http.StatusTooManyRequests, "quota_exceeded", "API quota exceeded")
		default:
			auth.WriteError(w, http.StatusInternalServerError, "generation_failed", "an unexpected error occurred")
		}
		return
	}

	metrics.AssistantChats.WithLabelValues("generated").Inc()
	auth.WriteJSON(w, http.StatusOK, assistantResponse{
		Message:   strings.TrimSpace(reply),
		Timestamp: time.Now().UTC(),
	})
}

// buildAssistantPrompt renders the conversation as alternating turns.
// Any role other than "user" is treated as the assistant's own voice,
// matching how clients tag model output.
func buildAssistantPrompt(msgs []assistantTurn) string {
	if len(msgs) > maxAssistantTurns {
		msgs = msgs[len(msgs)-maxAssistantTurns:]
	}

	var b strings.Builder
	b.WriteString("You are a helpful AI assistant chatting with a user of a social media platform.\n\n")
	b.WriteString("Conversation so far:\n")
	for _, m := range msgs {
		speaker := "Assistant"
		if m.Role == "user" {
			speaker = "User"
		}
		b.WriteString(speaker + ": " + strings.TrimSpace(m.Content) + "\n")
	}
	b.WriteString("\nContinue the conversation as the assistant. ")
	b.WriteString("Reply to the user's last message in a concise, conversational tone. ")
	b.WriteString("Respond with the reply text only, no prefixes or labels.\n")
	return b.String()
}
