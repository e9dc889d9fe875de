package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"besocial/cmd/identity"
	"besocial/cmd/internal/auth"
	"besocial/cmd/internal/metrics"
	"besocial/cmd/internal/realtime"
	v1 "besocial/shared/contracts/realtime/v1"
)

// Max message text length (runes).
const maxMessageChars = 4000

// Context window sizes for AI reply suggestions.
const (
	suggestionContextFetch = 10
	suggestionCount        = 4
)

// Suggester produces reply suggestions for a message given recent
// conversation context. Implementations must always return exactly count
// non-empty strings; failures are absorbed behind a fixed fallback.
type Suggester interface {
	Suggest(ctx context.Context, target Message, contextMsgs []Message, count int) []string
}

// Handler wires the direct-message HTTP endpoints.
type Handler struct {
	log      *slog.Logger
	resolver *auth.Resolver
	users    identity.Store
	store    MessageStore
	router   *realtime.Router
	suggest  Suggester

	maxBodyBytes int64
}

// NewHandler constructs a chat Handler.
func NewHandler(log *slog.Logger, resolver *auth.Resolver, users identity.Store, store MessageStore, router *realtime.Router, suggest Suggester) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		log:          log,
		resolver:     resolver,
		users:        users,
		store:        store,
		router:       router,
		suggest:      suggest,
		maxBodyBytes: 1 << 20,
	}
}

// Register wires message routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("GET /api/messages/users", h.handleSidebarUsers)
	mux.HandleFunc("GET /api/messages/suggestions/{messageId}", h.handleSuggestions)
	mux.HandleFunc("GET /api/messages/{id}", h.handleHistory)
	mux.HandleFunc("POST /api/messages/send/{id}", h.handleSend)
}

func (h *Handler) handleSidebarUsers(w http.ResponseWriter, r *http.Request) {
	me, err := h.resolver.UserFromRequest(r)
	if err != nil {
		auth.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid or missing token")
		return
	}

	others, err := h.users.ListOthers(r.Context(), me.ID)
	if err != nil {
		h.log.Error("chat.sidebar.fail", "err", err)
		auth.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	auth.WriteJSON(w, http.StatusOK, identity.Publics(others))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	me, err := h.resolver.UserFromRequest(r)
	if err != nil {
		auth.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid or missing token")
		return
	}

	peerID := strings.TrimSpace(r.PathValue("id"))
	if peerID == "" {
		auth.WriteError(w, http.StatusBadRequest, "invalid_request", "missing user id")
		return
	}

	msgs, err := h.store.History(r.Context(), me.ID, peerID)
	if err != nil {
		h.log.Error("chat.history.fail", "err", err)
		auth.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	auth.WriteJSON(w, http.StatusOK, payloads(msgs))
}

type sendRequest struct {
	Text string `json:"text"`
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	me, err := h.resolver.UserFromRequest(r)
	if err != nil {
		auth.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid or missing token")
		return
	}

	receiverID := strings.TrimSpace(r.PathValue("id"))
	if receiverID == "" {
		auth.WriteError(w, http.StatusBadRequest, "invalid_request", "missing receiver id")
		return
	}

	var req sendRequest
	if err := auth.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		auth.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		auth.WriteError(w, http.StatusBadRequest, "invalid_request", "message text is required")
		return
	}
	if len([]rune(text)) > maxMessageChars {
		auth.WriteError(w, http.StatusBadRequest, "too_long", "message text too long")
		return
	}

	if _, err := h.users.GetByID(r.Context(), receiverID); err != nil {
		auth.WriteError(w, http.StatusNotFound, "not_found", "receiver not found")
		return
	}

	// Persist-before-notify: the message must be durable before any live
	// push is attempted. A push failure after this point loses nothing.
	msg, err := h.store.Insert(r.Context(), InsertMessageInput{
		SenderID:   me.ID,
		ReceiverID: receiverID,
		Text:       text,
		Now:        time.Now().UTC(),
	})
	if err != nil {
		h.log.Error("chat.send.insert.fail", "err", err)
		auth.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	metrics.MessagesSent.Inc()

	h.router.Route(msg.Payload())

	auth.WriteJSON(w, http.StatusCreated, msg.Payload())
}

type suggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

func (h *Handler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	if _, err := h.resolver.UserFromRequest(r); err != nil {
		auth.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid or missing token")
		return
	}

	messageID := strings.TrimSpace(r.PathValue("messageId"))
	if messageID == "" {
		auth.WriteError(w, http.StatusBadRequest, "invalid_request", "missing message id")
		return
	}

	target, err := h.store.GetByID(r.Context(), messageID)
	if errors.Is(err, ErrNotFound) {
		auth.WriteError(w, http.StatusNotFound, "not_found", "message not found")
		return
	}
	if err != nil {
		h.log.Error("chat.suggestions.load.fail", "err", err)
		auth.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	contextMsgs, err := h.store.RecentBetween(r.Context(), target.SenderID, target.ReceiverID, suggestionContextFetch)
	if err != nil {
		h.log.Error("chat.suggestions.context.fail", "err", err)
		contextMsgs = nil // suggestions degrade gracefully without context
	}

	suggestions := h.suggest.Suggest(r.Context(), target, contextMsgs, suggestionCount)
	auth.WriteJSON(w, http.StatusOK, suggestionsResponse{Suggestions: suggestions})
}

func payloads(msgs []Message) []v1.MessagePayload {
	out := make([]v1.MessagePayload, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Payload())
	}
	return out
}
