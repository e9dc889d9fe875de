package realtime

import (
	"encoding/json"
	"log/slog"
	"time"

	"besocial/cmd/internal/metrics"

	v1 "besocial/shared/contracts/realtime/v1"
)

// Router delivers freshly persisted direct messages to connected recipients.
//
// Contract: Route must be called only after the message has been durably
// persisted. Delivery is fire-and-forget: no acknowledgment is awaited and no
// retry is attempted. A recipient that is offline, or whose send queue cannot
// accept the event, simply picks the message up on its next history fetch.
type Router struct {
	log *slog.Logger
	reg *Registry
}

// NewRouter constructs a Router over reg.
func NewRouter(log *slog.Logger, reg *Registry) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{log: log, reg: reg}
}

// Route pushes msg to the recipient's live connection, if any.
// It reports whether the event was enqueued; false is not an error.
func (r *Router) Route(msg v1.MessagePayload) bool {
	if r == nil || msg.ReceiverID == "" {
		return false
	}

	client, ok := r.reg.Lookup(msg.ReceiverID)
	if !ok {
		metrics.MessagesRouted.WithLabelValues("offline").Inc()
		return false
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		r.log.Error("route.marshal.fail", "message_id", msg.ID, "err", err)
		metrics.MessagesRouted.WithLabelValues("dropped").Inc()
		return false
	}

	env := newEnvelope(v1.EventNewMessage, payload, time.Now().UTC())

	if !client.TryEnqueue(env) {
		// Swallowed: the message is already durable, so nothing is lost.
		r.log.Info("route.push.dropped", "message_id", msg.ID, "receiver_id", msg.ReceiverID)
		metrics.MessagesRouted.WithLabelValues("dropped").Inc()
		return false
	}

	metrics.MessagesRouted.WithLabelValues("delivered").Inc()
	return true
}
