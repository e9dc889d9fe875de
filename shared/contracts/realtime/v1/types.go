// Package v1 defines the besocial realtime protocol v1 contract.
//
// This package is intentionally stable and dependency-light.
// It is shared between server and clients to keep the wire protocol authoritative.
package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Version is the protocol version identifier embedded into every envelope.
const Version = "v1"

// Event constants (wire-stable).
const (
	// EventPresence carries the full online roster (server -> every client).
	// Emitted after every connect and every effective disconnect.
	EventPresence = "presence"

	// EventNewMessage delivers a freshly persisted direct message
	// (server -> recipient). Fire-and-forget; the message is already durable.
	EventNewMessage = "newMessage"

	// EventError is a generic error envelope (server -> client).
	EventError = "error"
)

// Envelope is the canonical wire wrapper.
type Envelope struct {
	V       string          `json:"v"`
	Event   string          `json:"event"`
	ID      string          `json:"id,omitempty"`
	TS      time.Time       `json:"ts,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Validate performs strict structural validation for an Envelope.
func (e Envelope) Validate() error {
	if strings.TrimSpace(e.V) == "" {
		return errors.New("missing field: v")
	}
	if e.V != Version {
		return fmt.Errorf("unsupported protocol version: %q", e.V)
	}
	if strings.TrimSpace(e.Event) == "" {
		return errors.New("missing field: event")
	}

	switch e.Event {
	case EventPresence, EventNewMessage, EventError:
		return nil
	default:
		return fmt.Errorf("unknown event: %q", e.Event)
	}
}

// ---- Payloads ----

// PresencePayload carries the set of currently connected user identities.
// The roster is sorted to keep payloads deterministic for clients and tests.
type PresencePayload struct {
	OnlineIdentities []string `json:"onlineIdentities"`
}

// MessagePayload is the full persisted message record delivered to a
// connected recipient. Field names mirror the REST representation so
// clients can reuse one decoder.
type MessagePayload struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ErrorPayload reports a per-connection protocol error.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
