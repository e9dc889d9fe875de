package realtime

import (
	"encoding/json"
	"time"

	"besocial/cmd/identity/ids"

	v1 "besocial/shared/contracts/realtime/v1"
)

// NewSessionID returns a ULID used as websocket session id.
// ULID is preferable to random hex for tracing and ordering in logs.
func NewSessionID(now time.Time) (string, error) {
	return ids.NewULID(now)
}

func newEnvelope(event string, payload json.RawMessage, ts time.Time) v1.Envelope {
	id, _ := ids.NewULID(ts)
	return v1.Envelope{
		V:       v1.Version,
		Event:   event,
		ID:      id,
		TS:      ts,
		Payload: payload,
	}
}
