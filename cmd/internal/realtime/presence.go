package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"besocial/cmd/internal/metrics"

	v1 "besocial/shared/contracts/realtime/v1"
)

// Broadcaster emits the online roster to every connected client whenever the
// registry changes.
//
// Ordering guarantee: the mutation and its fanout run as one serialized unit,
// so two roster broadcasts reach any given client's send queue in the same
// order the mutations were applied. Lookup traffic (message routing) is not
// serialized here; it goes straight to the registry.
//
// Fanout is best-effort per connection: a full or closing client is skipped
// and never aborts delivery to the rest.
type Broadcaster struct {
	log *slog.Logger
	reg *Registry

	mu sync.Mutex
}

// NewBroadcaster constructs a Broadcaster over reg.
func NewBroadcaster(log *slog.Logger, reg *Registry) *Broadcaster {
	if log == nil {
		log = slog.Default()
	}
	return &Broadcaster{log: log, reg: reg}
}

// Registry exposes the underlying registry for lookups.
func (b *Broadcaster) Registry() *Registry {
	if b == nil {
		return nil
	}
	return b.reg
}

// Connected registers client as the live connection for userID and broadcasts
// the resulting roster to all connected clients, including this one.
func (b *Broadcaster) Connected(userID string, client *Client) {
	if b == nil || userID == "" || client == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if superseded := b.reg.Register(userID, client); superseded != nil {
		// The old transport is closed by its own session loop; here we only
		// stop queueing events for it.
		b.log.Info("presence.superseded", "user_id", userID, "old_session", superseded.SessionID)
	}
	metrics.WSConnections.Set(float64(b.reg.Len()))
	b.fanoutLocked()

	b.log.Info("presence.online", "user_id", userID, "session_id", client.SessionID, "online", b.reg.Len())
}

// Disconnected removes client from the registry (guarded) and, only if
// removal occurred, broadcasts the shrunken roster. A stale disconnect for a
// superseded client is a no-op: the roster is still accurate.
func (b *Broadcaster) Disconnected(userID string, client *Client) bool {
	if b == nil || userID == "" || client == nil {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.reg.Unregister(userID, client) {
		return false
	}
	metrics.WSConnections.Set(float64(b.reg.Len()))
	b.fanoutLocked()

	b.log.Info("presence.offline", "user_id", userID, "session_id", client.SessionID, "online", b.reg.Len())
	return true
}

// fanoutLocked enqueues the current roster to every connected client.
// Callers must hold b.mu.
func (b *Broadcaster) fanoutLocked() {
	roster := b.reg.Snapshot()
	payload, err := json.Marshal(v1.PresencePayload{OnlineIdentities: roster})
	if err != nil {
		b.log.Error("presence.marshal.fail", "err", err)
		return
	}

	env := newEnvelope(v1.EventPresence, payload, time.Now().UTC())

	dropped := 0
	for _, c := range b.reg.Clients() {
		if !c.TryEnqueue(env) {
			dropped++
		}
	}
	if dropped > 0 {
		b.log.Info("presence.fanout.dropped", "dropped", dropped, "online", len(roster))
	}
	metrics.PresenceBroadcasts.Inc()
}
