package realtime

import (
	"sort"
	"sync"
)

// Registry maintains the live mapping from user identity to its single
// active websocket client.
//
// Concurrency guarantees:
//   - Register/Unregister are linearizable with respect to each other.
//   - Unregister is an atomic compare-and-delete: it removes the entry only
//     when the currently registered client is the exact client passed in.
//     This closes the reconnect race where a stale disconnect would clobber
//     a newer connection from the same identity.
//   - Lookup/Snapshot observe some consistent prior state.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Client
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*Client),
	}
}

// Register makes client the authoritative connection for userID.
// Any previously registered client for the same identity is superseded and
// returned; closing the superseded transport is the caller's responsibility.
func (r *Registry) Register(userID string, client *Client) (superseded *Client) {
	if r == nil || userID == "" || client == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	superseded = r.conns[userID]
	r.conns[userID] = client
	if superseded == client {
		return nil
	}
	return superseded
}

// Unregister removes the mapping for userID only if the currently registered
// client is reference-identical to client. It reports whether removal occurred.
func (r *Registry) Unregister(userID string, client *Client) bool {
	if r == nil || userID == "" || client == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.conns[userID]
	if !ok || current != client {
		return false
	}
	delete(r.conns, userID)
	return true
}

// Lookup returns the live client for userID, if any.
func (r *Registry) Lookup(userID string) (*Client, bool) {
	if r == nil || userID == "" {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[userID]
	return c, ok
}

// Snapshot returns the sorted set of currently connected identities.
func (r *Registry) Snapshot() []string {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	out := make([]string, 0, len(r.conns))
	for id := range r.conns {
		out = append(out, id)
	}
	r.mu.RUnlock()

	sort.Strings(out)
	return out
}

// Clients returns the current set of live clients.
// The slice is a copy; entries may go stale immediately, which is acceptable
// for best-effort fanout.
func (r *Registry) Clients() []*Client {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Client, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

// Len reports the number of connected identities.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
