package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"besocial/cmd/identity/ids"
)

const memMaxMessagesPerPair = 10_000

// InMemoryStore is a dev/test fallback when DB is not configured.
type InMemoryStore struct {
	mu    sync.Mutex
	byID  map[string]Message
	pairs map[pairKey][]Message // ordered by CreatedAt ASC (insertion order)
}

type pairKey struct {
	lo, hi string
}

func keyFor(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// NewInMemoryStore constructs an in-memory MessageStore implementation.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:  make(map[string]Message),
		pairs: make(map[pairKey][]Message),
	}
}

// Close closes the store (noop for in-memory).
func (s *InMemoryStore) Close() error { return nil }

// Insert persists a message, assigning its identifier and creation timestamp.
func (s *InMemoryStore) Insert(ctx context.Context, in InsertMessageInput) (Message, error) {
	if in.SenderID == "" || in.ReceiverID == "" || in.Text == "" {
		return Message{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Message{}, err
	}

	msg := Message{
		ID:         id,
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Text:       in.Text,
		CreatedAt:  now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[msg.ID] = msg

	k := keyFor(in.SenderID, in.ReceiverID)
	msgs := append(s.pairs[k], msg)

	// Bound memory to avoid unbounded growth in dev.
	if len(msgs) > memMaxMessagesPerPair {
		drop := msgs[:len(msgs)-memMaxMessagesPerPair]
		for _, m := range drop {
			delete(s.byID, m.ID)
		}
		msgs = msgs[len(msgs)-memMaxMessagesPerPair:]
	}
	s.pairs[k] = msgs

	return msg, nil
}

// GetByID returns one message by its identifier.
func (s *InMemoryStore) GetByID(ctx context.Context, id string) (Message, error) {
	if id == "" {
		return Message{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok {
		return Message{}, ErrNotFound
	}
	return m, nil
}

// History returns all messages between userA and userB ordered by creation time ASC.
func (s *InMemoryStore) History(ctx context.Context, userA, userB string) ([]Message, error) {
	if userA == "" || userB == "" {
		return nil, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	snap := append([]Message(nil), s.pairs[keyFor(userA, userB)]...)
	s.mu.Unlock()

	// Insertion order already tracks creation time; sort defensively since
	// callers depend on complete, correctly ordered history.
	sort.Slice(snap, func(i, j int) bool {
		if snap[i].CreatedAt.Equal(snap[j].CreatedAt) {
			return snap[i].ID < snap[j].ID
		}
		return snap[i].CreatedAt.Before(snap[j].CreatedAt)
	})
	return snap, nil
}

// RecentBetween returns up to limit most recent messages between the pair, newest first.
func (s *InMemoryStore) RecentBetween(ctx context.Context, userA, userB string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 10
	}

	asc, err := s.History(ctx, userA, userB)
	if err != nil {
		return nil, err
	}

	out := make([]Message, 0, limit)
	for i := len(asc) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, asc[i])
	}
	return out, nil
}
