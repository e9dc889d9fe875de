package identity

import (
	"context"
	"sort"
	"sync"
	"time"

	"besocial/cmd/identity/ids"
)

// InMemoryStore is a dev/test fallback when DB is not configured.
type InMemoryStore struct {
	mu         sync.Mutex
	users      map[string]User
	byUsername map[string]string
	byEmail    map[string]string
}

// NewInMemoryStore constructs an in-memory Store implementation.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:      make(map[string]User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

// Close closes the store (noop for in-memory).
func (s *InMemoryStore) Close() error { return nil }

// Create inserts a new user, enforcing username/email uniqueness.
func (s *InMemoryStore) Create(ctx context.Context, u User) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	if u.Username == "" || u.Email == "" || u.PasswordHash == "" {
		return User{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[u.Username]; taken {
		return User{}, ErrConflict
	}
	if _, taken := s.byEmail[u.Email]; taken {
		return User{}, ErrConflict
	}

	now := time.Now().UTC()
	if u.ID == "" {
		id, err := ids.NewULID(now)
		if err != nil {
			return User{}, err
		}
		u.ID = id
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.ID] = u
	s.byUsername[u.Username] = u.ID
	s.byEmail[u.Email] = u.ID
	return cloneUser(u), nil
}

// GetByID returns the user with the given id.
func (s *InMemoryStore) GetByID(ctx context.Context, id string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return cloneUser(u), nil
}

// GetByUsername returns the user with the given (normalized) username.
func (s *InMemoryStore) GetByUsername(ctx context.Context, username string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byUsername[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return cloneUser(s.users[id]), nil
}

// ListOthers returns all users except excludeID, newest first.
func (s *InMemoryStore) ListOthers(ctx context.Context, excludeID string) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	out := make([]User, 0, len(s.users))
	for id, u := range s.users {
		if id == excludeID {
			continue
		}
		out = append(out, cloneUser(u))
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// SuggestPeers returns up to limit users that userID does not already follow.
func (s *InMemoryStore) SuggestPeers(ctx context.Context, userID string, limit int) ([]User, error) {
	if limit <= 0 {
		limit = 4
	}

	self, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	all, err := s.ListOthers(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]User, 0, limit)
	for _, u := range all {
		if self.IsFollowing(u.ID) {
			continue
		}
		out = append(out, u)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Update persists mutable profile fields for an existing user.
func (s *InMemoryStore) Update(ctx context.Context, u User) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.users[u.ID]
	if !ok {
		return User{}, ErrNotFound
	}

	if u.Username != cur.Username {
		if _, taken := s.byUsername[u.Username]; taken {
			return User{}, ErrConflict
		}
		delete(s.byUsername, cur.Username)
		s.byUsername[u.Username] = u.ID
	}
	if u.Email != cur.Email {
		if _, taken := s.byEmail[u.Email]; taken {
			return User{}, ErrConflict
		}
		delete(s.byEmail, cur.Email)
		s.byEmail[u.Email] = u.ID
	}

	// The follow graph is owned by Follow/Unfollow.
	u.Followers = cur.Followers
	u.Following = cur.Following
	u.CreatedAt = cur.CreatedAt
	u.UpdatedAt = time.Now().UTC()

	s.users[u.ID] = u
	return cloneUser(u), nil
}

// Follow records followerID following targetID (idempotent).
func (s *InMemoryStore) Follow(ctx context.Context, followerID, targetID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if followerID == targetID {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	follower, ok := s.users[followerID]
	if !ok {
		return ErrNotFound
	}
	target, ok := s.users[targetID]
	if !ok {
		return ErrNotFound
	}

	if !contains(follower.Following, targetID) {
		follower.Following = append(follower.Following, targetID)
		s.users[followerID] = follower
	}
	if !contains(target.Followers, followerID) {
		target.Followers = append(target.Followers, followerID)
		s.users[targetID] = target
	}
	return nil
}

// Unfollow removes followerID from targetID's followers (idempotent).
func (s *InMemoryStore) Unfollow(ctx context.Context, followerID, targetID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if followerID == targetID {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	follower, ok := s.users[followerID]
	if !ok {
		return ErrNotFound
	}
	target, ok := s.users[targetID]
	if !ok {
		return ErrNotFound
	}

	follower.Following = remove(follower.Following, targetID)
	target.Followers = remove(target.Followers, followerID)
	s.users[followerID] = follower
	s.users[targetID] = target
	return nil
}

func cloneUser(u User) User {
	u.Followers = append([]string(nil), u.Followers...)
	u.Following = append([]string(nil), u.Following...)
	return u
}

func contains(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}

func remove(ss []string, v string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
