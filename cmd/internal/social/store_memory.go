package social

import (
	"context"
	"sort"
	"strings"
	"sync"

	"besocial/cmd/identity/ids"
)

// InMemoryPostStore is the dev and test PostStore.
type InMemoryPostStore struct {
	mu    sync.RWMutex
	posts map[string]*Post
}

// NewInMemoryPostStore constructs an empty post store.
func NewInMemoryPostStore() *InMemoryPostStore {
	return &InMemoryPostStore{posts: make(map[string]*Post)}
}

func clonePost(p *Post) Post {
	out := *p
	out.Likes = append([]string(nil), p.Likes...)
	out.Comments = append([]Comment(nil), p.Comments...)
	return out
}

func (s *InMemoryPostStore) Create(_ context.Context, in CreatePostInput) (Post, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return Post{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Text) == "" && strings.TrimSpace(in.Img) == "" {
		return Post{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := ids.NewULID(in.Now)
	if err != nil {
		return Post{}, err
	}
	p := &Post{
		ID:        id,
		UserID:    in.UserID,
		Text:      strings.TrimSpace(in.Text),
		Img:       strings.TrimSpace(in.Img),
		CreatedAt: in.Now,
		UpdatedAt: in.Now,
	}
	s.posts[p.ID] = p
	return clonePost(p), nil
}

func (s *InMemoryPostStore) GetByID(_ context.Context, id string) (Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return Post{}, ErrNotFound
	}
	return clonePost(p), nil
}

func (s *InMemoryPostStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *InMemoryPostStore) AddComment(_ context.Context, in AddCommentInput) (Post, error) {
	if strings.TrimSpace(in.Text) == "" {
		return Post{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[in.PostID]
	if !ok {
		return Post{}, ErrNotFound
	}
	cid, err := ids.NewULID(in.Now)
	if err != nil {
		return Post{}, err
	}
	p.Comments = append(p.Comments, Comment{
		ID:        cid,
		UserID:    in.UserID,
		Text:      strings.TrimSpace(in.Text),
		CreatedAt: in.Now,
	})
	p.UpdatedAt = in.Now
	return clonePost(p), nil
}

func (s *InMemoryPostStore) ToggleLike(_ context.Context, postID, userID string) ([]string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return nil, false, ErrNotFound
	}

	for i, id := range p.Likes {
		if id == userID {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			return append([]string(nil), p.Likes...), false, nil
		}
	}
	p.Likes = append(p.Likes, userID)
	return append([]string(nil), p.Likes...), true, nil
}

func (s *InMemoryPostStore) ListAll(_ context.Context) ([]Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(*Post) bool { return true }), nil
}

func (s *InMemoryPostStore) ListByUser(_ context.Context, userID string) ([]Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(p *Post) bool { return p.UserID == userID }), nil
}

func (s *InMemoryPostStore) ListByUsers(_ context.Context, userIDs []string) ([]Post, error) {
	want := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		want[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(p *Post) bool {
		_, ok := want[p.UserID]
		return ok
	}), nil
}

func (s *InMemoryPostStore) ListLikedBy(_ context.Context, userID string) ([]Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(p *Post) bool { return p.LikedBy(userID) }), nil
}

// collect filters and sorts newest first. Callers hold at least a read
// lock.
func (s *InMemoryPostStore) collect(keep func(*Post) bool) []Post {
	out := make([]Post, 0, len(s.posts))
	for _, p := range s.posts {
		if keep(p) {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *InMemoryPostStore) Close() error { return nil }

// InMemoryNotificationStore is the dev and test NotificationStore.
type InMemoryNotificationStore struct {
	mu    sync.RWMutex
	items []*Notification
}

// NewInMemoryNotificationStore constructs an empty notification store.
func NewInMemoryNotificationStore() *InMemoryNotificationStore {
	return &InMemoryNotificationStore{}
}

func (s *InMemoryNotificationStore) Insert(_ context.Context, in InsertNotificationInput) (Notification, error) {
	if in.FromID == "" || in.ToID == "" {
		return Notification{}, ErrInvalidInput
	}
	if in.Type != NotificationFollow && in.Type != NotificationLike {
		return Notification{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := ids.NewULID(in.Now)
	if err != nil {
		return Notification{}, err
	}
	n := &Notification{
		ID:        id,
		FromID:    in.FromID,
		ToID:      in.ToID,
		Type:      in.Type,
		PostID:    in.PostID,
		CreatedAt: in.Now,
	}
	s.items = append(s.items, n)
	return *n, nil
}

func (s *InMemoryNotificationStore) ListForUser(_ context.Context, userID string) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Notification, 0)
	for _, n := range s.items {
		if n.ToID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (s *InMemoryNotificationStore) MarkAllRead(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.items {
		if n.ToID == userID {
			n.Read = true
		}
	}
	return nil
}

func (s *InMemoryNotificationStore) DeleteAllFor(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	for _, n := range s.items {
		if n.ToID != userID {
			kept = append(kept, n)
		}
	}
	s.items = kept
	return nil
}

func (s *InMemoryNotificationStore) DeleteLike(_ context.Context, fromID, toID, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	for _, n := range s.items {
		if n.Type == NotificationLike && n.FromID == fromID && n.ToID == toID && n.PostID == postID {
			continue
		}
		kept = append(kept, n)
	}
	s.items = kept
	return nil
}

func (s *InMemoryNotificationStore) Close() error { return nil }
