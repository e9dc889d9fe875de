package social

import (
	"context"
	"log/slog"
	"net/http"

	"besocial/cmd/identity"
	"besocial/cmd/internal/auth"
)

// Handler wires the feed, profile and notification HTTP endpoints.
type Handler struct {
	log      *slog.Logger
	resolver *auth.Resolver
	users    identity.Store
	posts    PostStore
	notifs   NotificationStore
	uploader BlobUploader

	maxBodyBytes int64
}

// NewHandler constructs a social Handler. A nil uploader defaults to
// PassthroughUploader.
func NewHandler(log *slog.Logger, resolver *auth.Resolver, users identity.Store, posts PostStore, notifs NotificationStore, uploader BlobUploader) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if uploader == nil {
		uploader = PassthroughUploader{}
	}
	return &Handler{
		log:          log,
		resolver:     resolver,
		users:        users,
		posts:        posts,
		notifs:       notifs,
		uploader:     uploader,
		maxBodyBytes: 8 << 20, // image payloads arrive inline as data URIs
	}
}

// Register wires routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}

	mux.HandleFunc("GET /api/users/profile/{username}", h.handleUserProfile)
	mux.HandleFunc("GET /api/users/suggested", h.handleSuggestedUsers)
	mux.HandleFunc("POST /api/users/follow/{id}", h.handleFollowUnfollow)
	mux.HandleFunc("POST /api/users/update", h.handleUpdateProfile)

	mux.HandleFunc("GET /api/posts/all", h.handleAllPosts)
	mux.HandleFunc("GET /api/posts/following", h.handleFollowingPosts)
	mux.HandleFunc("GET /api/posts/likes/{id}", h.handleLikedPosts)
	mux.HandleFunc("GET /api/posts/user/{username}", h.handleUserPosts)
	mux.HandleFunc("POST /api/posts/create", h.handleCreatePost)
	mux.HandleFunc("POST /api/posts/like/{id}", h.handleLikePost)
	mux.HandleFunc("POST /api/posts/comment/{id}", h.handleCommentPost)
	mux.HandleFunc("DELETE /api/posts/{id}", h.handleDeletePost)

	mux.HandleFunc("GET /api/notification/", h.handleListNotifications)
	mux.HandleFunc("DELETE /api/notification/", h.handleDeleteNotifications)
}

// authed resolves the caller or writes a 401.
func (h *Handler) authed(w http.ResponseWriter, r *http.Request) (identity.User, bool) {
	me, err := h.resolver.UserFromRequest(r)
	if err != nil {
		auth.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid or missing token")
		return identity.User{}, false
	}
	return me, true
}

func (h *Handler) internalError(w http.ResponseWriter, event string, err error) {
	h.log.Error(event, "err", err)
	auth.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

// userCache memoizes profile lookups while rendering a batch of views.
type userCache struct {
	users identity.Store
	seen  map[string]identity.Public
}

func newUserCache(users identity.Store) *userCache {
	return &userCache{users: users, seen: make(map[string]identity.Public)}
}

func (c *userCache) get(ctx context.Context, id string) identity.Public {
	if p, ok := c.seen[id]; ok {
		return p
	}
	u, err := c.users.GetByID(ctx, id)
	if err != nil {
		// Deleted author: render a tombstone rather than failing the feed.
		p := identity.Public{ID: id}
		c.seen[id] = p
		return p
	}
	p := u.Public()
	c.seen[id] = p
	return p
}

func (h *Handler) postView(ctx context.Context, cache *userCache, p Post) PostView {
	comments := make([]CommentView, 0, len(p.Comments))
	for _, c := range p.Comments {
		comments = append(comments, CommentView{
			ID:        c.ID,
			User:      cache.get(ctx, c.UserID),
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		})
	}
	likes := p.Likes
	if likes == nil {
		likes = []string{}
	}
	return PostView{
		ID:        p.ID,
		User:      cache.get(ctx, p.UserID),
		Text:      p.Text,
		Img:       p.Img,
		Likes:     likes,
		Comments:  comments,
		CreatedAt: p.CreatedAt,
	}
}

func (h *Handler) postViews(ctx context.Context, posts []Post) []PostView {
	cache := newUserCache(h.users)
	out := make([]PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, h.postView(ctx, cache, p))
	}
	return out
}
