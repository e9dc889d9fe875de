package social

import (
	"context"
	"time"
)

// CreatePostInput carries a new post. Now is the creation timestamp so
// stores stay clock-free.
type CreatePostInput struct {
	UserID string
	Text   string
	Img    string
	Now    time.Time
}

// AddCommentInput carries a new comment for an existing post.
type AddCommentInput struct {
	PostID string
	UserID string
	Text   string
	Now    time.Time
}

// PostStore persists posts. All list operations return newest first.
type PostStore interface {
	Create(ctx context.Context, in CreatePostInput) (Post, error)
	GetByID(ctx context.Context, id string) (Post, error)

	// Delete removes the post and its likes and comments.
	Delete(ctx context.Context, id string) error

	// AddComment appends a comment and returns the updated post.
	AddComment(ctx context.Context, in AddCommentInput) (Post, error)

	// ToggleLike likes the post when userID is absent from its like
	// list and unlikes it otherwise. It returns the updated like list
	// and whether the post is liked after the call.
	ToggleLike(ctx context.Context, postID, userID string) ([]string, bool, error)

	ListAll(ctx context.Context) ([]Post, error)
	ListByUser(ctx context.Context, userID string) ([]Post, error)
	ListByUsers(ctx context.Context, userIDs []string) ([]Post, error)
	ListLikedBy(ctx context.Context, userID string) ([]Post, error)

	Close() error
}

// InsertNotificationInput carries a new notification.
type InsertNotificationInput struct {
	FromID string
	ToID   string
	Type   string
	PostID string
	Now    time.Time
}

// NotificationStore persists activity notifications.
type NotificationStore interface {
	Insert(ctx context.Context, in InsertNotificationInput) (Notification, error)
	ListForUser(ctx context.Context, userID string) ([]Notification, error)
	MarkAllRead(ctx context.Context, userID string) error
	DeleteAllFor(ctx context.Context, userID string) error

	// DeleteLike removes the like notification for a specific post,
	// used when the like is withdrawn. Missing rows are not an error.
	DeleteLike(ctx context.Context, fromID, toID, postID string) error

	Close() error
}
