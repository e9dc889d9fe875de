package social

import "time"

// Notification types.
const (
	NotificationFollow = "follow"
	NotificationLike   = "like"
)

// Notification records activity directed at a user. PostID is set for
// like notifications only.
type Notification struct {
	ID        string
	FromID    string
	ToID      string
	Type      string
	PostID    string
	Read      bool
	CreatedAt time.Time
}

// NotificationActor is the slim profile attached to notification views.
type NotificationActor struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	ProfileImg string `json:"profileImg,omitempty"`
}

// NotificationView is the API shape of a notification.
type NotificationView struct {
	ID        string            `json:"id"`
	From      NotificationActor `json:"from"`
	Type      string            `json:"type"`
	PostID    string            `json:"postId,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"createdAt"`
}
