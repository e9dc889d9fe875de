// Package social implements the feed: posts with likes and comments,
// follow suggestions, profile updates and activity notifications.
package social

import (
	"time"

	"besocial/cmd/identity"
)

// Post is a feed entry. Likes holds user ids; Comments are embedded
// and ordered oldest first.
type Post struct {
	ID        string
	UserID    string
	Text      string
	Img       string
	Likes     []string
	Comments  []Comment
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Comment is a single reply attached to a post.
type Comment struct {
	ID        string
	UserID    string
	Text      string
	CreatedAt time.Time
}

// LikedBy reports whether userID is in the post's like list.
func (p *Post) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// PostView is the API shape of a post with author and commenter
// profiles resolved.
type PostView struct {
	ID        string          `json:"id"`
	User      identity.Public `json:"user"`
	Text      string          `json:"text,omitempty"`
	Img       string          `json:"img,omitempty"`
	Likes     []string        `json:"likes"`
	Comments  []CommentView   `json:"comments"`
	CreatedAt time.Time       `json:"createdAt"`
}

// CommentView is the API shape of a comment.
type CommentView struct {
	ID        string          `json:"id"`
	User      identity.Public `json:"user"`
	Text      string          `json:"text"`
	CreatedAt time.Time       `json:"createdAt"`
}
