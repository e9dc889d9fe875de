package identity

import (
	"context"
)

// Store persists and queries user accounts and the follow graph.
//
// Requirements:
//   - Create enforces username and email uniqueness (ErrConflict).
//   - Lookups return ErrNotFound for missing users.
//   - Follow/Unfollow are idempotent: following an already-followed user or
//     unfollowing a non-followed one is a no-op, not an error.
type Store interface {
	Create(ctx context.Context, u User) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)

	// ListOthers returns all users except excludeID, newest first.
	ListOthers(ctx context.Context, excludeID string) ([]User, error)

	// SuggestPeers returns up to limit users that userID does not already
	// follow, excluding userID itself.
	SuggestPeers(ctx context.Context, userID string, limit int) ([]User, error)

	Update(ctx context.Context, u User) (User, error)

	Follow(ctx context.Context, followerID, targetID string) error
	Unfollow(ctx context.Context, followerID, targetID string) error

	Close() error
}
