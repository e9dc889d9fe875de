// Package identity holds user accounts: the canonical User record, password
// hashing, and the user store implementations.
package identity

import (
	"regexp"
	"strings"
	"time"
)

// User is the canonical account record.
// PasswordHash is never serialized outward; API handlers build their own views.
type User struct {
	ID           string
	FullName     string
	Username     string
	Email        string
	PasswordHash string

	Bio        string
	Link       string
	ProfileImg string
	CoverImg   string

	Followers []string
	Following []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernameRe = regexp.MustCompile(`^[a-z0-9_.-]{3,30}$`)
)

// NormalizeUsername lowercases and trims a username.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && len(s) <= 254 && emailRe.MatchString(s)
}

// ValidUsername reports whether s is an acceptable (already normalized) username.
func ValidUsername(s string) bool {
	return usernameRe.MatchString(s)
}

// IsFollowing reports whether u follows targetID.
func (u User) IsFollowing(targetID string) bool {
	for _, id := range u.Following {
		if id == targetID {
			return true
		}
	}
	return false
}
