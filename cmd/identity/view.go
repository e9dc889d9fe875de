package identity

import "time"

// Public is the outward representation of a User.
// It never carries credential material.
type Public struct {
	ID         string    `json:"id"`
	FullName   string    `json:"fullName"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Bio        string    `json:"bio,omitempty"`
	Link       string    `json:"link,omitempty"`
	ProfileImg string    `json:"profileImg,omitempty"`
	CoverImg   string    `json:"coverImg,omitempty"`
	Followers  []string  `json:"followers"`
	Following  []string  `json:"following"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Public returns the outward view of u.
func (u User) Public() Public {
	return Public{
		ID:         u.ID,
		FullName:   u.FullName,
		Username:   u.Username,
		Email:      u.Email,
		Bio:        u.Bio,
		Link:       u.Link,
		ProfileImg: u.ProfileImg,
		CoverImg:   u.CoverImg,
		Followers:  append([]string{}, u.Followers...),
		Following:  append([]string{}, u.Following...),
		CreatedAt:  u.CreatedAt,
	}
}

// Publics maps a slice of users to their outward views.
func Publics(users []User) []Public {
	out := make([]Public, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}
