package identity

import (
	"context"
	"errors"
	"testing"
)

func newTestUser(username string) User {
	return User{
		FullName:     "Test " + username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$argon2id$fake",
	}
}

func mustCreate(t *testing.T, s Store, username string) User {
	t.Helper()
	u, err := s.Create(context.Background(), newTestUser(username))
	if err != nil {
		t.Fatalf("create %q: %v", username, err)
	}
	return u
}

func TestCreateAssignsIDAndTimestamps(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	u := mustCreate(t, s, "alice")

	if u.ID == "" {
		t.Fatalf("no id assigned")
	}
	if u.CreatedAt.IsZero() || u.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not set: %+v", u)
	}
}

func TestCreateEnforcesUniqueness(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	mustCreate(t, s, "alice")

	dup := newTestUser("alice")
	dup.Email = "other@example.com"
	if _, err := s.Create(context.Background(), dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate username err=%v want ErrConflict", err)
	}

	dup = newTestUser("bob")
	dup.Email = "alice@example.com"
	if _, err := s.Create(context.Background(), dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate email err=%v want ErrConflict", err)
	}
}

func TestGetByUsernameAndID(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	created := mustCreate(t, s, "alice")

	byName, err := s.GetByUsername(context.Background(), "alice")
	if err != nil || byName.ID != created.ID {
		t.Fatalf("GetByUsername=%+v err=%v", byName, err)
	}
	byID, err := s.GetByID(context.Background(), created.ID)
	if err != nil || byID.Username != "alice" {
		t.Fatalf("GetByID=%+v err=%v", byID, err)
	}
	if _, err := s.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user err=%v want ErrNotFound", err)
	}
}

func TestFollowUnfollowIdempotent(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	a := mustCreate(t, s, "alice")
	b := mustCreate(t, s, "bob")
	ctx := context.Background()

	if err := s.Follow(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := s.Follow(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("second follow: %v", err)
	}

	gotA, _ := s.GetByID(ctx, a.ID)
	gotB, _ := s.GetByID(ctx, b.ID)
	if len(gotA.Following) != 1 || gotA.Following[0] != b.ID {
		t.Fatalf("following=%v", gotA.Following)
	}
	if len(gotB.Followers) != 1 || gotB.Followers[0] != a.ID {
		t.Fatalf("followers=%v", gotB.Followers)
	}

	if err := s.Unfollow(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	if err := s.Unfollow(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("second unfollow: %v", err)
	}
	gotA, _ = s.GetByID(ctx, a.ID)
	if len(gotA.Following) != 0 {
		t.Fatalf("following after unfollow=%v", gotA.Following)
	}
}

func TestFollowSelfRejected(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	a := mustCreate(t, s, "alice")

	if err := s.Follow(context.Background(), a.ID, a.ID); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("self-follow err=%v want ErrInvalidInput", err)
	}
}

func TestUpdatePreservesFollowGraph(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	a := mustCreate(t, s, "alice")
	b := mustCreate(t, s, "bob")
	ctx := context.Background()

	if err := s.Follow(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}

	a.Bio = "hello"
	a.Following = nil // callers cannot overwrite the graph through Update
	updated, err := s.Update(ctx, a)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Bio != "hello" {
		t.Fatalf("bio=%q", updated.Bio)
	}
	if len(updated.Following) != 1 || updated.Following[0] != b.ID {
		t.Fatalf("follow graph lost: %v", updated.Following)
	}
}

func TestUpdateUsernameConflict(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	a := mustCreate(t, s, "alice")
	mustCreate(t, s, "bob")

	a.Username = "bob"
	if _, err := s.Update(context.Background(), a); !errors.Is(err, ErrConflict) {
		t.Fatalf("err=%v want ErrConflict", err)
	}
}

func TestSuggestPeersExcludesFollowed(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	a := mustCreate(t, s, "alice")
	b := mustCreate(t, s, "bob")
	c := mustCreate(t, s, "carol")
	d := mustCreate(t, s, "dave")
	ctx := context.Background()

	if err := s.Follow(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}

	peers, err := s.SuggestPeers(ctx, a.ID, 4)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	for _, p := range peers {
		if p.ID == a.ID {
			t.Fatalf("suggested self")
		}
		if p.ID == b.ID {
			t.Fatalf("suggested already-followed user")
		}
	}
	if len(peers) != 2 {
		t.Fatalf("got %d peers, want 2 (%v, %v)", len(peers), c.ID, d.ID)
	}
}

func TestListOthersExcludesSelf(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	a := mustCreate(t, s, "alice")
	mustCreate(t, s, "bob")

	others, err := s.ListOthers(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(others) != 1 || others[0].Username != "bob" {
		t.Fatalf("others=%+v", others)
	}
}
