package identity

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple", DefaultArgon2idParams())
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Fatalf("unexpected PHC prefix: %q", hash)
	}

	ok, err := VerifyPassword("correct horse battery staple", hash)
	if err != nil || !ok {
		t.Fatalf("verify ok=%v err=%v", ok, err)
	}

	ok, err = VerifyPassword("wrong password", hash)
	if err != nil {
		t.Fatalf("verify wrong err=%v", err)
	}
	if ok {
		t.Fatalf("wrong password verified")
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	t.Parallel()

	p := DefaultArgon2idParams()
	h1, err := HashPassword("same secret", p)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := HashPassword("same secret", p)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("two hashes of the same password are identical")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	t.Parallel()

	cases := []string{
		"",
		"not-a-hash",
		"$argon2id$v=19$m=65536",
		"$sha256$deadbeef",
	}
	for _, h := range cases {
		if ok, err := VerifyPassword("x", h); err == nil || ok {
			t.Fatalf("hash %q: ok=%v err=%v, want error", h, ok, err)
		}
	}
}

func TestUsernameAndEmailValidation(t *testing.T) {
	t.Parallel()

	if !ValidUsername("alice_01") || !ValidUsername("a.b-c") {
		t.Fatalf("valid usernames rejected")
	}
	for _, bad := range []string{"", "ab", "UPPER", "has space", strings.Repeat("a", 31)} {
		if ValidUsername(bad) {
			t.Fatalf("username %q accepted", bad)
		}
	}

	if !ValidEmail("a@b.co") {
		t.Fatalf("valid email rejected")
	}
	for _, bad := range []string{"", "nope", "a@b", "a b@c.d"} {
		if ValidEmail(bad) {
			t.Fatalf("email %q accepted", bad)
		}
	}

	if NormalizeUsername("  Alice ") != "alice" {
		t.Fatalf("NormalizeUsername")
	}
	if NormalizeEmail(" A@B.CO ") != "a@b.co" {
		t.Fatalf("NormalizeEmail")
	}
}
