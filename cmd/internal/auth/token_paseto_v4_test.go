package auth

import (
	"errors"
	"testing"
	"time"
)

func testTokenConfig() Config {
	return Config{
		Issuer:         "besocial-test",
		AccessTokenTTL: time.Hour,
		ClockSkew:      30 * time.Second,
		MaxBodyBytes:   1 << 20,
	}
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	m, err := NewPasetoV4PublicManager(testTokenConfig())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	now := time.Now().UTC()
	token, exp, err := m.Issue("user-123", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !exp.After(now) {
		t.Fatalf("exp=%v not after now", exp)
	}

	claims, err := m.Verify(token, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Fatalf("uid=%q", claims.UserID)
	}
	if claims.Issuer != "besocial-test" {
		t.Fatalf("issuer=%q", claims.Issuer)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	t.Parallel()

	cfg := testTokenConfig()
	cfg.AccessTokenTTL = time.Minute
	m, err := NewPasetoV4PublicManager(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	now := time.Now().UTC()
	token, _, err := m.Issue("user-123", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := m.Verify(token, now.Add(2*time.Minute)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err=%v want ErrInvalidToken", err)
	}
}

func TestVerifyWrongIssuer(t *testing.T) {
	t.Parallel()

	m1, _ := NewPasetoV4PublicManager(testTokenConfig())

	other := testTokenConfig()
	other.Issuer = "someone-else"
	m2, _ := NewPasetoV4PublicManager(other)

	now := time.Now().UTC()
	token, _, err := m2.Issue("user-123", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Different key AND different issuer; must not verify.
	if _, err := m1.Verify(token, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err=%v want ErrInvalidToken", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	t.Parallel()

	m, _ := NewPasetoV4PublicManager(testTokenConfig())
	for _, tok := range []string{"", "garbage", "v4.public.AAAA"} {
		if _, err := m.Verify(tok, time.Now().UTC()); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: err=%v want ErrInvalidToken", tok, err)
		}
	}
}

func TestInvalidSecretHexRejected(t *testing.T) {
	t.Parallel()

	cfg := testTokenConfig()
	cfg.PasetoV4SecretKeyHex = "zz-not-hex"
	if _, err := NewPasetoV4PublicManager(cfg); !errors.Is(err, ErrConfig) {
		t.Fatalf("err=%v want ErrConfig", err)
	}
}
