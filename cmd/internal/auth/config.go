package auth

import (
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"time"
)

// Config holds token issuance settings.
type Config struct {
	Issuer string

	// AccessTokenTTL is deliberately long (15 days) to match the product's
	// stateless session model; there is no server-side session row to revoke.
	AccessTokenTTL time.Duration
	ClockSkew      time.Duration

	// PasetoV4SecretKeyHex is the Ed25519 seed for PASETO v4.public signing.
	// When empty, an ephemeral key is generated at startup (dev only: tokens
	// do not survive restarts).
	PasetoV4SecretKeyHex string

	MaxBodyBytes int64
}

// LoadConfigFromEnv reads auth configuration from environment variables.
func LoadConfigFromEnv() (Config, error) {
	cfg := Config{
		Issuer:               envString("BS_TOKEN_ISSUER", "besocial"),
		AccessTokenTTL:       envDuration("BS_TOKEN_TTL", 15*24*time.Hour),
		ClockSkew:            envDuration("BS_TOKEN_CLOCK_SKEW", 30*time.Second),
		PasetoV4SecretKeyHex: strings.TrimSpace(os.Getenv("BS_PASETO_SECRET_HEX")),
		MaxBodyBytes:         1 << 20,
	}

	if cfg.PasetoV4SecretKeyHex != "" {
		raw, err := hex.DecodeString(cfg.PasetoV4SecretKeyHex)
		if err != nil || len(raw) != 64 {
			return Config{}, errors.New("auth: BS_PASETO_SECRET_HEX must be 64 hex-decoded bytes")
		}
	}

	return cfg, nil
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
