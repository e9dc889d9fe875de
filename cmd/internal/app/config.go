package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBSchema    string
	DBMaxConns  int32
	DBMinConns  int32

	// CORS policy for the browser client. Entries may end in ":*" to
	// allow any port on a host.
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("BS_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel: EnvString("BS_LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("BS_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("BS_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("BS_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("BS_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("BS_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("BS_DATABASE_URL", ""),
		DBSchema:    EnvString("BS_DB_SCHEMA", "besocial"),
		DBMaxConns:  EnvInt32("BS_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("BS_DB_MIN_CONNS", 0),

		CORSAllowedOrigins:   EnvStringSlice("BS_CORS_ALLOWED_ORIGINS", []string{"http://localhost:*", "http://127.0.0.1:*"}),
		CORSAllowCredentials: EnvBool("BS_CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAgeSeconds:    EnvInt("BS_CORS_MAX_AGE_SECONDS", 600),

		ReadinessRequireDB: EnvBool("BS_READINESS_REQUIRE_DB", false),
	}
}
