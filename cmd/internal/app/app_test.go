package app

import (
	"testing"
	"time"
)

func TestNonZeroDefaults(t *testing.T) {
	t.Parallel()

	if got := nonZeroDuration(0, 5*time.Second); got != 5*time.Second {
		t.Fatalf("nonZeroDuration(0)=%v want=5s", got)
	}
	if got := nonZeroDuration(2*time.Second, 5*time.Second); got != 2*time.Second {
		t.Fatalf("nonZeroDuration(2s)=%v want=2s", got)
	}
	if got := nonZeroInt(0, 1<<20); got != 1<<20 {
		t.Fatalf("nonZeroInt(0)=%d want=%d", got, 1<<20)
	}
	if got := nonZeroInt(4096, 1<<20); got != 4096 {
		t.Fatalf("nonZeroInt(4096)=%d want=4096", got)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.HTTPAddr != "0.0.0.0:8080" {
		t.Fatalf("HTTPAddr=%q", cfg.HTTPAddr)
	}
	if cfg.DBSchema != "besocial" {
		t.Fatalf("DBSchema=%q", cfg.DBSchema)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL=%q want empty", cfg.DatabaseURL)
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		t.Fatalf("CORSAllowedOrigins empty")
	}
}

func TestEnvStringSlice(t *testing.T) {
	t.Setenv("BS_TEST_CSV", " a ,b,, c ")

	got := EnvStringSlice("BS_TEST_CSV", []string{"def"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}

	if got := EnvStringSlice("BS_TEST_CSV_MISSING", []string{"def"}); len(got) != 1 || got[0] != "def" {
		t.Fatalf("default not applied: %v", got)
	}
}

func TestNewInMemoryApp(t *testing.T) {
	t.Setenv("BS_PASETO_SECRET_HEX", "")

	cfg := LoadConfig()
	cfg.DatabaseURL = ""

	a, err := New(cfg, NewLogger("error"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.st == nil || a.st.pool != nil {
		t.Fatalf("expected in-memory stores without a pool")
	}
	a.st.close()
}
