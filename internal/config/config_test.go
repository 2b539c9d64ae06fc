package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, env := range envKeys {
		t.Setenv(env, "")
		t.Setenv("EVERYTASK_"+env, "")
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseDriver != "sqlite" || cfg.DatabaseURL != "everytask.db" {
		t.Fatalf("database = %s %s", cfg.DatabaseDriver, cfg.DatabaseURL)
	}
	if cfg.HTTPAddr != ":8080" || cfg.TokenTTL != 24*time.Hour || cfg.ReportInterval != 5*time.Hour {
		t.Fatalf("cfg = %+v", cfg)
	}
	if err := cfg.RequireTelegram(); err == nil {
		t.Fatal("expected missing token error")
	}
	if err := cfg.RequireJWT(); err == nil {
		t.Fatal("expected missing secret error")
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	for _, env := range envKeys {
		t.Setenv(env, "")
		t.Setenv("EVERYTASK_"+env, "")
	}
	path := filepath.Join(t.TempDir(), "everytask.yaml")
	body := []byte(`
database:
  driver: postgres
  url: postgres://file
http:
  cors_origins: "http://a.test, http://b.test"
report:
  interval_hours: "2"
timezone: UTC
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("TELEGRAM_TOKEN", "  token  ")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseDriver != "postgres" || cfg.DatabaseURL != "postgres://env" {
		t.Fatalf("database = %s %s", cfg.DatabaseDriver, cfg.DatabaseURL)
	}
	if cfg.TelegramToken != "token" {
		t.Fatalf("token = %q", cfg.TelegramToken)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("origins = %v", cfg.CORSOrigins)
	}
	if cfg.ReportInterval != 2*time.Hour || cfg.Location != time.UTC {
		t.Fatalf("interval=%v loc=%v", cfg.ReportInterval, cfg.Location)
	}
}

func TestParseInterval(t *testing.T) {
	cases := map[string]time.Duration{"": 0, "3": 3 * time.Hour, "0.5": 30 * time.Minute, "-1": 0, "x": 0}
	for raw, want := range cases {
		if got := parseInterval(raw); got != want {
			t.Errorf("parseInterval(%q) = %v, want %v", raw, got, want)
		}
	}
}
