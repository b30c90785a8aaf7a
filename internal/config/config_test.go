package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "SESSION_DRIVER", "ADMIN_PASS_HASH", "CONFIG_FILE", "REDIS_DB", "SESSION_TTL", "CORS_ORIGINS_OFFLINE"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Mode != ModeOffline || c.HTTPAddr != ":8080" || c.SessionDriver != "memory" {
		t.Fatalf("defaults: %+v", c)
	}
	if c.SessionTTL != 24*time.Hour || c.RedisDB != 0 {
		t.Fatalf("session defaults: %v %d", c.SessionTTL, c.RedisDB)
	}
	if len(c.Credentials) != 0 {
		t.Fatalf("unexpected credentials: %+v", c.Credentials)
	}
	if got := c.CORSOrigins(); len(got) != 2 {
		t.Fatalf("offline origins: %v", got)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("LOG_MODE", "")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("GRADING_CASE_SENSITIVE_MISTAKE", "yes")
	t.Setenv("ADMIN_USER", "root")
	t.Setenv("ADMIN_PASS_HASH", "$2a$10$abc")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , ,https://b.example")
	c := FromEnv()
	if c.LogMode != "prod" || c.RedisDB != 3 || c.SessionTTL != 90*time.Minute || !c.GradingCaseSensitiveMistake {
		t.Fatalf("overrides: %+v", c)
	}
	if len(c.Credentials) != 1 || c.Credentials[0].Username != "root" || c.Credentials[0].Role != "admin" {
		t.Fatalf("admin credential: %+v", c.Credentials)
	}
	if got := c.CORSOrigins(); len(got) != 2 || got[1] != "https://b.example" {
		t.Fatalf("online origins: %v", got)
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "core.yaml")
	doc := `
grading:
  case_sensitive_matching: true
sessions:
  driver: redis
  ttl: 2h
credentials:
  - username: ms.rivera
    role: teacher
    password_hash: "$2a$10$xyz"
  - username: sam
    password_hash: "$2a$10$def"
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ADMIN_PASS_HASH", "")
	t.Setenv("CONFIG_FILE", path)
	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !c.GradingCaseSensitiveMatching || c.GradingCaseSensitiveMistake {
		t.Fatalf("grading: %+v", c)
	}
	if c.SessionDriver != "redis" || c.SessionTTL != 2*time.Hour {
		t.Fatalf("sessions: %s %v", c.SessionDriver, c.SessionTTL)
	}
	if len(c.Credentials) != 2 || c.Credentials[1].Role != "student" {
		t.Fatalf("credentials: %+v", c.Credentials)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	cases := map[string]string{
		"syntax":     "grading: [",
		"ttl":        "sessions:\n  ttl: soon\n",
		"credential": "credentials:\n  - username: x\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			var c Config
			if err := c.applyYAML([]byte(doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("missing file accepted")
	}
}
