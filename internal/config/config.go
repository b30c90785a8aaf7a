package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Credential is a login the credential provider accepts. PasswordHash is bcrypt.
type Credential struct {
	Username     string `yaml:"username"`
	Role         string `yaml:"role"`
	PasswordHash string `yaml:"password_hash"`
}

type Config struct {
	Mode      Mode
	HTTPAddr  string
	PublicURL string
	SiteID    string
	LogMode   string // prod|dev

	DBDriver string
	DBDSN    string

	BlobDriver   string // fs
	BlobBasePath string

	EnableLocalAuth bool
	EnableGuestAuth bool
	AuthHMACSecret  string
	TokenTTL        time.Duration

	AdminUser     string
	AdminPassHash string // bcrypt
	Credentials   []Credential

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	SessionDriver string // memory|redis
	SessionTTL    time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	GradingCaseSensitiveMatching bool
	GradingCaseSensitiveMistake  bool

	// ConfigFile is an optional YAML overlay, see Load.
	ConfigFile string
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	logMode := "dev"
	if mode == ModeOnline {
		logMode = "prod"
	}
	c := Config{
		Mode:               mode,
		HTTPAddr:           addr,
		PublicURL:          os.Getenv("PUBLIC_URL"),
		SiteID:             envOr("SITE_ID", "local"),
		LogMode:            envOr("LOG_MODE", logMode),
		DBDriver:           envOr("DB_DRIVER", "sqlite"),
		DBDSN:              envOr("DB_DSN", ""),
		BlobDriver:         envOr("BLOB_DRIVER", "fs"),
		BlobBasePath:       envOr("BLOB_BASE_PATH", "./data"),
		EnableLocalAuth:    envBool("ENABLE_LOCAL_AUTH", true),
		EnableGuestAuth:    envBool("ENABLE_GUEST_AUTH", mode == ModeOffline),
		AuthHMACSecret:     envOr("AUTH_HMAC_SECRET", "dev-secret-change-me"),
		TokenTTL:           envDuration("TOKEN_TTL", 2*time.Hour),
		AdminUser:          envOr("ADMIN_USER", "admin"),
		AdminPassHash:      os.Getenv("ADMIN_PASS_HASH"),
		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://school.example.org"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),
		SessionDriver:      envOr("SESSION_DRIVER", "memory"),
		SessionTTL:         envDuration("SESSION_TTL", 24*time.Hour),
		RedisAddr:          envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            envInt("REDIS_DB", 0),

		GradingCaseSensitiveMatching: envBool("GRADING_CASE_SENSITIVE_MATCHING", false),
		GradingCaseSensitiveMistake:  envBool("GRADING_CASE_SENSITIVE_MISTAKE", false),

		ConfigFile: os.Getenv("CONFIG_FILE"),
	}
	if c.AdminPassHash != "" {
		c.Credentials = append(c.Credentials, Credential{Username: c.AdminUser, Role: "admin", PasswordHash: c.AdminPassHash})
	}
	return c
}

// CORSOrigins returns the allow-list for the current mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return n
}
func envDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
