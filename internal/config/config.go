package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const devJWTSecret = "poemhub-dev-secret"

type Config struct {
	AppEnv   string
	LogLevel string

	API        APIConfig
	Session    SessionConfig
	Search     SearchConfig
	Cloudinary CloudinaryConfig
	Stub       StubConfig
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	Backend     string
	Path        string
	RedisURL    string
	RedisPrefix string
}

type SearchConfig struct {
	MeiliSearchHost string
	MeiliMasterKey  string
	PoemIndex       string
}

type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadFolder string
}

// Enabled reports whether uploads can be made.
func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

type StubConfig struct {
	Port           string
	AllowedOrigins string
	JWTSecret      string
	JWTTTL         time.Duration
	DatabaseURL    string
	RedisURL       string

	CommentCooldown time.Duration
}

// flagKeys maps command line flags to the environment keys they override.
var flagKeys = map[string]string{
	"api-url":         "POEMHUB_API_URL",
	"timeout":         "POEMHUB_TIMEOUT",
	"log-level":       "LOG_LEVEL",
	"session-backend": "SESSION_BACKEND",
	"session-path":    "SESSION_PATH",
	"port":            "STUB_PORT",
	"database-url":    "STUB_DATABASE_URL",
	"redis-url":       "STUB_REDIS_URL",
}

// ClientFlags registers the flags understood by the terminal client.
func ClientFlags(fs *pflag.FlagSet) {
	fs.String("api-url", "", "base URL of the poem API")
	fs.Duration("timeout", 0, "request timeout")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("session-backend", "", "sqlite, memory or redis")
	fs.String("session-path", "", "sqlite session database")
}

// StubFlags registers the flags understood by the backend stub.
func StubFlags(fs *pflag.FlagSet) {
	fs.String("port", "", "listen port")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("database-url", "", "postgres DSN; in-memory storage when empty")
	fs.String("redis-url", "", "redis URL for like sets; in-memory when empty")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("POEMHUB_API_URL", "http://localhost:8080")
	v.SetDefault("POEMHUB_TIMEOUT", "15s")

	v.SetDefault("SESSION_BACKEND", "sqlite")
	v.SetDefault("SESSION_PATH", defaultSessionPath())
	v.SetDefault("SESSION_REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("SESSION_REDIS_PREFIX", "poemhub:session:")

	v.SetDefault("MEILISEARCH_HOST", "")
	v.SetDefault("MEILI_MASTER_KEY", "")
	v.SetDefault("MEILI_POEM_INDEX", "poems")

	v.SetDefault("CLOUDINARY_CLOUD_NAME", "")
	v.SetDefault("CLOUDINARY_API_KEY", "")
	v.SetDefault("CLOUDINARY_API_SECRET", "")
	v.SetDefault("CLOUDINARY_UPLOAD_FOLDER", "poemhub")

	v.SetDefault("STUB_PORT", "8080")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("JWT_SECRET", devJWTSecret)
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("STUB_DATABASE_URL", "")
	v.SetDefault("STUB_REDIS_URL", "")
	v.SetDefault("COMMENT_COOLDOWN", "5s")
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".poemhub-session.db"
	}
	return filepath.Join(dir, "poemhub", "session.db")
}

// Load reads an optional .env file, then the environment. Flags in fs that
// were set on the command line win over both. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	// Don't fail if .env doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	cfg := &Config{
		AppEnv:   v.GetString("APP_ENV"),
		LogLevel: v.GetString("LOG_LEVEL"),
		API: APIConfig{
			BaseURL: v.GetString("POEMHUB_API_URL"),
			Timeout: v.GetDuration("POEMHUB_TIMEOUT"),
		},
		Session: SessionConfig{
			Backend:     v.GetString("SESSION_BACKEND"),
			Path:        v.GetString("SESSION_PATH"),
			RedisURL:    v.GetString("SESSION_REDIS_URL"),
			RedisPrefix: v.GetString("SESSION_REDIS_PREFIX"),
		},
		Search: SearchConfig{
			MeiliSearchHost: v.GetString("MEILISEARCH_HOST"),
			MeiliMasterKey:  v.GetString("MEILI_MASTER_KEY"),
			PoemIndex:       v.GetString("MEILI_POEM_INDEX"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName:    v.GetString("CLOUDINARY_CLOUD_NAME"),
			APIKey:       v.GetString("CLOUDINARY_API_KEY"),
			APISecret:    v.GetString("CLOUDINARY_API_SECRET"),
			UploadFolder: v.GetString("CLOUDINARY_UPLOAD_FOLDER"),
		},
		Stub: StubConfig{
			Port:           v.GetString("STUB_PORT"),
			AllowedOrigins: v.GetString("ALLOWED_ORIGINS"),
			JWTSecret:      v.GetString("JWT_SECRET"),
			JWTTTL:         v.GetDuration("JWT_TTL"),
			DatabaseURL:    v.GetString("STUB_DATABASE_URL"),
			RedisURL:       v.GetString("STUB_REDIS_URL"),

			CommentCooldown: v.GetDuration("COMMENT_COOLDOWN"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("POEMHUB_API_URL must not be empty")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("invalid POEMHUB_TIMEOUT: must be a positive duration")
	}
	if c.Stub.JWTTTL <= 0 {
		return fmt.Errorf("invalid JWT_TTL: must be a positive duration")
	}
	if c.Stub.CommentCooldown < 0 {
		return fmt.Errorf("invalid COMMENT_COOLDOWN: must not be negative")
	}
	if c.AppEnv == "production" && (c.Stub.JWTSecret == "" || c.Stub.JWTSecret == devJWTSecret) {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}
