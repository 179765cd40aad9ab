package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
type Config struct {
	App     AppConfig
	DB      DBConfig
	Session SessionConfig
	View    ViewConfig
	Log     LogConfig

	// settings decoded from the YAML settings file, if any
	settings map[string]any
}

type AppConfig struct {
	Name     string
	Env      string // local | production | testing
	Debug    bool
	URL      string
	Port     string
	Key      string
	Settings string // path of the YAML settings file
}

type DBConfig struct {
	Driver   string
	Host     string
	Port     string
	Database string
	Path     string // directory holding sqlite databases
	Username string
	Password string
}

type SessionConfig struct {
	Cookie   string
	Lifetime time.Duration
	Secure   bool
}

type ViewConfig struct {
	Dir string
	Ext string
}

type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // json | console
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	appEnv := env("APP_ENV", "local")
	logFormat := "console"
	if appEnv == "production" {
		logFormat = "json"
	}

	return &Config{
		App: AppConfig{
			Name:     env("APP_NAME", "Zelasli"),
			Env:      appEnv,
			Debug:    envBool("APP_DEBUG", true),
			URL:      env("APP_URL", "http://localhost"),
			Port:     env("APP_PORT", "8000"),
			Key:      env("APP_KEY", ""),
			Settings: env("APP_SETTINGS", ""),
		},
		DB: DBConfig{
			Driver:   env("DB_DRIVER", "sqlite"),
			Host:     env("DB_HOST", "127.0.0.1"),
			Port:     env("DB_PORT", "3306"),
			Database: env("DB_DATABASE", "zelasli.db"),
			Path:     env("DB_PATH", "var/datastore/database"),
			Username: env("DB_USERNAME", "root"),
			Password: env("DB_PASSWORD", ""),
		},
		Session: SessionConfig{
			Cookie:   env("SESSION_COOKIE", "zelasli_session"),
			Lifetime: time.Duration(GetInt("SESSION_LIFETIME", 120)) * time.Minute,
			Secure:   envBool("SESSION_SECURE_COOKIE", false),
		},
		View: ViewConfig{
			Dir: env("VIEW_DIR", "./views"),
			Ext: env("VIEW_EXT", ".html"),
		},
		Log: LogConfig{
			Level:  env("LOG_LEVEL", "info"),
			Format: env("LOG_FORMAT", logFormat),
		},
	}
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
