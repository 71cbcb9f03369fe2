package config

import (
	"time"

	"github.com/spf13/viper"
)

type Driver string

const (
	DriverSQLite  Driver = "sqlite"  // gorm + sqlite file (default)
	DriverSurreal Driver = "surreal" // SurrealDB over websocket
	DriverMemory  Driver = "memory"  // in-process, data lost on exit
)

type (
	Config struct {
		HTTP
		Global
		DocumentDB
		Log
		UI
		Auth
		Session
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	DocumentDB struct {
		Driver    Driver
		Path      string // sqlite file
		Endpoint  string // surreal endpoint, e.g. ws://localhost:8000
		User      string
		AuthKey   string
		Namespace string
	}
	Log struct {
		Level  string
		Pretty bool
	}
	UI struct {
		TemplatesPath string // empty means use embedded templates
	}
	Auth struct {
		CSRFEnabled   bool
		CSRFSecret    string
		SecureCookies bool // Set to false for local dev without HTTPS
	}
	Session struct {
		Lifetime time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	v.SetDefault("documentdb_driver", string(DriverSQLite))
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("documentdb_endpoint", "")
	v.SetDefault("documentdb_user", "root")
	v.SetDefault("documentdb_auth_key", "")
	v.SetDefault("documentdb_namespace", DefaultNamespace)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)

	v.SetDefault("templates_path", "")

	v.SetDefault("auth_csrf_enabled", true)
	v.SetDefault("auth_csrf_secret", "") // Auto-generated if empty
	v.SetDefault("auth_secure_cookies", false)

	v.SetDefault("session_lifetime", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		DocumentDB: DocumentDB{
			Driver:    Driver(v.GetString("DOCUMENTDB_DRIVER")),
			Path:      v.GetString("DATABASE_PATH"),
			Endpoint:  v.GetString("DOCUMENTDB_ENDPOINT"),
			User:      v.GetString("DOCUMENTDB_USER"),
			AuthKey:   v.GetString("DOCUMENTDB_AUTH_KEY"),
			Namespace: v.GetString("DOCUMENTDB_NAMESPACE"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Pretty: v.GetBool("LOG_PRETTY"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
		},
		Auth: Auth{
			CSRFEnabled:   v.GetBool("AUTH_CSRF_ENABLED"),
			CSRFSecret:    v.GetString("AUTH_CSRF_SECRET"),
			SecureCookies: v.GetBool("AUTH_SECURE_COOKIES"),
		},
		Session: Session{
			Lifetime: v.GetDuration("SESSION_LIFETIME"),
		},
	}
}
