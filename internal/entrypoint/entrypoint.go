package entrypoint

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cosmosuniversity/studentrecords/internal/auth"
	"github.com/cosmosuniversity/studentrecords/internal/config"
	"github.com/cosmosuniversity/studentrecords/internal/documentdb"
	"github.com/cosmosuniversity/studentrecords/internal/documentdb/memory"
	"github.com/cosmosuniversity/studentrecords/internal/documentdb/sqlite"
	"github.com/cosmosuniversity/studentrecords/internal/documentdb/surreal"
	http_controllers "github.com/cosmosuniversity/studentrecords/internal/http"
	"github.com/cosmosuniversity/studentrecords/internal/logger"
	"github.com/cosmosuniversity/studentrecords/internal/repository"
)

// csrfSecretLength is the key size gorilla/csrf expects.
const csrfSecretLength = 32

// connectTimeout bounds the initial connection to a networked store.
const connectTimeout = 10 * time.Second

// Serve runs the HTTP server until SIGINT or SIGTERM, then drains
// in-flight requests within the configured shutdown timeout.
func Serve(router *gin.Engine, cfg *config.Config, log zerolog.Logger) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// kill (no param) sends SIGTERM, kill -2 sends SIGINT.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Dur("timeout", timeout).Msg("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info().Msg("server exiting")
	return nil
}

// Store is an opened document client plus the session store that goes
// with it.
type Store struct {
	Client documentdb.Client
	// Sessions is nil when sessions should be kept in memory.
	Sessions scs.Store
}

// OpenStore connects the configured document driver.
func OpenStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Store, error) {
	switch cfg.DocumentDB.Driver {
	case config.DriverSQLite, "":
		level := gormlogger.Silent
		if logger.ParseLevel(cfg.Log.Level) == zerolog.DebugLevel {
			level = gormlogger.Info
		}
		db, err := sqlite.Open(cfg.DocumentDB.Path, level)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB().DB()
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		sessions, err := auth.NewSQLiteSessionStore(sqlDB)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Str("driver", string(config.DriverSQLite)).Str("path", cfg.DocumentDB.Path).Msg("document store opened")
		return &Store{Client: db, Sessions: sessions}, nil

	case config.DriverSurreal:
		if cfg.DocumentDB.Endpoint == "" {
			return nil, errors.New("DOCUMENTDB_ENDPOINT is required for the surreal driver")
		}
		db := surreal.New(surreal.Config{
			Endpoint:  cfg.DocumentDB.Endpoint,
			User:      cfg.DocumentDB.User,
			Password:  cfg.DocumentDB.AuthKey,
			Namespace: cfg.DocumentDB.Namespace,
			Database:  config.DatabaseName,
		})
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := db.Connect(connectCtx); err != nil {
			return nil, err
		}
		log.Info().Str("driver", string(config.DriverSurreal)).Str("endpoint", cfg.DocumentDB.Endpoint).Msg("document store opened")
		return &Store{Client: db}, nil

	case config.DriverMemory:
		log.Warn().Str("driver", string(config.DriverMemory)).Msg("document store is in memory; data is lost on exit")
		return &Store{Client: memory.New()}, nil

	default:
		return nil, fmt.Errorf("unknown DOCUMENTDB_DRIVER %q", cfg.DocumentDB.Driver)
	}
}

// CSRFSecret decodes the configured secret (hex, else raw bytes) or
// generates a random one. The bool reports whether it was generated.
func CSRFSecret(configured string) ([]byte, bool, error) {
	if configured != "" {
		if decoded, err := hex.DecodeString(configured); err == nil && len(decoded) >= csrfSecretLength {
			return decoded, false, nil
		}
		if len(configured) < csrfSecretLength {
			return nil, false, fmt.Errorf("AUTH_CSRF_SECRET must be at least %d bytes", csrfSecretLength)
		}
		return []byte(configured), false, nil
	}

	secret := make([]byte, csrfSecretLength)
	if _, err := rand.Read(secret); err != nil {
		return nil, false, fmt.Errorf("generate CSRF secret: %w", err)
	}
	return secret, true, nil
}

// Run wires the application and serves until a shutdown signal arrives.
func Run(cfg *config.Config, version string) error {
	log := logger.Configure(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	log.Info().Str("version", version).Msg("starting student records")

	if cfg.Log.Pretty || logger.ParseLevel(cfg.Log.Level) == zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := OpenStore(context.Background(), cfg, log)
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	defer func() {
		if err := store.Client.Close(); err != nil {
			log.Error().Err(err).Msg("close document store")
		}
	}()

	students := repository.NewStudentRepository(store.Client)

	sessions := auth.NewSessionManager(store.Sessions, cfg.Session, cfg.Auth.SecureCookies)
	defer sessions.Close()

	var csrfSecret []byte
	if cfg.Auth.CSRFEnabled {
		var generated bool
		csrfSecret, generated, err = CSRFSecret(cfg.Auth.CSRFSecret)
		if err != nil {
			return err
		}
		if generated {
			log.Warn().Msg("generated CSRF secret (set AUTH_CSRF_SECRET to persist across restarts)")
		}
	} else {
		log.Warn().Msg("CSRF protection disabled")
	}

	router, err := http_controllers.NewRouter(http_controllers.RouterConfig{
		Students:      students,
		Database:      store.Client,
		Sessions:      sessions,
		CSRFSecret:    csrfSecret,
		SecureCookies: cfg.Auth.SecureCookies,
		TemplatesPath: cfg.UI.TemplatesPath,
		Version:       version,
		Logger:        log,
	})
	if err != nil {
		return err
	}

	return Serve(router, cfg, log)
}
