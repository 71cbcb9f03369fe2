package auth

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/gin-gonic/gin"

	"github.com/cosmosuniversity/studentrecords/internal/config"
)

// Session data keys
const (
	SessionKeyFlashKind    = "flash_kind"
	SessionKeyFlashMessage = "flash_message"
)

// Flash kinds styled by the layout template.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

// SessionManager wraps scs.SessionManager with application-specific methods.
type SessionManager struct {
	*scs.SessionManager
	cleanup func()
}

// NewSQLiteSessionStore prepares the sessions table and returns an
// sqlite3store on the same database the documents live in.
func NewSQLiteSessionStore(sqlDB *sql.DB) (*sqlite3store.SQLite3Store, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, fmt.Errorf("create sessions table: %w", err)
	}
	return sqlite3store.New(sqlDB), nil
}

// NewSessionManager creates a configured session manager. A nil store
// falls back to an in-memory one.
func NewSessionManager(store scs.Store, cfg config.Session, secure bool) *SessionManager {
	sm := scs.New()

	var cleanup func()
	switch s := store.(type) {
	case nil:
		mem := memstore.New()
		sm.Store = mem
		cleanup = mem.StopCleanup
	case *sqlite3store.SQLite3Store:
		sm.Store = s
		cleanup = s.StopCleanup
	case *memstore.MemStore:
		sm.Store = s
		cleanup = s.StopCleanup
	default:
		sm.Store = s
	}

	sm.Lifetime = cfg.Lifetime
	sm.IdleTimeout = cfg.Lifetime / 2

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = secure
	// Lax so the flash survives the 303 redirect chain after a form post.
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm, cleanup: cleanup}
}

// Close stops the store's background expiry sweep.
func (sm *SessionManager) Close() {
	if sm.cleanup != nil {
		sm.cleanup()
	}
}

// PutFlash stores a message for the next page the browser renders.
func (sm *SessionManager) PutFlash(ctx context.Context, kind, message string) {
	sm.Put(ctx, SessionKeyFlashKind, kind)
	sm.Put(ctx, SessionKeyFlashMessage, message)
}

// PopFlash returns and clears the pending flash, or nil when there is none.
func (sm *SessionManager) PopFlash(ctx context.Context) *Flash {
	message := sm.PopString(ctx, SessionKeyFlashMessage)
	kind := sm.PopString(ctx, SessionKeyFlashKind)
	if message == "" {
		return nil
	}
	if kind == "" {
		kind = FlashSuccess
	}
	return &Flash{Kind: kind, Message: message}
}

// sessionResponseWriter commits the session and writes its cookie just
// before the response headers go out.
type sessionResponseWriter struct {
	gin.ResponseWriter
	sm            *SessionManager
	request       *http.Request
	wroteHeader   bool
	cookieWritten bool
}

func (w *sessionResponseWriter) WriteHeader(code int) {
	w.beforeHeader()
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionResponseWriter) WriteHeaderNow() {
	w.beforeHeader()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *sessionResponseWriter) Write(b []byte) (int, error) {
	w.beforeHeader()
	return w.ResponseWriter.Write(b)
}

func (w *sessionResponseWriter) WriteString(s string) (int, error) {
	w.beforeHeader()
	return w.ResponseWriter.WriteString(s)
}

func (w *sessionResponseWriter) beforeHeader() {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.writeSessionCookie()
	}
}

func (w *sessionResponseWriter) writeSessionCookie() {
	if w.cookieWritten {
		return
	}
	w.cookieWritten = true

	ctx := w.request.Context()
	switch w.sm.Status(ctx) {
	case scs.Modified:
		token, expiry, err := w.sm.Commit(ctx)
		if err != nil {
			return
		}
		w.sm.WriteSessionCookie(ctx, w.ResponseWriter, token, expiry)
	case scs.Destroyed:
		w.sm.WriteSessionCookie(ctx, w.ResponseWriter, "", time.Time{})
	}
}

func (w *sessionResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.ResponseWriter.Hijack()
}

// SessionMiddleware loads the session into the request context. It must
// run before any handler that reads or writes flash messages.
func SessionMiddleware(sm *SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if cookie, err := c.Request.Cookie(sm.Cookie.Name); err == nil {
			token = cookie.Value
		}

		ctx, err := sm.Load(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Request = c.Request.WithContext(ctx)

		srw := &sessionResponseWriter{
			ResponseWriter: c.Writer,
			sm:             sm,
			request:        c.Request,
		}
		c.Writer = srw

		c.Next()

		if !srw.wroteHeader {
			srw.writeSessionCookie()
		}
	}
}
