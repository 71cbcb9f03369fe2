package http

import (
	"github.com/rs/zerolog"

	"github.com/cosmosuniversity/studentrecords/internal/auth"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Students StudentStore
	Database Pinger

	// Sessions carry flash messages; nil disables them.
	Sessions *auth.SessionManager

	// CSRF protection; an empty secret disables it.
	CSRFSecret    []byte
	SecureCookies bool

	// UI paths; empty uses the embedded templates.
	TemplatesPath string

	// Application info
	Version string

	Logger zerolog.Logger
}
