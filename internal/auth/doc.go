// Package auth provides the browser-facing protections for the student
// pages: CSRF tokens on every form, security headers, and cookie sessions
// used to carry flash messages across redirects.
//
// # Configuration
//
//	AUTH_CSRF_ENABLED=true     # Default, reject unsafe requests without a token
//	AUTH_CSRF_SECRET=<hex-32>  # Auto-generated if empty (tokens reset on restart)
//	AUTH_SECURE_COOKIES=true   # HTTPS-only cookies
//	SESSION_LIFETIME=24h       # Session duration
//
// # Usage
//
// Wire the middlewares in the router:
//
//	router.Use(auth.SecurityHeadersMiddleware())
//	router.Use(auth.CSRFMiddleware(secret, cfg.SecureCookies))
//	router.Use(auth.SessionMiddleware(sessions))
//
// Render the token in a form:
//
//	<form method="post">{{ .CSRFField }}</form>
package auth
