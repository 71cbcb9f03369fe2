package auth

import (
	"html"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// CSRFTokenHeader is the header name for CSRF token in AJAX requests.
const CSRFTokenHeader = "X-CSRF-Token"

// CSRFFormField is the form field gorilla/csrf reads the token from.
const CSRFFormField = "gorilla.csrf.Token"

const csrfTokenKey = "csrf_token"

// CSRFMiddleware creates a Gin middleware for CSRF protection.
// Safe HTTP methods (GET, HEAD, OPTIONS, TRACE) pass without a token but
// still receive one in the context for rendering. When secure is false the
// server is assumed to be reached over plain HTTP and the TLS-only Origin
// and Referer checks are skipped.
func CSRFMiddleware(secret []byte, secure bool) gin.HandlerFunc {
	csrfProtect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.Path("/"),
		csrf.FieldName(CSRFFormField),
		csrf.RequestHeader(CSRFTokenHeader),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(c *gin.Context) {
		passed := false
		handler := csrfProtect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Set(csrfTokenKey, csrf.Token(r))
			// Session middleware runs after this, on top of the CSRF context.
			c.Request = r
			c.Next()
		}))

		r := c.Request
		if !secure {
			r = csrf.PlaintextHTTPRequest(r)
		}
		handler.ServeHTTP(c.Writer, r)
		if !passed {
			c.Abort()
		}
	}
}

// csrfErrorHandler handles CSRF validation failures.
func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"CSRF token invalid or missing"}`))
		return
	}

	// Form posts go back to the page they came from with an error.
	referer := r.Referer()
	if isLocalReferer(r, referer) {
		separator := "?"
		if strings.Contains(referer, "?") {
			separator = "&"
		}
		http.Redirect(w, r, referer+separator+"error=Session+expired.+Please+try+again.", http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Session Expired</title></head>
<body style="font-family: system-ui; max-width: 400px; margin: 100px auto; text-align: center;">
<h1>Session Expired</h1>
<p>Your session has expired or the form submission was invalid.</p>
<p><a href="/Student">Back to the student list</a></p>
</body>
</html>`))
}

// isLocalReferer reports whether referer points back at this host, so the
// error redirect cannot be used to bounce users elsewhere.
func isLocalReferer(r *http.Request, referer string) bool {
	if referer == "" || r.Host == "" {
		return false
	}
	for _, scheme := range []string{"http://", "https://"} {
		if strings.HasPrefix(referer, scheme+r.Host+"/") {
			return true
		}
	}
	return false
}

// GetCSRFToken retrieves the CSRF token from the Gin context.
func GetCSRFToken(c *gin.Context) string {
	if token, exists := c.Get(csrfTokenKey); exists {
		if t, ok := token.(string); ok {
			return t
		}
	}
	return ""
}

// CSRFTokenField returns an HTML hidden input field with the CSRF token.
// It is empty when CSRF protection is disabled.
func CSRFTokenField(c *gin.Context) template.HTML {
	token := GetCSRFToken(c)
	if token == "" {
		return ""
	}
	return template.HTML(`<input type="hidden" name="` + CSRFFormField + `" value="` + html.EscapeString(token) + `">`)
}
