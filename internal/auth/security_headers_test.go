package auth

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "http://records.local/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rr.Header().Get("Referrer-Policy"))

	csp := rr.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "default-src 'self'")
	assert.Contains(t, csp, "frame-ancestors 'none'")
	assert.Contains(t, csp, "form-action 'self' https://records.local")
	assert.Contains(t, rr.Header().Get("Permissions-Policy"), "camera=()")
}

func TestHSTSHeader(t *testing.T) {
	router := gin.New()
	router.Use(StrictTransportSecurityMiddleware(31536000))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	plain := httptest.NewRecorder()
	router.ServeHTTP(plain, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, plain.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	secure := httptest.NewRecorder()
	router.ServeHTTP(secure, req)
	assert.Equal(t, "max-age=31536000; includeSubDomains", secure.Header().Get("Strict-Transport-Security"))

	proxied := httptest.NewRequest(http.MethodGet, "/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "https")
	viaProxy := httptest.NewRecorder()
	router.ServeHTTP(viaProxy, proxied)
	assert.NotEmpty(t, viaProxy.Header().Get("Strict-Transport-Security"))
}
