package http

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/cosmosuniversity/studentrecords/internal/auth"
)

// hstsMaxAge is one year, in seconds.
const hstsMaxAge = 31536000

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(cfg.Logger))
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware(hstsMaxAge))
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	if cfg.Sessions != nil {
		router.Use(auth.SessionMiddleware(cfg.Sessions))
	}

	tmpl, err := loadTemplates(cfg.TemplatesPath)
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	health := NewHealthController(cfg.Database, cfg.Version)
	students := NewStudentsController(cfg.Students, cfg.Sessions, cfg.Version)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	// UI routes
	router.GET("/", students.Home)
	router.GET("/Student", students.Index)
	router.GET("/Student/Index", students.Index)
	router.GET("/Student/Details", students.Details)
	router.GET("/Student/Create", students.CreateForm)
	router.POST("/Student/Create", students.Create)
	router.GET("/Student/Edit", students.EditForm)
	router.POST("/Student/Edit", students.Edit)
	router.GET("/Student/Delete", students.DeleteForm)
	router.POST("/Student/Delete", students.Delete)

	return router, nil
}
