// Package ui serves the HTML dashboards: a sidebar of filters, KPI cards, Plotly
// charts rendered from server-built figures, a table preview and the bonus
// questions form. The JSON API is mounted under /api.
package ui

import (
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"

	"minidash/app"
	"minidash/internal/telemetry"

	"github.com/gin-gonic/gin"
)

// Server is the gin front end over a DashboardService
type Server struct {
	router    *gin.Engine
	service   *app.DashboardService
	api       http.Handler
	metrics   *telemetry.Metrics
	templates *template.Template
	assets    fs.FS
}

// NewServer creates a server reading templates/ and static/ from assets
func NewServer(assets fs.FS) *Server {
	return &Server{
		router: gin.Default(),
		assets: assets,
	}
}

// Initialize parses templates and registers routes. api and metrics may be nil.
func (s *Server) Initialize(service *app.DashboardService, api http.Handler, metrics *telemetry.Metrics) error {
	s.service = service
	s.api = api
	s.metrics = metrics

	templatesFS, err := fs.Sub(s.assets, "templates")
	if err != nil {
		return fmt.Errorf("failed to create templates filesystem: %w", err)
	}
	files, err := fs.Glob(templatesFS, "*.html")
	if err != nil {
		return fmt.Errorf("failed to glob templates: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no templates found")
	}

	s.templates = template.New("").Funcs(templateFuncs())
	for _, file := range files {
		content, err := fs.ReadFile(templatesFS, file)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", file, err)
		}
		if _, err := s.templates.New(file).Parse(string(content)); err != nil {
			return fmt.Errorf("failed to parse template %s: %w", file, err)
		}
	}
	log.Printf("[TemplateInit] Parsed %d templates: %v", len(files), files)

	s.setupMiddleware()
	s.setupRoutes()
	return nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/healthz", s.handleHealth)

	dashboards := s.router.Group("/dashboards/:id")
	dashboards.GET("", s.handleDashboard)
	dashboards.GET("/export.csv", s.handleExport)
	dashboards.POST("/answers", s.handleAnswers)
	dashboards.POST("/reload", s.handleReload)

	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	if s.api != nil {
		s.router.Any("/api/*path", gin.WrapH(s.api))
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until the listener fails
func (s *Server) Start(addr string) error {
	log.Printf("Starting minidash UI on http://%s", addr)
	return s.router.Run(addr)
}
