// Package api serves the dashboards as JSON for scripts and notebooks.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"minidash/app"
	"minidash/internal/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler exposes DashboardService over HTTP
type Handler struct {
	service *app.DashboardService
	router  *chi.Mux
}

// NewHandler builds the /api router
func NewHandler(service *app.DashboardService) *Handler {
	h := &Handler{service: service, router: chi.NewRouter()}
	h.setupMiddleware()
	h.setupRoutes()
	return h
}

func (h *Handler) setupMiddleware() {
	h.router.Use(middleware.RequestID)
	h.router.Use(middleware.Recoverer)
	h.router.Use(middleware.Timeout(60 * time.Second))
}

func (h *Handler) setupRoutes() {
	h.router.Route("/api/dashboards", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Get("/view", h.handleView)
			r.Get("/export.csv", h.handleExport)
			r.Post("/reload", h.handleReload)
			r.Post("/answers", h.handleAnswers)
		})
	})
	h.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.NotFound("route "+r.URL.Path))
	})
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[API] %v", err)
	}
	code := errors.GetCode(err)
	if !errors.IsAppError(err) {
		code = errors.CodeInternalError
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}
