package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"minidash/app"
	"minidash/domain/dashboard"
	"minidash/internal/errors"
	"minidash/models"

	"github.com/go-chi/chi/v5"
)

// maxAnswerBody bounds POST /answers payloads
const maxAnswerBody = 1 << 20

type dashboardSummary struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Source   string    `json:"source"`
	Rows     int       `json:"rows"`
	Columns  []string  `json:"columns"`
	LoadedAt time.Time `json:"loaded_at"`
}

type dashboardDetail struct {
	dashboardSummary
	Definition dashboard.Definition `json:"definition"`
}

func summarize(l *app.Loaded) dashboardSummary {
	return dashboardSummary{
		ID:       l.Definition.ID,
		Title:    l.Definition.Title,
		Source:   l.Source,
		Rows:     l.Rows(),
		Columns:  l.Table.Columns(),
		LoadedAt: l.LoadedAt,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	loaded := h.service.List()
	out := make([]dashboardSummary, 0, len(loaded))
	for _, l := range loaded {
		out = append(out, summarize(l))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"dashboards": out})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	l, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardDetail{dashboardSummary: summarize(l), Definition: l.Definition})
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	sel := dashboard.ParseSelection(r.URL.Query())
	v, err := h.service.View(r.Context(), chi.URLParam(r, "id"), sel)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sel := dashboard.ParseSelection(r.URL.Query())

	// errors are reported before any CSV bytes are written
	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), id, sel, &buf); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".csv"))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	l, err := h.service.Reload(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(l))
}

type answersRequest struct {
	Answers map[string]string `json:"answers"`
}

type answersResponse struct {
	Saved   int              `json:"saved"`
	Answers []*models.Answer `json:"answers"`
}

func (h *Handler) handleAnswers(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAnswerBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, errors.InvalidInput("invalid JSON body: "+err.Error()))
		return
	}

	saved, err := h.service.SubmitAnswers(r.Context(), chi.URLParam(r, "id"), req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	if saved == nil {
		saved = []*models.Answer{}
	}
	writeJSON(w, http.StatusCreated, answersResponse{Saved: len(saved), Answers: saved})
}
