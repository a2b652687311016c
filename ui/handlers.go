package ui

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"minidash/app"
	"minidash/domain/dashboard"

	"github.com/gin-gonic/gin"
)

// answerFieldPrefix marks question inputs in the answers form: q.<key>
const answerFieldPrefix = "q."

type indexPage struct {
	Dashboards []*app.Loaded
}

type dashboardPage struct {
	Definition dashboard.Definition
	View       *app.View
	Query      string // current selection, carried across form posts
	Saved      int    // answers stored by the last submission, -1 when none was made
}

// URL points at a dashboard route, keeping the current selection
func (p dashboardPage) URL(suffix string) template.URL {
	u := "/dashboards/" + url.PathEscape(p.Definition.ID) + suffix
	if p.Query != "" {
		u += "?" + p.Query
	}
	return template.URL(u)
}

// ChartChecked reports whether kind is the active primary chart
func (p dashboardPage) ChartChecked(kind string) bool {
	return string(p.View.PrimaryKind) == kind
}

func (s *Server) handleIndex(c *gin.Context) {
	s.renderTemplate(c, http.StatusOK, "index.html", indexPage{Dashboards: s.service.List()})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "dashboards": len(s.service.List())})
}

func (s *Server) handleDashboard(c *gin.Context) {
	id := c.Param("id")
	loaded, err := s.service.Get(id)
	if err != nil {
		s.renderError(c, err)
		return
	}
	sel := dashboard.ParseSelection(c.Request.URL.Query())
	view, err := s.service.View(c.Request.Context(), id, sel)
	if err != nil {
		s.renderError(c, err)
		return
	}

	saved := -1
	if raw := c.Query("saved"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			saved = n
		}
	}
	s.renderTemplate(c, http.StatusOK, "dashboard.html", dashboardPage{
		Definition: loaded.Definition,
		View:       view,
		Query:      view.Selection.Query().Encode(),
		Saved:      saved,
	})
}

func (s *Server) handleExport(c *gin.Context) {
	id := c.Param("id")
	sel := dashboard.ParseSelection(c.Request.URL.Query())

	var buf bytes.Buffer
	if err := s.service.Export(c.Request.Context(), id, sel, &buf); err != nil {
		s.renderError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".csv"))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// handleAnswers stores the bonus questions form and redirects back to the same view
func (s *Server) handleAnswers(c *gin.Context) {
	id := c.Param("id")
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "invalid form: %v", err)
		return
	}

	texts := make(map[string]string)
	for field, values := range c.Request.PostForm {
		key := strings.TrimPrefix(field, answerFieldPrefix)
		if key == field || len(values) == 0 {
			continue
		}
		texts[key] = values[0]
	}

	saved, err := s.service.SubmitAnswers(c.Request.Context(), id, texts)
	if err != nil {
		s.renderError(c, err)
		return
	}

	query := dashboard.ParseSelection(c.Request.URL.Query()).Query()
	query.Set("saved", strconv.Itoa(len(saved)))
	c.Redirect(http.StatusSeeOther, dashboardURL(id, query))
}

func (s *Server) handleReload(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.service.Reload(c.Request.Context(), id); err != nil {
		s.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, dashboardURL(id, nil))
}

func dashboardURL(id string, query url.Values) string {
	u := "/dashboards/" + url.PathEscape(id)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
