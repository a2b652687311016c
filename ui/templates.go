package ui

import (
	"bytes"
	"encoding/json"
	"html/template"
	"log"
	"strings"

	"minidash/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"markdown": renderMarkdown,
		"figure":   figureJSON,
		"add":      func(a, b int) int { return a + b },
		"join":     strings.Join,
		"has": func(list []string, v string) bool {
			for _, item := range list {
				if item == v {
					return true
				}
			}
			return false
		},
	}
}

// renderMarkdown turns dashboard copy into HTML. Raw HTML in the source is dropped.
func renderMarkdown(md string) template.HTML {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return template.HTML(markdown.ToHTML([]byte(md), p, r))
}

// figureJSON embeds a chart figure into a <script type="application/json"> block
func figureJSON(v interface{}) template.JS {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[Template] Failed to encode figure: %v", err)
		return template.JS("null")
	}
	return template.JS(data)
}

// renderTemplate executes a template into a buffer before writing so errors never
// produce half a page
func (s *Server) renderTemplate(c *gin.Context, status int, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		log.Printf("Template error for %s: %v", templateName, err)
		log.Printf("Template data type: %T", data)
		c.AbortWithStatusJSON(500, gin.H{"error": "Template rendering failed", "details": err.Error()})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Writer.WriteHeader(status)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		log.Printf("Error writing template response: %v", err)
	}
}

type errorPage struct {
	Status  int
	Code    string
	Message string
}

// renderError shows a service error with the status its code maps to
func (s *Server) renderError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= 500 {
		log.Printf("[UI] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	s.renderTemplate(c, status, "error.html", errorPage{
		Status:  status,
		Code:    errors.GetCode(err),
		Message: err.Error(),
	})
}
