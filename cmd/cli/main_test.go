package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"minidash/adapters/memory"
	"minidash/adapters/tabular"
	"minidash/app"
	"minidash/domain/dashboard"
	"minidash/internal/catalog"
	"minidash/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilters(t *testing.T) {
	sel, err := parseFilters([]string{"Department=Engineering", "Department=Finance", " Semester =A"}, "LINE")
	require.NoError(t, err)
	assert.Equal(t, []string{"Engineering", "Finance"}, sel.Selected("Department"))
	assert.Equal(t, []string{"A"}, sel.Selected("Semester"))
	assert.Equal(t, dashboard.ChartLine, sel.Chart)

	_, err = parseFilters([]string{"Department"}, "")
	assert.Error(t, err)
	_, err = parseFilters([]string{"=x"}, "")
	assert.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(fmt.Errorf("summary: %w", errors.NotFound("dashboard"))))
	assert.Equal(t, 2, exitCode(errors.InvalidInput("bad chart")))
	assert.Equal(t, 1, exitCode(errors.SourceUnavailable("http://x", io.EOF)))
	assert.Equal(t, 1, exitCode(io.EOF))
}

func TestPrintSummary(t *testing.T) {
	defs, err := catalog.Default()
	require.NoError(t, err)
	svc := app.NewDashboardService(tabular.NewLoader(), memory.NewAnswerRepository(), nil, app.ServiceConfig{})
	require.NoError(t, svc.LoadAll(context.Background(), defs[:1]))

	sel, err := parseFilters([]string{"Department=Engineering"}, "")
	require.NoError(t, err)
	view, err := svc.View(context.Background(), "enrollments", sel)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printSummary(&buf, view, 2))
	out := buf.String()
	assert.Contains(t, out, "3 of 9 rows")
	assert.Contains(t, out, "4.27 / 5")
	assert.Contains(t, out, "Primary chart (bar)")
	assert.Contains(t, out, "Engineering: median [4.3]")
	assert.Contains(t, out, "Intro Robotics")
	assert.Contains(t, out, "ML for Sensors")

	buf.Reset()
	require.NoError(t, printList(&buf, svc.List()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "enrollments"))
}
