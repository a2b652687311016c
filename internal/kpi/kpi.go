// Package kpi computes the summary cards shown above a dashboard's charts.
package kpi

import (
	"fmt"
	"math"
	"strings"

	"minidash/domain/dashboard"
	"minidash/internal/errors"
	"minidash/internal/table"

	"github.com/dustin/go-humanize"
	"github.com/montanaflynn/stats"
)

// Value is one computed KPI
type Value struct {
	Label    string          `json:"label"`
	Op       dashboard.KPIOp `json:"op"`
	Column   string          `json:"column,omitempty"`
	Number   float64         `json:"number"`
	Text     string          `json:"text,omitempty"` // mode results
	Display  string          `json:"display"`
	Fallback bool            `json:"fallback"` // true when the view was empty
}

// NoValue is displayed for text KPIs over an empty view
const NoValue = "—"

// Compute evaluates every spec against the filtered view
func Compute(view *table.Table, specs []dashboard.KPISpec) ([]Value, error) {
	values := make([]Value, 0, len(specs))
	for _, spec := range specs {
		v, err := computeOne(view, spec)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to compute KPI %q", spec.Label)
		}
		values = append(values, v)
	}
	return values, nil
}

func computeOne(view *table.Table, spec dashboard.KPISpec) (Value, error) {
	v := Value{Label: spec.Label, Op: spec.Op, Column: spec.Column}

	switch spec.Op {
	case dashboard.OpCount:
		v.Number = float64(view.Len())

	case dashboard.OpNUnique:
		values, err := view.Strings(spec.Column)
		if err != nil {
			return v, err
		}
		v.Number = float64(countDistinct(values))

	case dashboard.OpMode:
		values, err := view.Strings(spec.Column)
		if err != nil {
			return v, err
		}
		mode, ok := Mode(values, view.IsNumeric(spec.Column))
		if !ok {
			v.Text = NoValue
			v.Fallback = true
		} else {
			v.Text = mode
		}
		v.Display = v.Text
		return v, nil

	case dashboard.OpSum, dashboard.OpMean, dashboard.OpMax, dashboard.OpMin, dashboard.OpMedian:
		data, err := view.Floats(spec.Column)
		if err != nil {
			return v, err
		}
		if len(data) == 0 {
			v.Number = spec.Fallback
			v.Fallback = true
			break
		}
		n, err := aggregate(spec.Op, data)
		if err != nil {
			return v, err
		}
		v.Number = n

	default:
		return v, errors.Newf(errors.CodeInvalidInput, "unknown KPI op %q", spec.Op)
	}

	v.Display = Format(v.Number, spec.Format)
	return v, nil
}

func aggregate(op dashboard.KPIOp, data stats.Float64Data) (float64, error) {
	switch op {
	case dashboard.OpSum:
		return stats.Sum(data)
	case dashboard.OpMean:
		return stats.Mean(data)
	case dashboard.OpMax:
		return stats.Max(data)
	case dashboard.OpMin:
		return stats.Min(data)
	case dashboard.OpMedian:
		return stats.Median(data)
	}
	return 0, errors.Newf(errors.CodeInvalidInput, "op %q is not a numeric aggregate", op)
}

// Mode returns the most frequent non-empty value. Ties go to the smallest value in
// natural order (numeric for numeric columns).
func Mode(values []string, numeric bool) (string, bool) {
	counts := make(map[string]int)
	for _, v := range values {
		if v == "" {
			continue
		}
		counts[v]++
	}
	if len(counts) == 0 {
		return "", false
	}

	best := 0
	var candidates []string
	for v, c := range counts {
		switch {
		case c > best:
			best = c
			candidates = []string{v}
		case c == best:
			candidates = append(candidates, v)
		}
	}
	table.SortValues(candidates, numeric)
	return candidates[0], true
}

// Format renders a number with a printf verb string, or "comma" for thousands
// separators on the rounded value. An empty format uses %g.
func Format(n float64, format string) string {
	switch {
	case format == "comma":
		return humanize.Comma(int64(math.Round(n)))
	case format == "":
		return fmt.Sprintf("%g", n)
	case strings.Contains(format, "%"):
		return fmt.Sprintf(format, n)
	default:
		return fmt.Sprintf("%g %s", n, format)
	}
}

func countDistinct(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		seen[v] = struct{}{}
	}
	return len(seen)
}
