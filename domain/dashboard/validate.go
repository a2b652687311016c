package dashboard

import (
	"fmt"
	"strings"

	"minidash/internal/errors"
)

// Schema is the column information a loaded table exposes
type Schema interface {
	HasColumn(name string) bool
	IsNumeric(name string) bool
}

// Validate checks that a definition is well formed on its own
func (d Definition) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(d.ID) == "" {
		add("id is required")
	}
	if strings.TrimSpace(d.Source) == "" {
		add("source is required")
	}

	for i, f := range d.Filters {
		if f.Column == "" {
			add("filters[%d]: column is required", i)
		}
		if f.Kind != FilterMultiSelect && f.Kind != FilterSelect {
			add("filters[%d]: unknown kind %q", i, f.Kind)
		}
	}

	for i, k := range d.KPIs {
		switch k.Op {
		case OpCount:
		case OpSum, OpMean, OpMax, OpMin, OpMedian, OpNUnique, OpMode:
			if k.Column == "" {
				add("kpis[%d]: op %s needs a column", i, k.Op)
			}
		default:
			add("kpis[%d]: unknown op %q", i, k.Op)
		}
	}

	checkChart := func(name string, c ChartSpec) {
		switch c.Kind {
		case ChartBar, ChartLine, ChartBox:
		default:
			add("charts.%s: unknown kind %q", name, c.Kind)
		}
		if c.X == "" {
			add("charts.%s: x is required", name)
		}
		switch c.Aggregation() {
		case AggNone, AggSum, AggMean:
			if c.Y == "" {
				add("charts.%s: y is required unless agg is count", name)
			}
		case AggCount:
		default:
			add("charts.%s: unknown agg %q", name, c.Agg)
		}
		if c.Kind == ChartBox && c.Y == "" {
			add("charts.%s: box charts need y", name)
		}
		if c.Kind == ChartBox && c.Aggregation() != AggNone {
			add("charts.%s: box charts summarise raw rows, agg must be none", name)
		}
	}
	checkChart("primary", d.Charts.Primary)
	checkChart("secondary", d.Charts.Secondary)
	if d.Charts.Toggle && d.Charts.Primary.Kind == ChartBox {
		add("charts.toggle applies to bar/line primary charts only")
	}

	seen := make(map[string]bool)
	for i, q := range d.Questions {
		if q.Key == "" {
			add("questions[%d]: key is required", i)
		}
		if seen[q.Key] {
			add("questions[%d]: duplicate key %q", i, q.Key)
		}
		seen[q.Key] = true
		if q.Kind != QuestionText && q.Kind != QuestionTextArea {
			add("questions[%d]: unknown kind %q", i, q.Kind)
		}
	}

	if len(problems) > 0 {
		return errors.Newf(errors.CodeInvalidDefinition, "dashboard %q: %s", d.ID, strings.Join(problems, "; "))
	}
	return nil
}

// CheckColumns verifies every referenced column exists in the loaded schema and that
// numeric operations point at numeric columns
func (d Definition) CheckColumns(schema Schema) error {
	var problems []string
	need := func(where, column string, numeric bool) {
		if column == "" {
			return
		}
		if !schema.HasColumn(column) {
			problems = append(problems, fmt.Sprintf("%s: column %q not found", where, column))
			return
		}
		if numeric && !schema.IsNumeric(column) {
			problems = append(problems, fmt.Sprintf("%s: column %q is not numeric", where, column))
		}
	}

	for i, f := range d.Filters {
		need(fmt.Sprintf("filters[%d]", i), f.Column, false)
	}
	for i, k := range d.KPIs {
		need(fmt.Sprintf("kpis[%d]", i), k.Column, k.Op.Numeric())
	}
	charts := []struct {
		name string
		spec ChartSpec
	}{{"primary", d.Charts.Primary}, {"secondary", d.Charts.Secondary}}
	for _, chart := range charts {
		name, c := chart.name, chart.spec
		need("charts."+name+".x", c.X, false)
		need("charts."+name+".color", c.Color, false)
		if c.Aggregation() != AggCount {
			need("charts."+name+".y", c.Y, true)
		}
	}
	for i, col := range d.Table.Columns {
		need(fmt.Sprintf("table.columns[%d]", i), col, false)
	}

	if len(problems) > 0 {
		return errors.Newf(errors.CodeInvalidDefinition, "dashboard %q: %s", d.ID, strings.Join(problems, "; "))
	}
	return nil
}

// PrimaryKind resolves the chart kind shown in the primary panel for a selection
func (d Definition) PrimaryKind(requested ChartKind) ChartKind {
	if !d.Charts.Toggle {
		return d.Charts.Primary.Kind
	}
	if requested == ChartBar || requested == ChartLine {
		return requested
	}
	return d.Charts.Primary.Kind
}

// Question looks up a question by key
func (d Definition) Question(key string) (Question, bool) {
	for _, q := range d.Questions {
		if q.Key == key {
			return q, true
		}
	}
	return Question{}, false
}
