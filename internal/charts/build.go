package charts

import (
	"fmt"
	"math"
	"strconv"

	"minidash/domain/dashboard"
	"minidash/internal/errors"
	"minidash/internal/table"

	"gonum.org/v1/gonum/stat"
)

// Build renders spec over the view. kind overrides spec.Kind (the bar/line toggle);
// pass "" to keep the configured kind.
func Build(spec dashboard.ChartSpec, kind dashboard.ChartKind, view *table.Table) (Figure, error) {
	if kind == "" {
		kind = spec.Kind
	}

	fig := Figure{
		Data: []Trace{},
		Layout: Layout{
			Title: Title{Text: spec.Title},
			XAxis: Axis{Title: Title{Text: spec.X}, TickAngle: spec.TickAngle, Type: "category"},
			YAxis: Axis{Title: Title{Text: yTitle(spec)}},
		},
	}
	if spec.Color != "" {
		fig.Layout.Legend = &Legend{Title: Title{Text: spec.Color}}
	}

	if view.Empty() {
		fig.Layout.Annotations = []Annotation{{
			Text: EmptyMessage, XRef: "paper", YRef: "paper", X: 0.5, Y: 0.5,
		}}
		return fig, nil
	}

	groups, err := groupRows(spec, view)
	if err != nil {
		return Figure{}, err
	}

	switch kind {
	case dashboard.ChartBar, dashboard.ChartLine:
		for _, g := range groups {
			fig.Data = append(fig.Data, seriesTrace(spec, kind, g))
		}
		if kind == dashboard.ChartBar {
			fig.Layout.BarMode = "relative"
		}
	case dashboard.ChartBox:
		for _, g := range groups {
			fig.Data = append(fig.Data, boxTrace(g))
		}
	default:
		return Figure{}, errors.InvalidInput(fmt.Sprintf("unknown chart kind %q", kind))
	}

	return fig, nil
}

func yTitle(spec dashboard.ChartSpec) string {
	switch spec.Aggregation() {
	case dashboard.AggCount:
		return "count"
	case dashboard.AggSum:
		return "sum of " + spec.Y
	case dashboard.AggMean:
		return "mean of " + spec.Y
	}
	return spec.Y
}

// colorGroup holds the rows of one colour value, bucketed by x category
type colorGroup struct {
	name    string
	xs      []string             // categories in first-appearance order
	buckets map[string][]float64 // x -> y values (one 1 per row for counts)
	rows    []point              // unaggregated rows, view order
}

type point struct {
	x string
	y float64
}

// groupRows splits the view by colour in first-appearance order, the way plotly
// express orders its traces
func groupRows(spec dashboard.ChartSpec, view *table.Table) ([]*colorGroup, error) {
	xs, err := view.Strings(spec.X)
	if err != nil {
		return nil, err
	}

	var ys []float64
	if spec.Aggregation() != dashboard.AggCount {
		ys, err = view.AlignedFloats(spec.Y)
		if err != nil {
			return nil, err
		}
	}

	colors := make([]string, len(xs))
	if spec.Color != "" {
		colors, err = view.Strings(spec.Color)
		if err != nil {
			return nil, err
		}
	}

	var order []*colorGroup
	byName := make(map[string]*colorGroup)
	for i, x := range xs {
		y := 1.0
		if ys != nil {
			y = ys[i]
			if math.IsNaN(y) {
				continue
			}
		}

		g, ok := byName[colors[i]]
		if !ok {
			g = &colorGroup{name: colors[i], buckets: make(map[string][]float64)}
			byName[colors[i]] = g
			order = append(order, g)
		}
		if _, seen := g.buckets[x]; !seen {
			g.xs = append(g.xs, x)
		}
		g.buckets[x] = append(g.buckets[x], y)
		g.rows = append(g.rows, point{x: x, y: y})
	}
	return order, nil
}

func seriesTrace(spec dashboard.ChartSpec, kind dashboard.ChartKind, g *colorGroup) Trace {
	trace := Trace{Type: string(kind), Name: g.name}

	if spec.Aggregation() == dashboard.AggNone {
		for _, p := range g.rows {
			trace.X = append(trace.X, p.x)
			trace.Y = append(trace.Y, p.y)
		}
	} else {
		for _, x := range g.xs {
			trace.X = append(trace.X, x)
			trace.Y = append(trace.Y, reduce(spec.Aggregation(), g.buckets[x]))
		}
	}

	switch kind {
	case dashboard.ChartBar:
		if spec.Text {
			trace.Text = make([]string, len(trace.Y))
			for i, y := range trace.Y {
				trace.Text[i] = strconv.FormatFloat(y, 'f', -1, 64)
			}
			trace.TextPosition = "auto"
		}
	case dashboard.ChartLine:
		trace.Type = "scatter"
		trace.Mode = "lines"
		if spec.Markers {
			trace.Mode = "lines+markers"
		}
	}
	return trace
}

func reduce(agg dashboard.Agg, values []float64) float64 {
	switch agg {
	case dashboard.AggCount:
		return float64(len(values))
	case dashboard.AggMean:
		return stat.Mean(values, nil)
	default:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum
	}
}
