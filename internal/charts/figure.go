// Package charts turns a filtered table into Plotly figure specifications. Drawing
// happens in the browser; this package only decides what to draw.
package charts

// Figure is the {data, layout} pair accepted by Plotly.newPlot
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one Plotly trace. Box traces carry precomputed statistics so the browser
// draws exactly what the server summarised.
type Trace struct {
	Type         string    `json:"type"`
	Name         string    `json:"name,omitempty"`
	X            []string  `json:"x"`
	Y            []float64 `json:"y,omitempty"`
	Text         []string  `json:"text,omitempty"`
	TextPosition string    `json:"textposition,omitempty"`
	Mode         string    `json:"mode,omitempty"`

	Q1         []float64 `json:"q1,omitempty"`
	Median     []float64 `json:"median,omitempty"`
	Q3         []float64 `json:"q3,omitempty"`
	LowerFence []float64 `json:"lowerfence,omitempty"`
	UpperFence []float64 `json:"upperfence,omitempty"`
	Mean       []float64 `json:"mean,omitempty"`
	SD         []float64 `json:"sd,omitempty"`
	BoxMean    string    `json:"boxmean,omitempty"`
	BoxPoints  *bool     `json:"boxpoints,omitempty"`
}

// Layout is the subset of Plotly layout options the dashboards use
type Layout struct {
	Title       Title        `json:"title"`
	XAxis       Axis         `json:"xaxis"`
	YAxis       Axis         `json:"yaxis"`
	BarMode     string       `json:"barmode,omitempty"`
	Legend      *Legend      `json:"legend,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Title is a Plotly title object
type Title struct {
	Text string `json:"text"`
}

// Legend is a Plotly legend object; the title names the colour column
type Legend struct {
	Title Title `json:"title"`
}

// Axis is a Plotly axis object
type Axis struct {
	Title     Title  `json:"title"`
	TickAngle int    `json:"tickangle,omitempty"`
	Type      string `json:"type,omitempty"`
}

// Annotation is a free-floating note, used for the empty-result message
type Annotation struct {
	Text      string  `json:"text"`
	ShowArrow bool    `json:"showarrow"`
	XRef      string  `json:"xref"`
	YRef      string  `json:"yref"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// EmptyMessage is shown in place of traces when no rows match
const EmptyMessage = "No rows match the current filters"
