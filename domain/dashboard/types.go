package dashboard

import (
	"net/url"
	"strings"
)

// FilterKind selects the sidebar widget used for a categorical column
type FilterKind string

const (
	FilterMultiSelect FilterKind = "multiselect"
	FilterSelect      FilterKind = "select" // single value or "All"
)

// KPIOp is the aggregation behind a KPI card
type KPIOp string

const (
	OpCount   KPIOp = "count"
	OpSum     KPIOp = "sum"
	OpMean    KPIOp = "mean"
	OpMax     KPIOp = "max"
	OpMin     KPIOp = "min"
	OpMedian  KPIOp = "median"
	OpNUnique KPIOp = "nunique"
	OpMode    KPIOp = "mode"
)

// Numeric reports whether the op requires a numeric column
func (op KPIOp) Numeric() bool {
	switch op {
	case OpSum, OpMean, OpMax, OpMin, OpMedian:
		return true
	}
	return false
}

// ChartKind is the rendering used for a chart panel
type ChartKind string

const (
	ChartBar  ChartKind = "bar"
	ChartLine ChartKind = "line"
	ChartBox  ChartKind = "box"
)

// Agg groups chart rows before plotting
type Agg string

const (
	AggNone  Agg = "none"
	AggSum   Agg = "sum"
	AggCount Agg = "count"
	AggMean  Agg = "mean"
)

// QuestionKind is the input widget for a free-text question
type QuestionKind string

const (
	QuestionText     QuestionKind = "text"
	QuestionTextArea QuestionKind = "textarea"
)

// Definition describes one dashboard: where its data comes from and what it shows
type Definition struct {
	ID        string       `yaml:"id" json:"id"`
	Title     string       `yaml:"title" json:"title"`
	Intro     string       `yaml:"intro" json:"intro,omitempty"`
	Footer    string       `yaml:"footer" json:"footer,omitempty"`
	Caption   string       `yaml:"caption" json:"caption,omitempty"`
	Source    string       `yaml:"source" json:"source"`
	Filters   []FilterSpec `yaml:"filters" json:"filters"`
	KPIs      []KPISpec    `yaml:"kpis" json:"kpis"`
	Charts    ChartsSpec   `yaml:"charts" json:"charts"`
	Table     TableSpec    `yaml:"table" json:"table"`
	Questions []Question   `yaml:"questions" json:"questions,omitempty"`
}

// FilterSpec binds a sidebar widget to a categorical column
type FilterSpec struct {
	Column string     `yaml:"column" json:"column"`
	Label  string     `yaml:"label" json:"label"`
	Kind   FilterKind `yaml:"kind" json:"kind"`
}

// DisplayLabel falls back to the column name
func (f FilterSpec) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Column
}

// KPISpec describes one summary value
type KPISpec struct {
	Label    string  `yaml:"label" json:"label"`
	Op       KPIOp   `yaml:"op" json:"op"`
	Column   string  `yaml:"column" json:"column,omitempty"`
	Format   string  `yaml:"format" json:"format,omitempty"` // printf verb string or "comma"
	Fallback float64 `yaml:"fallback" json:"fallback"`
}

// ChartsSpec holds the two chart panels
type ChartsSpec struct {
	Toggle    bool      `yaml:"toggle" json:"toggle"` // bar/line radio on the primary chart
	Primary   ChartSpec `yaml:"primary" json:"primary"`
	Secondary ChartSpec `yaml:"secondary" json:"secondary"`
}

// ChartSpec maps table columns onto a chart
type ChartSpec struct {
	Title     string    `yaml:"title" json:"title"`
	Kind      ChartKind `yaml:"kind" json:"kind"`
	X         string    `yaml:"x" json:"x"`
	Y         string    `yaml:"y" json:"y,omitempty"`
	Color     string    `yaml:"color" json:"color,omitempty"`
	Agg       Agg       `yaml:"agg" json:"agg,omitempty"`
	Text      bool      `yaml:"text" json:"text,omitempty"`
	Markers   bool      `yaml:"markers" json:"markers,omitempty"`
	TickAngle int       `yaml:"tick_angle" json:"tick_angle,omitempty"`
}

// Aggregation defaults to none
func (c ChartSpec) Aggregation() Agg {
	if c.Agg == "" {
		return AggNone
	}
	return c.Agg
}

// TableSpec controls the filtered data preview
type TableSpec struct {
	Columns []string `yaml:"columns" json:"columns,omitempty"`
	Limit   int      `yaml:"limit" json:"limit,omitempty"`
}

// Question is a bonus free-text prompt shown under the charts
type Question struct {
	Key    string       `yaml:"key" json:"key"`
	Prompt string       `yaml:"prompt" json:"prompt"`
	Kind   QuestionKind `yaml:"kind" json:"kind"`
}

// Selection is the user's current filter state for one dashboard
type Selection struct {
	Values map[string][]string `json:"values"`
	Chart  ChartKind           `json:"chart,omitempty"`
}

// NewSelection returns an empty selection (no constraints)
func NewSelection() Selection {
	return Selection{Values: make(map[string][]string)}
}

// Add appends a selected value for a column
func (s *Selection) Add(column, value string) {
	if s.Values == nil {
		s.Values = make(map[string][]string)
	}
	s.Values[column] = append(s.Values[column], value)
}

// Selected returns the values chosen for a column
func (s Selection) Selected(column string) []string {
	return s.Values[column]
}

// IsSelected reports whether value is chosen for column
func (s Selection) IsSelected(column, value string) bool {
	for _, v := range s.Values[column] {
		if v == value {
			return true
		}
	}
	return false
}

// FilterParamPrefix marks filter values in query strings: f.Department=Finance
const FilterParamPrefix = "f."

// ParseSelection reads repeated f.<column> parameters and the chart toggle
func ParseSelection(query url.Values) Selection {
	sel := NewSelection()
	for key, values := range query {
		column := strings.TrimPrefix(key, FilterParamPrefix)
		if column == key || column == "" {
			continue
		}
		for _, v := range values {
			sel.Add(column, v)
		}
	}
	sel.Chart = ChartKind(strings.ToLower(query.Get("chart")))
	return sel
}

// Query renders the selection back into query parameters
func (s Selection) Query() url.Values {
	q := url.Values{}
	for column, values := range s.Values {
		for _, v := range values {
			q.Add(FilterParamPrefix+column, v)
		}
	}
	if s.Chart != "" {
		q.Set("chart", string(s.Chart))
	}
	return q
}
