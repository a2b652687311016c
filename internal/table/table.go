// Package table holds the immutable in-memory dataset behind a dashboard and the
// filtered views derived from it on every interaction.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"minidash/internal/errors"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// missingValues are the cell spellings treated as missing on load
var missingValues = []string{"", "NA", "NaN", "nan", "N/A", "null", "NULL", "<nil>"}

// Table is a read-only view over a DataFrame. Filtering narrows the row view and
// never copies or mutates the underlying frame.
type Table struct {
	frame dataframe.DataFrame
	names []string
	types map[string]series.Type
	rows  []int
}

// FromRecords builds a table from string records whose first row is the header.
// Short rows are padded with missing cells and long rows truncated.
func FromRecords(records [][]string) (*Table, error) {
	if len(records) < 2 {
		return nil, errors.EmptyDataset("a header row and at least one data row are required")
	}

	header := normalizeHeader(records[0])
	width := len(header)
	normalized := make([][]string, 0, len(records))
	normalized = append(normalized, header)
	for _, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		row := make([]string, width)
		for i := 0; i < width && i < len(record); i++ {
			row[i] = strings.TrimSpace(record[i])
		}
		normalized = append(normalized, row)
	}
	if len(normalized) < 2 {
		return nil, errors.EmptyDataset("no data rows after skipping blank lines")
	}

	df := dataframe.LoadRecords(normalized,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.WithTypes(codeColumns(normalized)),
		dataframe.NaNValues(missingValues),
	)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "failed to build table")
	}
	return newTable(df), nil
}

// FromCSV reads delimited text into a table
func FromCSV(r io.Reader, delimiter rune) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to parse delimited data: %w", err))
	}
	return FromRecords(records)
}

func newTable(df dataframe.DataFrame) *Table {
	names := df.Names()
	types := make(map[string]series.Type, len(names))
	for i, t := range df.Types() {
		types[names[i]] = t
	}
	rows := make([]int, df.Nrow())
	for i := range rows {
		rows[i] = i
	}
	return &Table{frame: df, names: names, types: types, rows: rows}
}

// Len is the number of rows in the view
func (t *Table) Len() int {
	return len(t.rows)
}

// Empty reports whether the view has no rows
func (t *Table) Empty() bool {
	return len(t.rows) == 0
}

// Columns returns the column names in source order
func (t *Table) Columns() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// HasColumn reports whether the table has a column with this exact name
func (t *Table) HasColumn(name string) bool {
	_, ok := t.types[name]
	return ok
}

// IsNumeric reports whether the column was detected as int or float
func (t *Table) IsNumeric(name string) bool {
	typ, ok := t.types[name]
	return ok && (typ == series.Int || typ == series.Float)
}

// ColumnType returns the detected type name ("int", "float", "string", "bool")
func (t *Table) ColumnType(name string) string {
	return string(t.types[name])
}

func (t *Table) column(name string) (series.Series, error) {
	if !t.HasColumn(name) {
		return series.Series{}, errors.UnknownColumn(name)
	}
	col := t.frame.Col(name)
	if col.Err != nil {
		return series.Series{}, errors.Wrap(col.Err, "failed to read column "+name)
	}
	return col, nil
}

// Options returns the distinct non-missing values observed in a column, sorted
// numerically for numeric columns and lexically otherwise
func (t *Table) Options(name string) ([]string, error) {
	col, err := t.column(name)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var values []string
	for _, i := range t.rows {
		if col.Elem(i).IsNA() {
			continue
		}
		v := t.cell(col, i)
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	SortValues(values, t.IsNumeric(name))
	return values, nil
}

// Filter keeps the rows whose value in every selected column is one of the selected
// values. Columns with no selected values are unconstrained. Every selected value must
// be one of the column's observed options.
func (t *Table) Filter(selection map[string][]string) (*Table, error) {
	keep := make([]bool, t.frame.Nrow())
	for _, i := range t.rows {
		keep[i] = true
	}

	columns := make([]string, 0, len(selection))
	for name := range selection {
		columns = append(columns, name)
	}
	sort.Strings(columns)

	for _, name := range columns {
		values := selection[name]
		if len(values) == 0 {
			continue
		}
		col, err := t.column(name)
		if err != nil {
			return nil, err
		}
		if err := t.checkObserved(name, values); err != nil {
			return nil, err
		}

		mask := col.Compare(series.In, values)
		if mask.Err != nil {
			return nil, errors.Wrap(mask.Err, "failed to compare column "+name)
		}
		matches, err := mask.Bool()
		if err != nil {
			return nil, errors.Wrap(err, "failed to read filter mask for "+name)
		}
		for i := range keep {
			keep[i] = keep[i] && matches[i]
		}
	}

	rows := make([]int, 0, len(t.rows))
	for _, i := range t.rows {
		if keep[i] {
			rows = append(rows, i)
		}
	}
	return &Table{frame: t.frame, names: t.names, types: t.types, rows: rows}, nil
}

func (t *Table) checkObserved(name string, values []string) error {
	options, err := t.Options(name)
	if err != nil {
		return err
	}
	observed := make(map[string]bool, len(options))
	for _, o := range options {
		observed[o] = true
	}
	for _, v := range values {
		if !observed[v] {
			return errors.InvalidInput(fmt.Sprintf("value %q is not an option for %s", v, name))
		}
	}
	return nil
}

// Floats returns the non-missing values of a numeric column in view order
func (t *Table) Floats(name string) ([]float64, error) {
	col, err := t.column(name)
	if err != nil {
		return nil, err
	}
	if !t.IsNumeric(name) {
		return nil, errors.NonNumericColumn(name)
	}

	values := make([]float64, 0, len(t.rows))
	for _, i := range t.rows {
		e := col.Elem(i)
		if e.IsNA() {
			continue
		}
		f := e.Float()
		if math.IsNaN(f) {
			continue
		}
		values = append(values, f)
	}
	return values, nil
}

// Strings returns the textual values of a column in view order, missing as ""
func (t *Table) Strings(name string) ([]string, error) {
	col, err := t.column(name)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(t.rows))
	for j, i := range t.rows {
		values[j] = t.cell(col, i)
	}
	return values, nil
}

// AlignedFloats returns one value per view row, NaN where the cell is missing
func (t *Table) AlignedFloats(name string) ([]float64, error) {
	col, err := t.column(name)
	if err != nil {
		return nil, err
	}
	if !t.IsNumeric(name) {
		return nil, errors.NonNumericColumn(name)
	}
	values := make([]float64, len(t.rows))
	for j, i := range t.rows {
		e := col.Elem(i)
		if e.IsNA() {
			values[j] = math.NaN()
			continue
		}
		values[j] = e.Float()
	}
	return values, nil
}

// Records returns a header row followed by at most limit rows (limit <= 0 means all).
// An empty column list selects every column.
func (t *Table) Records(columns []string, limit int) ([][]string, error) {
	if len(columns) == 0 {
		columns = t.names
	}
	cols := make([]series.Series, len(columns))
	for k, name := range columns {
		col, err := t.column(name)
		if err != nil {
			return nil, err
		}
		cols[k] = col
	}

	n := len(t.rows)
	if limit > 0 && limit < n {
		n = limit
	}
	records := make([][]string, 0, n+1)
	header := make([]string, len(columns))
	copy(header, columns)
	records = append(records, header)
	for _, i := range t.rows[:n] {
		row := make([]string, len(cols))
		for k, col := range cols {
			row[k] = t.cell(col, i)
		}
		records = append(records, row)
	}
	return records, nil
}

// WriteCSV writes every row of the view, header first
func (t *Table) WriteCSV(w io.Writer) error {
	records, err := t.Records(nil, 0)
	if err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(records); err != nil {
		return errors.Wrap(err, "failed to write csv")
	}
	return nil
}

// cell renders one value; floats use the shortest exact form ("4.2", not "4.200000")
func (t *Table) cell(col series.Series, i int) string {
	e := col.Elem(i)
	if e.IsNA() {
		return ""
	}
	if col.Type() == series.Float {
		return strconv.FormatFloat(e.Float(), 'f', -1, 64)
	}
	return e.String()
}

// SortValues orders values numerically when numeric is set, lexically otherwise
func SortValues(values []string, numeric bool) {
	if !numeric {
		sort.Strings(values)
		return
	}
	sort.SliceStable(values, func(a, b int) bool {
		fa, errA := strconv.ParseFloat(values[a], 64)
		fb, errB := strconv.ParseFloat(values[b], 64)
		if errA != nil || errB != nil {
			return values[a] < values[b]
		}
		return fa < fb
	})
}

func normalizeHeader(raw []string) []string {
	header := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		seen[name]++
		header[i] = name
	}
	return header
}

// codeColumns pins columns holding zero-padded codes ("01", "007") to string so type
// detection does not turn them into integers and drop the padding
func codeColumns(records [][]string) map[string]series.Type {
	hints := make(map[string]series.Type)
	for c, name := range records[0] {
		for _, row := range records[1:] {
			if hasLeadingZero(row[c]) {
				hints[name] = series.String
				break
			}
		}
	}
	return hints
}

func hasLeadingZero(v string) bool {
	v = strings.TrimLeft(v, "+-")
	return len(v) > 1 && v[0] == '0' && v[1] >= '0' && v[1] <= '9'
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
