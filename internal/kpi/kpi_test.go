package kpi

import (
	"testing"

	"minidash/domain/dashboard"
	"minidash/internal/errors"
	"minidash/internal/table"
	"minidash/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var enrollmentKPIs = []dashboard.KPISpec{
	{Label: "Total Students", Op: dashboard.OpSum, Column: "Students", Format: "comma"},
	{Label: "Avg. Students / Course", Op: dashboard.OpMean, Column: "Students", Format: "%.1f"},
	{Label: "Avg. Satisfaction", Op: dashboard.OpMean, Column: "Satisfaction", Format: "%.2f / 5"},
	{Label: "Courses", Op: dashboard.OpNUnique, Column: "Course"},
	{Label: "Max Satisfaction", Op: dashboard.OpMax, Column: "Satisfaction", Format: "%.2f"},
	{Label: "Rows", Op: dashboard.OpCount},
	{Label: "Top Semester", Op: dashboard.OpMode, Column: "Semester"},
}

func view(t *testing.T, sel map[string][]string) *table.Table {
	t.Helper()
	tbl, err := table.FromRecords(testkit.EnrollmentRecords())
	require.NoError(t, err)
	v, err := tbl.Filter(sel)
	require.NoError(t, err)
	return v
}

func TestComputeEngineering(t *testing.T) {
	values, err := Compute(view(t, map[string][]string{"Department": {"Engineering"}}), enrollmentKPIs)
	require.NoError(t, err)
	require.Len(t, values, len(enrollmentKPIs))

	assert.Equal(t, 138.0, values[0].Number)
	assert.Equal(t, "138", values[0].Display)
	assert.InDelta(t, 46.0, values[1].Number, 1e-9)
	assert.Equal(t, "46.0", values[1].Display)
	assert.InDelta(t, 4.2667, values[2].Number, 1e-3)
	assert.Equal(t, "4.27 / 5", values[2].Display)
	assert.Equal(t, 3.0, values[3].Number)
	assert.Equal(t, 4.4, values[4].Number)
	assert.Equal(t, "4.40", values[4].Display)
	assert.Equal(t, 3.0, values[5].Number)
	assert.Equal(t, "A", values[6].Text)

	for _, v := range values {
		assert.False(t, v.Fallback, v.Label)
	}
}

func TestComputeWholeTable(t *testing.T) {
	values, err := Compute(view(t, nil), enrollmentKPIs)
	require.NoError(t, err)

	assert.Equal(t, 412.0, values[0].Number)
	assert.Equal(t, "412", values[0].Display)
	assert.Equal(t, 9.0, values[5].Number)
	// five A rows and four B rows
	assert.Equal(t, "A", values[6].Text)
}

func TestComputeEmptyViewUsesFallbacks(t *testing.T) {
	empty := view(t, map[string][]string{"Department": {"Engineering"}, "Course": {"Campaigns"}})
	require.True(t, empty.Empty())

	specs := append([]dashboard.KPISpec{
		{Label: "Min with fallback", Op: dashboard.OpMin, Column: "Students", Fallback: -1},
		{Label: "Median", Op: dashboard.OpMedian, Column: "Students"},
	}, enrollmentKPIs...)

	values, err := Compute(empty, specs)
	require.NoError(t, err)

	assert.Equal(t, -1.0, values[0].Number)
	assert.True(t, values[0].Fallback)
	assert.Equal(t, 0.0, values[1].Number)

	byLabel := make(map[string]Value)
	for _, v := range values {
		byLabel[v.Label] = v
	}
	assert.Equal(t, "0", byLabel["Total Students"].Display)
	assert.Equal(t, "0.0", byLabel["Avg. Students / Course"].Display)
	assert.Equal(t, "0.00", byLabel["Max Satisfaction"].Display)
	assert.Equal(t, 0.0, byLabel["Courses"].Number)
	assert.Equal(t, 0.0, byLabel["Rows"].Number)
	assert.Equal(t, NoValue, byLabel["Top Semester"].Display)
	assert.True(t, byLabel["Top Semester"].Fallback)
}

func TestComputeRejectsNonNumericAggregates(t *testing.T) {
	_, err := Compute(view(t, nil), []dashboard.KPISpec{{Label: "Max course", Op: dashboard.OpMax, Column: "Course"}})
	require.Error(t, err)
	assert.Equal(t, errors.CodeNonNumericColumn, errors.GetCode(err))

	_, err = Compute(view(t, nil), []dashboard.KPISpec{{Label: "Max campus", Op: dashboard.OpMax, Column: "Campus"}})
	assert.Equal(t, errors.CodeUnknownColumn, errors.GetCode(err))
}

func TestMode(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		numeric bool
		want    string
		ok      bool
	}{
		{"single winner", []string{"Tlalpan", "Coyoacán", "Tlalpan"}, false, "Tlalpan", true},
		{"tie goes to smallest", []string{"b", "a", "b", "a"}, false, "a", true},
		{"numeric tie", []string{"10", "9", "10", "9"}, true, "9", true},
		{"blanks ignored", []string{"", "", "x"}, false, "x", true},
		{"empty", nil, false, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Mode(tt.values, tt.numeric)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "12,345", Format(12345.4, "comma"))
	assert.Equal(t, "3.5", Format(3.5, ""))
	assert.Equal(t, "4.27 / 5", Format(4.2666, "%.2f / 5"))
	assert.Equal(t, "7 incidents", Format(7, "incidents"))
}
