package tabular

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"minidash/internal/errors"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const crimesCSV = `anio_hecho;mes_hecho;delito;alcaldia_hecho
2023;Enero;FRAUDE;COYOACAN
2023;Enero;AMENAZAS;TLALPAN
2023;Febrero;FRAUDE;TLALPAN
`

func TestParseSource(t *testing.T) {
	tests := []struct {
		uri    string
		want   Source
		format string
	}{
		{"synthetic:enrollments", Source{Kind: KindSynthetic, Location: "enrollments"}, "csv"},
		{"bundled:crimes_cdmx.csv", Source{Kind: KindBundled, Location: "crimes_cdmx.csv"}, "csv"},
		{"data/courses.xlsx", Source{Kind: KindFile, Location: "data/courses.xlsx"}, "xlsx"},
		{"file:///tmp/a.csv", Source{Kind: KindFile, Location: "/tmp/a.csv"}, "csv"},
		{"https://example.org/data.xlsx?dl=1", Source{Kind: KindHTTP, Location: "https://example.org/data.xlsx?dl=1"}, "xlsx"},
		{"s3://class-data/2024/crimes.csv", Source{Kind: KindS3, Bucket: "class-data", Location: "2024/crimes.csv"}, "csv"},
		{"sql: SELECT * FROM enrollments", Source{Kind: KindSQL, Location: "SELECT * FROM enrollments"}, "csv"},
		{"https://datos.cdmx.gob.mx/api/crimes.json#result.records", Source{Kind: KindHTTP, Location: "https://datos.cdmx.gob.mx/api/crimes.json", Path: "result.records"}, "json"},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := ParseSource(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.format, got.Format())
		})
	}

	for _, bad := range []string{"", "  ", "synthetic:", "s3://bucket-only", "s3:///key", "sql:"} {
		_, err := ParseSource(bad)
		assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err), bad)
	}
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name   string
		sample string
		want   rune
	}{
		{"comma", "a,b,c\n1,2,3", ','},
		{"semicolon", "a;b;c\n1;2;3", ';'},
		{"tab", "a\tb\tc", '\t'},
		{"pipe", "a|b|c", '|'},
		{"quoted commas ignored", `"x,y,z";b;c`, ';'},
		{"single column", "students\n1\n2", ','},
		{"only first line counts", "a;b\n1,2,3,4,5", ';'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SniffDelimiter([]byte(tt.sample)))
		})
	}
}

func TestLoadSynthetic(t *testing.T) {
	tbl, err := NewLoader().Load(context.Background(), "synthetic:enrollments")
	require.NoError(t, err)
	assert.Equal(t, 9, tbl.Len())
	assert.True(t, tbl.IsNumeric("Students"))

	_, err = NewLoader().Load(context.Background(), "synthetic:weather")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestLoadBundled(t *testing.T) {
	fsys := fstest.MapFS{"crimes.csv": {Data: []byte(crimesCSV)}}

	tbl, err := NewLoader(WithBundled(fsys)).Load(context.Background(), "bundled:crimes.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"anio_hecho", "mes_hecho", "delito", "alcaldia_hecho"}, tbl.Columns())

	_, err = NewLoader(WithBundled(fsys)).Load(context.Background(), "bundled:missing.csv")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	_, err = NewLoader().Load(context.Background(), "bundled:crimes.csv")
	assert.Equal(t, errors.CodeSourceUnavailable, errors.GetCode(err))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "crimes.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(crimesCSV), 0o644))
	tbl, err := NewLoader().Load(context.Background(), csvPath)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())

	tbl, err = NewLoader().Load(context.Background(), "file://"+csvPath)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())

	headerOnly := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(headerOnly, []byte("a,b\n"), 0o644))
	_, err = NewLoader().Load(context.Background(), headerOnly)
	assert.Equal(t, errors.CodeEmptyDataset, errors.GetCode(err))

	_, err = NewLoader().Load(context.Background(), filepath.Join(dir, "nope.csv"))
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func workbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestLoadWorkbook(t *testing.T) {
	data := workbook(t, [][]interface{}{
		{"Department", "Course", "Students"},
		{"Finance", "Risk Models", 38},
		{"Engineering", "Intro Robotics", 48},
	})
	path := filepath.Join(t.TempDir(), "courses.xlsx")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	tbl, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.True(t, tbl.IsNumeric("Students"))

	values, err := tbl.Floats("Students")
	require.NoError(t, err)
	assert.Equal(t, []float64{38, 48}, values)

	headerOnly := workbook(t, [][]interface{}{{"Department"}})
	_, err = readWorkbook(bytes.NewReader(headerOnly))
	assert.Equal(t, errors.CodeEmptyDataset, errors.GetCode(err))

	_, err = readWorkbook(strings.NewReader("not a workbook"))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestLoadHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/crimes.csv":
			w.Header().Set("Content-Type", "text/csv")
			fmt.Fprint(w, crimesCSV)
		case "/slow.csv":
			time.Sleep(200 * time.Millisecond)
			fmt.Fprint(w, crimesCSV)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	loader := NewLoader(WithHTTPClient(srv.Client()))
	tbl, err := loader.Load(context.Background(), srv.URL+"/crimes.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())

	_, err = loader.Load(context.Background(), srv.URL+"/missing.csv")
	assert.Equal(t, errors.CodeSourceUnavailable, errors.GetCode(err))

	impatient := NewLoader(WithHTTPClient(srv.Client()), WithTimeout(20*time.Millisecond))
	_, err = impatient.Load(context.Background(), srv.URL+"/slow.csv")
	assert.Equal(t, errors.CodeSourceUnavailable, errors.GetCode(err))
}

type fakeObjects struct {
	objects map[string]string
	calls   []string
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := *in.Bucket + "/" + *in.Key
	f.calls = append(f.calls, key)
	body, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("NoSuchKey: %s", key)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestLoadS3(t *testing.T) {
	store := &fakeObjects{objects: map[string]string{"class-data/2024/crimes.csv": crimesCSV}}
	loader := NewLoader(WithObjectStore(store))

	tbl, err := loader.Load(context.Background(), "s3://class-data/2024/crimes.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"class-data/2024/crimes.csv"}, store.calls)

	_, err = loader.Load(context.Background(), "s3://class-data/missing.csv")
	assert.Equal(t, errors.CodeSourceUnavailable, errors.GetCode(err))

	_, err = NewLoader().Load(context.Background(), "s3://class-data/2024/crimes.csv")
	assert.Equal(t, errors.CodeSourceUnavailable, errors.GetCode(err))
}

func TestLoadRemoteStatusAndSizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNonAuthoritativeInfo)
		fmt.Fprint(w, crimesCSV)
	}))
	defer srv.Close()

	tbl, err := NewLoader(WithHTTPClient(srv.Client())).Load(context.Background(), srv.URL+"/crimes.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())

	size := int64(len(crimesCSV))
	exact := NewLoader(WithHTTPClient(srv.Client()), WithMaxDownload(size))
	_, err = exact.Load(context.Background(), srv.URL+"/crimes.csv")
	require.NoError(t, err)

	tooSmall := NewLoader(WithHTTPClient(srv.Client()), WithMaxDownload(size-1))
	_, err = tooSmall.Load(context.Background(), srv.URL+"/crimes.csv")
	assert.Equal(t, errors.CodeSourceUnavailable, errors.GetCode(err))
	assert.Contains(t, err.Error(), "payload exceeds")

	store := &fakeObjects{objects: map[string]string{"class-data/crimes.csv": crimesCSV}}
	_, err = NewLoader(WithObjectStore(store), WithMaxDownload(size-1)).Load(context.Background(), "s3://class-data/crimes.csv")
	assert.Equal(t, errors.CodeSourceUnavailable, errors.GetCode(err))
}

func TestLoadSQLWithoutDatabase(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), "sql:SELECT 1")
	assert.Equal(t, errors.CodeSourceUnavailable, errors.GetCode(err))
}

func TestIsSelect(t *testing.T) {
	assert.True(t, isSelect("SELECT * FROM enrollments"))
	assert.True(t, isSelect("  with t as (select 1) select * from t;"))
	assert.False(t, isSelect("DELETE FROM enrollments"))
	assert.False(t, isSelect("SELECT 1; DROP TABLE enrollments"))
}

func TestSQLCell(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{[]byte("Finance"), "Finance"},
		{int64(55), "55"},
		{4.25, "4.25"},
		{true, "true"},
		{day, "2024-03-01"},
		{day.Add(90 * time.Minute), "2024-03-01T01:30:00Z"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sqlCell(tt.in))
	}
}

func TestReadJSON(t *testing.T) {
	doc := `{"result": {"records": [
		{"alcaldia_hecho": "TLALPAN", "delito": "FRAUDE", "victimas": 1},
		{"alcaldia_hecho": "COYOACAN", "delito": "AMENAZAS", "victimas": 2, "nota": "x"},
		{"alcaldia_hecho": "TLALPAN", "delito": "FRAUDE", "victimas": null},
		"skipped"
	]}}`

	tbl, err := readJSON(strings.NewReader(doc), "result.records")
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"alcaldia_hecho", "delito", "victimas", "nota"}, tbl.Columns())
	assert.True(t, tbl.IsNumeric("victimas"))
	values, err := tbl.Floats("victimas")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, values)

	_, err = readJSON(strings.NewReader(doc), "result")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = readJSON(strings.NewReader(`{"broken": `), "")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = readJSON(strings.NewReader(`[]`), "")
	assert.Equal(t, errors.CodeEmptyDataset, errors.GetCode(err))
}

func TestLoadBundledJSON(t *testing.T) {
	fsys := fstest.MapFS{"crimes.json": {Data: []byte(`[{"delito": "FRAUDE"}, {"delito": "AMENAZAS"}]`)}}
	tbl, err := NewLoader(WithBundled(fsys)).Load(context.Background(), "bundled:crimes.json")
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
}
