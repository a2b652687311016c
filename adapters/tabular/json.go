package tabular

import (
	"fmt"
	"io"

	"minidash/internal/errors"
	"minidash/internal/table"

	"github.com/tidwall/gjson"
)

// readJSON loads an array of flat objects. path optionally selects the array inside
// a larger document using gjson syntax, e.g. "result.records".
func readJSON(r io.Reader, path string) (*table.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to read JSON: %w", err))
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.InvalidInput("source is not valid JSON")
	}

	doc := gjson.ParseBytes(data)
	if path != "" {
		doc = doc.Get(path)
	}
	if !doc.IsArray() {
		return nil, errors.Newf(errors.CodeInvalidInput, "expected a JSON array of records at %q", path)
	}

	var header []string
	index := make(map[string]int)
	var objects []gjson.Result
	doc.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		item.ForEach(func(key, _ gjson.Result) bool {
			if _, ok := index[key.String()]; !ok {
				index[key.String()] = len(header)
				header = append(header, key.String())
			}
			return true
		})
		objects = append(objects, item)
		return true
	})
	if len(objects) == 0 {
		return nil, errors.EmptyDataset("JSON source has no records")
	}

	records := make([][]string, 0, len(objects)+1)
	records = append(records, header)
	for _, obj := range objects {
		row := make([]string, len(header))
		obj.ForEach(func(key, value gjson.Result) bool {
			if value.Type != gjson.Null {
				row[index[key.String()]] = value.String()
			}
			return true
		})
		records = append(records, row)
	}
	return table.FromRecords(records)
}
