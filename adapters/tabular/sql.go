package tabular

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"minidash/internal/errors"
	"minidash/internal/table"

	"github.com/jmoiron/sqlx"
)

// Querier runs read-only queries; *sqlx.DB satisfies it
type Querier interface {
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
}

// readQuery runs a SELECT and turns its result set into a table
func readQuery(ctx context.Context, db Querier, query string) (*table.Table, error) {
	if !isSelect(query) {
		return nil, errors.InvalidInput("sql sources must be a single SELECT or WITH query")
	}

	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return nil, errors.DatabaseError("failed to run source query", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.DatabaseError("failed to read result columns", err)
	}

	records := [][]string{columns}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, errors.DatabaseError("failed to scan row", err)
		}
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = sqlCell(v)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("failed to iterate rows", err)
	}
	return table.FromRecords(records)
}

func isSelect(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if strings.Contains(strings.TrimSuffix(q, ";"), ";") {
		return false
	}
	return strings.HasPrefix(q, "select") || strings.HasPrefix(q, "with")
}

// sqlCell renders a scanned driver value the way it would appear in a CSV export
func sqlCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}
