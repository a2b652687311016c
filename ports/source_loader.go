package ports

import (
	"context"

	"minidash/internal/table"
)

// SourceLoader reads the dataset behind a source URI
type SourceLoader interface {
	Load(ctx context.Context, uri string) (*table.Table, error)
}
