// Package tabular reads dashboard datasets from the places a source URI can point
// at: synthetic tables, bundled samples, local files, URLs, S3 objects and SQL queries.
package tabular

import (
	"net/url"
	"path"
	"strings"

	"minidash/internal/errors"
)

// Kind identifies where a dataset is read from
type Kind string

const (
	KindSynthetic Kind = "synthetic"
	KindBundled   Kind = "bundled"
	KindFile      Kind = "file"
	KindHTTP      Kind = "http"
	KindS3        Kind = "s3"
	KindSQL       Kind = "sql"
)

// Source is a parsed source URI
type Source struct {
	Kind     Kind
	Location string // dataset name, path, URL, object key or query
	Bucket   string // s3 only
	Path     string // gjson path into a JSON document, from the URI fragment
}

// Format is the file format implied by the location's extension
func (s Source) Format() string {
	loc := s.Location
	if s.Kind == KindHTTP {
		if u, err := url.Parse(loc); err == nil {
			loc = u.Path
		}
	}
	switch strings.ToLower(path.Ext(loc)) {
	case ".xlsx", ".xlsm":
		return "xlsx"
	case ".json":
		return "json"
	default:
		return "csv"
	}
}

// ParseSource interprets a source URI. Anything without a recognised scheme is a
// local file path.
func ParseSource(uri string) (Source, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return Source{}, errors.InvalidInput("source is empty")
	}
	if strings.HasPrefix(uri, "sql:") {
		return nonEmpty(Source{Kind: KindSQL, Location: strings.TrimSpace(strings.TrimPrefix(uri, "sql:"))}, uri)
	}

	src, err := parseLocation(uri)
	if err != nil {
		return Source{}, err
	}
	if loc, fragment, ok := strings.Cut(src.Location, "#"); ok && src.Kind != KindSynthetic {
		src.Location, src.Path = loc, fragment
	}
	return src, nil
}

func parseLocation(uri string) (Source, error) {
	switch {
	case strings.HasPrefix(uri, "synthetic:"):
		return nonEmpty(Source{Kind: KindSynthetic, Location: strings.TrimPrefix(uri, "synthetic:")}, uri)
	case strings.HasPrefix(uri, "bundled:"):
		return nonEmpty(Source{Kind: KindBundled, Location: strings.TrimPrefix(uri, "bundled:")}, uri)
	case strings.HasPrefix(uri, "file://"):
		return nonEmpty(Source{Kind: KindFile, Location: strings.TrimPrefix(uri, "file://")}, uri)
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return Source{Kind: KindHTTP, Location: uri}, nil
	case strings.HasPrefix(uri, "s3://"):
		rest := strings.TrimPrefix(uri, "s3://")
		bucket, key, ok := strings.Cut(rest, "/")
		if !ok || bucket == "" || key == "" {
			return Source{}, errors.InvalidInput("s3 source must look like s3://bucket/key, got " + uri)
		}
		return Source{Kind: KindS3, Bucket: bucket, Location: key}, nil
	}
	return Source{Kind: KindFile, Location: uri}, nil
}

func nonEmpty(s Source, uri string) (Source, error) {
	if s.Location == "" {
		return Source{}, errors.InvalidInput("source " + uri + " names nothing")
	}
	return s, nil
}
