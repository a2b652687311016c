// Package catalog holds the dashboard definitions shipped with the binary and the
// sample datasets they read.
package catalog

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"minidash/domain/dashboard"
	"minidash/internal/errors"

	"gopkg.in/yaml.v3"
)

//go:embed dashboards.yaml
var defaultDefinitions []byte

//go:embed data/*.csv
var bundled embed.FS

// file is the on-disk layout of a dashboards YAML document
type file struct {
	Dashboards []dashboard.Definition `yaml:"dashboards"`
}

// Default returns the built-in dashboards
func Default() ([]dashboard.Definition, error) {
	return Parse(defaultDefinitions)
}

// Load reads dashboards from a YAML file. An empty path means the built-in set.
func Load(path string) ([]dashboard.Definition, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("failed to read dashboards file %s: %w", path, err))
	}
	return Parse(data)
}

// Parse decodes and validates a dashboards document. Unknown keys are rejected.
func Parse(data []byte) ([]dashboard.Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc file
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, errors.InvalidDefinition("dashboards document is empty")
		}
		return nil, errors.WithCode(errors.CodeInvalidDefinition, fmt.Errorf("failed to decode dashboards: %w", err))
	}
	if len(doc.Dashboards) == 0 {
		return nil, errors.InvalidDefinition("no dashboards defined")
	}

	seen := make(map[string]bool, len(doc.Dashboards))
	for _, def := range doc.Dashboards {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if seen[def.ID] {
			return nil, errors.Newf(errors.CodeInvalidDefinition, "duplicate dashboard id %q", def.ID)
		}
		seen[def.ID] = true
	}
	return doc.Dashboards, nil
}

// Bundled exposes the sample datasets, rooted at the data directory
func Bundled() fs.FS {
	sub, err := fs.Sub(bundled, "data")
	if err != nil {
		// "data" is a literal embedded directory
		panic(err)
	}
	return sub
}

// BundledNames lists the sample dataset file names
func BundledNames() []string {
	entries, err := fs.ReadDir(Bundled(), ".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}
