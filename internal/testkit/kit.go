package testkit

import (
	"fmt"
	"sort"
)

// datasets maps synthetic source names to their record builders
var datasets = map[string]func() ([][]string, error){
	"enrollments": func() ([][]string, error) {
		return EnrollmentRecords(), nil
	},
	"enrollments-large": func() ([][]string, error) {
		return NewEnrollmentGenerator(DefaultEnrollmentConfig()).Generate()
	},
}

// Records returns the synthetic dataset registered under name
func Records(name string) ([][]string, error) {
	build, ok := datasets[name]
	if !ok {
		return nil, fmt.Errorf("unknown synthetic dataset %q (available: %v)", name, Names())
	}
	return build()
}

// Names lists the registered synthetic datasets
func Names() []string {
	names := make([]string, 0, len(datasets))
	for name := range datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
