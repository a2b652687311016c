package testkit

import (
	"strconv"
	"testing"
)

func TestEnrollmentGenerator_Basic(t *testing.T) {
	config := DefaultEnrollmentConfig()
	config.CoursesPerDept = 5

	records, err := NewEnrollmentGenerator(config).Generate()
	if err != nil {
		t.Fatalf("Failed to generate records: %v", err)
	}

	want := 1 + len(config.Departments)*config.CoursesPerDept
	if len(records) != want {
		t.Fatalf("Expected %d records, got %d", want, len(records))
	}

	for i, row := range records[1:] {
		if len(row) != len(EnrollmentHeader) {
			t.Errorf("Row %d has %d cells", i, len(row))
		}
		students, err := strconv.Atoi(row[2])
		if err != nil || students < 1 {
			t.Errorf("Row %d has invalid student count %q", i, row[2])
		}
		sat, err := strconv.ParseFloat(row[3], 64)
		if err != nil || sat < 1 || sat > 5 {
			t.Errorf("Row %d has satisfaction %q outside 1-5", i, row[3])
		}
	}
}

func TestEnrollmentGenerator_Deterministic(t *testing.T) {
	config := DefaultEnrollmentConfig()
	config.CoursesPerDept = 3

	first, _ := NewEnrollmentGenerator(config).Generate()
	second, _ := NewEnrollmentGenerator(config).Generate()

	for i := range first {
		for j := range first[i] {
			if first[i][j] != second[i][j] {
				t.Fatalf("Same seed produced different cell at %d,%d: %q vs %q", i, j, first[i][j], second[i][j])
			}
		}
	}
}

func TestEnrollmentGenerator_RejectsEmptyConfig(t *testing.T) {
	config := DefaultEnrollmentConfig()
	config.Departments = nil
	if _, err := NewEnrollmentGenerator(config).Generate(); err == nil {
		t.Error("Expected error for empty department list")
	}
}

func TestRecords(t *testing.T) {
	records, err := Records("enrollments")
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(records) != 10 {
		t.Errorf("Expected header + 9 rows, got %d", len(records))
	}
	if _, err := Records("weather"); err == nil {
		t.Error("Expected error for unknown dataset")
	}
}
