package testkit

// EnrollmentHeader is the column order of the course enrollments dataset
var EnrollmentHeader = []string{"Department", "Course", "Students", "Satisfaction", "Semester"}

// EnrollmentRecords returns the synthetic "Course Enrollments" table used by the
// classroom dashboard, header row first. Satisfaction is on a 1–5 scale.
func EnrollmentRecords() [][]string {
	rows := [][]string{
		{"Finance", "Intro Analytics", "55", "4.2", "A"},
		{"Finance", "Risk Models", "38", "3.9", "A"},
		{"Finance", "Financial Viz", "44", "4.1", "B"},
		{"Marketing", "Marketing Basics", "60", "4.5", "A"},
		{"Marketing", "Segmentation", "35", "4.0", "B"},
		{"Marketing", "Campaigns", "42", "3.8", "B"},
		{"Engineering", "Intro Robotics", "48", "4.3", "A"},
		{"Engineering", "ML for Sensors", "51", "4.4", "A"},
		{"Engineering", "Control Systems", "39", "4.1", "B"},
	}

	records := make([][]string, 0, len(rows)+1)
	header := make([]string, len(EnrollmentHeader))
	copy(header, EnrollmentHeader)
	records = append(records, header)
	return append(records, rows...)
}
