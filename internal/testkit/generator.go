package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
)

// EnrollmentGeneratorConfig configures the synthetic enrollment generator
type EnrollmentGeneratorConfig struct {
	Departments       []string `json:"departments"`
	CoursesPerDept    int      `json:"courses_per_dept"`
	Semesters         []string `json:"semesters"`
	MeanStudents      float64  `json:"mean_students"`
	StudentsSpread    float64  `json:"students_spread"`
	MeanSatisfaction  float64  `json:"mean_satisfaction"`
	SatisfactionNoise float64  `json:"satisfaction_noise"`
	Seed              int64    `json:"seed"`
}

// DefaultEnrollmentConfig returns defaults shaped like the classroom dataset, only larger
func DefaultEnrollmentConfig() EnrollmentGeneratorConfig {
	return EnrollmentGeneratorConfig{
		Departments:       []string{"Finance", "Marketing", "Engineering", "Design", "Law", "Medicine"},
		CoursesPerDept:    40,
		Semesters:         []string{"A", "B"},
		MeanStudents:      45,
		StudentsSpread:    10,
		MeanSatisfaction:  4.1,
		SatisfactionNoise: 0.35,
		Seed:              42,
	}
}

// EnrollmentGenerator produces deterministic enrollment tables for load testing
type EnrollmentGenerator struct {
	config EnrollmentGeneratorConfig
	rng    *rand.Rand
}

// NewEnrollmentGenerator creates a generator seeded from the config
func NewEnrollmentGenerator(config EnrollmentGeneratorConfig) *EnrollmentGenerator {
	return &EnrollmentGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate returns header + one row per generated course
func (g *EnrollmentGenerator) Generate() ([][]string, error) {
	if len(g.config.Departments) == 0 || len(g.config.Semesters) == 0 {
		return nil, fmt.Errorf("generator needs at least one department and one semester")
	}
	if g.config.CoursesPerDept <= 0 {
		return nil, fmt.Errorf("courses per department must be positive, got %d", g.config.CoursesPerDept)
	}

	records := [][]string{append([]string(nil), EnrollmentHeader...)}
	for _, dept := range g.config.Departments {
		for i := 0; i < g.config.CoursesPerDept; i++ {
			students := int(math.Round(g.config.MeanStudents + g.rng.NormFloat64()*g.config.StudentsSpread))
			if students < 1 {
				students = 1
			}
			satisfaction := g.config.MeanSatisfaction + g.rng.NormFloat64()*g.config.SatisfactionNoise
			satisfaction = math.Round(math.Min(5, math.Max(1, satisfaction))*10) / 10
			semester := g.config.Semesters[g.rng.Intn(len(g.config.Semesters))]

			records = append(records, []string{
				dept,
				fmt.Sprintf("%s %03d", dept, i+1),
				strconv.Itoa(students),
				strconv.FormatFloat(satisfaction, 'f', 1, 64),
				semester,
			})
		}
	}
	return records, nil
}
