package migration

import (
	"context"
	"strconv"

	"minidash/internal/errors"
	"minidash/internal/testkit"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createActivityAnswersTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create activity_answers table")
	}

	if err := r.createCourseEnrollmentsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create course_enrollments table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	if err := r.seedCourseEnrollments(ctx, db); err != nil {
		return errors.Wrap(err, "failed to seed course_enrollments")
	}

	return nil
}

func (r *MigrationRunner) createActivityAnswersTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS activity_answers (
			id UUID PRIMARY KEY,
			submission_id UUID NOT NULL,
			dashboard_id VARCHAR(100) NOT NULL,
			question_key VARCHAR(100) NOT NULL,
			text TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

// course_enrollments mirrors the synthetic enrollments dataset for sql: sources
func (r *MigrationRunner) createCourseEnrollmentsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS course_enrollments (
			department VARCHAR(100) NOT NULL,
			course VARCHAR(200) NOT NULL,
			students INTEGER NOT NULL,
			satisfaction DECIMAL(3,1) NOT NULL,
			semester VARCHAR(10) NOT NULL,
			PRIMARY KEY (department, course)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_answers_dashboard_created ON activity_answers(dashboard_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_answers_submission ON activity_answers(submission_id)",
	}

	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}

func (r *MigrationRunner) seedCourseEnrollments(ctx context.Context, db *sqlx.DB) error {
	records := testkit.EnrollmentRecords()
	for _, rec := range records[1:] {
		students, err := strconv.Atoi(rec[2])
		if err != nil {
			return err
		}
		satisfaction, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return err
		}
		_, err = db.ExecContext(ctx, `
			INSERT INTO course_enrollments (department, course, students, satisfaction, semester)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (department, course) DO NOTHING
		`, rec[0], rec[1], students, satisfaction, rec[4])
		if err != nil {
			return err
		}
	}
	return nil
}
