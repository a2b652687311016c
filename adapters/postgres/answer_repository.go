package postgres

import (
	"context"

	"minidash/internal/errors"
	"minidash/models"
	"minidash/ports"

	"github.com/jmoiron/sqlx"
)

// AnswerRepositoryImpl implements AnswerRepository for PostgreSQL
type AnswerRepositoryImpl struct {
	db *sqlx.DB
}

// NewAnswerRepository creates a new PostgreSQL answer repository
func NewAnswerRepository(db *sqlx.DB) ports.AnswerRepository {
	return &AnswerRepositoryImpl{db: db}
}

// SaveAnswers inserts every answer of a submission in one transaction
func (r *AnswerRepositoryImpl) SaveAnswers(ctx context.Context, answers []*models.Answer) error {
	if len(answers) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin answers transaction", err)
	}
	defer tx.Rollback()

	for _, a := range answers {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO activity_answers (id, submission_id, dashboard_id, question_key, text, created_at)
			VALUES (:id, :submission_id, :dashboard_id, :question_key, :text, :created_at)
		`, a)
		if err != nil {
			return errors.DatabaseError("failed to insert answer "+a.QuestionKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit answers", err)
	}
	return nil
}

// ListRecentAnswers returns the newest answers for a dashboard
func (r *AnswerRepositoryImpl) ListRecentAnswers(ctx context.Context, dashboardID string, limit int) ([]*models.Answer, error) {
	if limit <= 0 {
		limit = 50
	}

	var answers []*models.Answer
	err := r.db.SelectContext(ctx, &answers, `
		SELECT id, submission_id, dashboard_id, question_key, text, created_at
		FROM activity_answers
		WHERE dashboard_id = $1
		ORDER BY created_at DESC, question_key
		LIMIT $2
	`, dashboardID, limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to list answers", err)
	}
	return answers, nil
}
