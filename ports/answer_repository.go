package ports

import (
	"context"

	"minidash/models"
)

// AnswerRepository stores answers to dashboard questions
type AnswerRepository interface {
	// SaveAnswers stores one submission atomically
	SaveAnswers(ctx context.Context, answers []*models.Answer) error

	// ListRecentAnswers returns the newest answers for a dashboard, newest first
	ListRecentAnswers(ctx context.Context, dashboardID string, limit int) ([]*models.Answer, error)
}
