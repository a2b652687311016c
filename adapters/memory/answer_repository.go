// Package memory keeps answers in process memory when no database is configured.
package memory

import (
	"context"
	"sync"

	"minidash/models"
	"minidash/ports"
)

// AnswerRepositoryImpl implements ports.AnswerRepository with a per-dashboard slice
type AnswerRepositoryImpl struct {
	mu          sync.RWMutex
	byDashboard map[string][]*models.Answer
}

// NewAnswerRepository creates an empty in-memory answer repository
func NewAnswerRepository() ports.AnswerRepository {
	return &AnswerRepositoryImpl{byDashboard: make(map[string][]*models.Answer)}
}

// SaveAnswers appends a submission
func (r *AnswerRepositoryImpl) SaveAnswers(ctx context.Context, answers []*models.Answer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range answers {
		stored := *a
		r.byDashboard[a.DashboardID] = append(r.byDashboard[a.DashboardID], &stored)
	}
	return nil
}

// ListRecentAnswers returns up to limit answers, newest first. limit <= 0 means all.
func (r *AnswerRepositoryImpl) ListRecentAnswers(ctx context.Context, dashboardID string, limit int) ([]*models.Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.byDashboard[dashboardID]
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	out := make([]*models.Answer, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		a := *all[i]
		out = append(out, &a)
	}
	return out, nil
}
