package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"minidash/internal/errors"
	"minidash/internal/migration"
	"minidash/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	db, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.NewRunner().Run(context.Background(), db))
	return db
}

func TestAnswerRepositoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewAnswerRepository(db)

	dashboardID := "test-" + uuid.NewString()[:8]
	t.Cleanup(func() {
		db.Exec(`DELETE FROM activity_answers WHERE dashboard_id = $1`, dashboardID)
	})

	base := time.Now().UTC().Truncate(time.Second)
	first := uuid.New()
	older := []*models.Answer{
		models.NewAnswer(first, dashboardID, "q1", "Engineering has the most students"),
		models.NewAnswer(first, dashboardID, "q2", "Semester A"),
	}
	for _, a := range older {
		a.CreatedAt = base.Add(-time.Hour)
	}
	newer := models.NewAnswer(uuid.New(), dashboardID, "q1", "Finance")
	newer.CreatedAt = base

	require.NoError(t, repo.SaveAnswers(ctx, older))
	require.NoError(t, repo.SaveAnswers(ctx, []*models.Answer{newer}))
	require.NoError(t, repo.SaveAnswers(ctx, nil))

	got, err := repo.ListRecentAnswers(ctx, dashboardID, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, "Finance", got[0].Text)
	assert.Equal(t, "q1", got[1].QuestionKey)
	assert.Equal(t, "q2", got[2].QuestionKey)
	assert.Equal(t, first, got[1].SubmissionID)
	assert.True(t, base.Equal(got[0].CreatedAt))

	limited, err := repo.ListRecentAnswers(ctx, dashboardID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	other, err := repo.ListRecentAnswers(ctx, dashboardID+"-other", 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestAnswerRepositoryRollsBackFailedSubmission(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewAnswerRepository(db)

	dashboardID := "test-" + uuid.NewString()[:8]
	t.Cleanup(func() {
		db.Exec(`DELETE FROM activity_answers WHERE dashboard_id = $1`, dashboardID)
	})

	a := models.NewAnswer(uuid.New(), dashboardID, "q1", "first")
	dup := *a
	err := repo.SaveAnswers(ctx, []*models.Answer{a, &dup})
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))

	got, err := repo.ListRecentAnswers(ctx, dashboardID, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAnswerRepositoryReportsDatabaseErrors(t *testing.T) {
	db, err := sqlx.Open("postgres", "postgres://localhost/minidash?sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	repo := NewAnswerRepository(db)
	ctx := context.Background()

	err = repo.SaveAnswers(ctx, []*models.Answer{models.NewAnswer(uuid.New(), "enrollments", "q1", "x")})
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))

	_, err = repo.ListRecentAnswers(ctx, "enrollments", 5)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
	assert.Contains(t, err.Error(), "failed to list answers")
}
