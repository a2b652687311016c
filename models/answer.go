package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxAnswerRunes bounds a single free-text answer
const MaxAnswerRunes = 4000

// Answer is one response to a dashboard's bonus question. Answers sent together
// share a SubmissionID.
type Answer struct {
	ID           uuid.UUID `json:"id" db:"id"`
	SubmissionID uuid.UUID `json:"submission_id" db:"submission_id"`
	DashboardID  string    `json:"dashboard_id" db:"dashboard_id"`
	QuestionKey  string    `json:"question_key" db:"question_key"`
	Text         string    `json:"text" db:"text"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// NewAnswer creates an answer stamped with a fresh ID and the current time
func NewAnswer(submissionID uuid.UUID, dashboardID, questionKey, text string) *Answer {
	return &Answer{
		ID:           uuid.New(),
		SubmissionID: submissionID,
		DashboardID:  dashboardID,
		QuestionKey:  questionKey,
		Text:         strings.TrimSpace(text),
		CreatedAt:    time.Now().UTC(),
	}
}

// TooLong reports whether the text exceeds MaxAnswerRunes
func (a *Answer) TooLong() bool {
	return utf8.RuneCountInString(a.Text) > MaxAnswerRunes
}
