package models

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewAnswer(t *testing.T) {
	submission := uuid.New()
	a := NewAnswer(submission, "enrollments", "q1", "  Marketing  ")

	if a.ID == uuid.Nil {
		t.Fatal("expected an ID")
	}
	if a.SubmissionID != submission {
		t.Errorf("submission = %v, want %v", a.SubmissionID, submission)
	}
	if a.Text != "Marketing" {
		t.Errorf("text = %q, want trimmed", a.Text)
	}
	if a.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestAnswerTooLong(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"short", "Engineering", false},
		{"at limit", strings.Repeat("a", MaxAnswerRunes), false},
		{"multibyte at limit", strings.Repeat("í", MaxAnswerRunes), false},
		{"over limit", strings.Repeat("a", MaxAnswerRunes+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnswer(uuid.New(), "crimes", "insight", tt.text)
			if got := a.TooLong(); got != tt.want {
				t.Errorf("TooLong() = %v, want %v", got, tt.want)
			}
		})
	}
}
