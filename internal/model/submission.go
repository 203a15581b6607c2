package model

import (
	"time"

	"github.com/google/uuid"
)

// Submission is the immutable historical record of one answered
// question. A student has at most one submission per question.
type Submission struct {
	ID           uuid.UUID `json:"id"`
	StudentID    int       `json:"student_id"`
	ActivityID   uuid.UUID `json:"activity_id"`
	QuestionID   uuid.UUID `json:"question_id"`
	Answer       Answer    `json:"answer"`
	IsCorrect    bool      `json:"is_correct"`
	PointsEarned int       `json:"points_earned"`
	WalletUsed   *int      `json:"wallet_used,omitempty"`
	SubmittedAt  time.Time `json:"submitted_at"`
}
