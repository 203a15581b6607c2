package model

import (
	"time"

	"github.com/google/uuid"
)

// ProgressStatus enumerates a student's standing inside an activity.
type ProgressStatus string

const (
	ProgressPending    ProgressStatus = "pending"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
)

// StudentProgress tracks one student's advance through one activity.
type StudentProgress struct {
	ID         uuid.UUID      `json:"id"`
	StudentID  int            `json:"student_id"`
	ActivityID uuid.UUID      `json:"activity_id"`
	Status     ProgressStatus `json:"status"`
	Score      *float64       `json:"score,omitempty"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
