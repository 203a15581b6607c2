package model

import (
	"time"

	"github.com/google/uuid"
)

// Shape identifies the answer capture mechanic of an activity.
type Shape string

const (
	ShapeSingleChoice Shape = "mcq"
	ShapePairMatch    Shape = "match_pair"
	ShapeSpatial      Shape = "drag_and_drop"
)

// ActivityStatus enumerates the lifecycle states of an activity.
type ActivityStatus string

const (
	ActivityStatusDraft     ActivityStatus = "draft"
	ActivityStatusPublished ActivityStatus = "published"
	ActivityStatusPast      ActivityStatus = "past"
)

// Activity is an ordered unit of work inside a lesson. All questions of
// an activity share the same shape.
type Activity struct {
	ID          uuid.UUID      `json:"id"`
	LessonID    uuid.UUID      `json:"lesson_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Sequence    int            `json:"sequence"`
	Shape       Shape          `json:"shape"`
	Status      ActivityStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ActivitySummary is the lobby listing entry for a student, carrying
// the student's own progress alongside the activity metadata.
type ActivitySummary struct {
	Activity
	QuestionCount int            `json:"question_count"`
	Progress      ProgressStatus `json:"progress"`
	Score         *float64       `json:"score,omitempty"`
}
