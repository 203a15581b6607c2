package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumilearn/activity-backend/internal/model"
)

// ProgressRepository handles student progress data access.
type ProgressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

// Get retrieves a student's progress for one activity. A missing row
// is returned as nil, not an error; it simply means not started.
func (r *ProgressRepository) Get(ctx context.Context, studentID int, activityID uuid.UUID) (*model.StudentProgress, error) {
	p := &model.StudentProgress{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, student_id, activity_id, status, score, started_at, finished_at, updated_at
		 FROM student_progress
		 WHERE student_id = $1 AND activity_id = $2`, studentID, activityID,
	).Scan(&p.ID, &p.StudentID, &p.ActivityID, &p.Status, &p.Score, &p.StartedAt, &p.FinishedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Start marks the activity as in progress, keeping the original
// started_at if the row already exists.
func (r *ProgressRepository) Start(ctx context.Context, studentID int, activityID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO student_progress (student_id, activity_id, status, started_at)
		 VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		 ON CONFLICT (student_id, activity_id) DO UPDATE
		 SET status = EXCLUDED.status, updated_at = CURRENT_TIMESTAMP
		 WHERE student_progress.status = 'pending'`,
		studentID, activityID, model.ProgressInProgress,
	)
	return err
}

// Complete marks the activity finished with its final score.
func (r *ProgressRepository) Complete(ctx context.Context, studentID int, activityID uuid.UUID, score float64) error {
	now := time.Now()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO student_progress (student_id, activity_id, status, score, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (student_id, activity_id) DO UPDATE
		 SET status = EXCLUDED.status, score = EXCLUDED.score,
		     finished_at = EXCLUDED.finished_at, updated_at = CURRENT_TIMESTAMP`,
		studentID, activityID, model.ProgressCompleted, score, now,
	)
	return err
}

// CompleteBatch flushes a batch of completions in one statement using
// UNNEST, for the background progress worker.
func (r *ProgressRepository) CompleteBatch(ctx context.Context, studentIDs []int, activityIDs []uuid.UUID, scores []float64) error {
	if len(studentIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO student_progress (student_id, activity_id, status, score, started_at, finished_at)
		 SELECT s, a, 'completed', sc, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
		 FROM UNNEST($1::int[], $2::uuid[], $3::float8[]) AS t(s, a, sc)
		 ON CONFLICT (student_id, activity_id) DO UPDATE
		 SET status = EXCLUDED.status, score = EXCLUDED.score,
		     finished_at = EXCLUDED.finished_at, updated_at = CURRENT_TIMESTAMP`,
		studentIDs, activityIDs, scores,
	)
	return err
}
