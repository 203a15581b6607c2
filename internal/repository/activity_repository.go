package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumilearn/activity-backend/internal/model"
)

var ErrActivityNotFound = errors.New("activity not found")

// ActivityRepository handles activity data access.
type ActivityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

// GetByID retrieves an activity by ID.
func (r *ActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Activity, error) {
	a := &model.Activity{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, lesson_id, name, description, sequence, shape, status, created_at, updated_at
		 FROM activities WHERE id = $1`, id,
	).Scan(&a.ID, &a.LessonID, &a.Name, &a.Description, &a.Sequence, &a.Shape, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListVisible retrieves every non-draft activity in lesson and
// sequence order, joined with the student's progress and question
// counts for the lobby listing.
func (r *ActivityRepository) ListVisible(ctx context.Context, studentID int) ([]model.ActivitySummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.lesson_id, a.name, a.description, a.sequence, a.shape, a.status,
		        a.created_at, a.updated_at,
		        COUNT(q.id) AS question_count,
		        COALESCE(sp.status, 'pending') AS progress,
		        sp.score
		 FROM activities a
		 LEFT JOIN questions q ON q.activity_id = a.id
		 LEFT JOIN student_progress sp ON sp.activity_id = a.id AND sp.student_id = $1
		 WHERE a.status <> 'draft'
		 GROUP BY a.id, sp.status, sp.score
		 ORDER BY a.lesson_id, a.sequence`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ActivitySummary
	for rows.Next() {
		var s model.ActivitySummary
		if err := rows.Scan(
			&s.ID, &s.LessonID, &s.Name, &s.Description, &s.Sequence, &s.Shape, &s.Status,
			&s.CreatedAt, &s.UpdatedAt, &s.QuestionCount, &s.Progress, &s.Score,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListPublishedIDs returns the ids of every activity students can
// currently open, used for cache prewarming at boot.
func (r *ActivityRepository) ListPublishedIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM activities WHERE status <> 'draft' ORDER BY lesson_id, sequence`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
