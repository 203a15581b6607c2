package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumilearn/activity-backend/internal/model"
)

// ErrDuplicateSubmission means a submission for this question already
// exists; submissions are immutable once written.
var ErrDuplicateSubmission = errors.New("question already has a submission")

// SubmissionRepository handles answer record data access.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Create writes a submission and its answer detail rows in one
// transaction. The unique (student_id, question_id) index plus
// ON CONFLICT DO NOTHING makes the write at most once: a concurrent
// duplicate comes back as ErrDuplicateSubmission instead of a second
// record.
func (r *SubmissionRepository) Create(ctx context.Context, sub *model.Submission) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO submissions (student_id, activity_id, question_id, option_id, is_correct, points_earned, wallet_used)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (student_id, question_id) DO NOTHING
		 RETURNING id, submitted_at`,
		sub.StudentID, sub.ActivityID, sub.QuestionID, sub.Answer.OptionID,
		sub.IsCorrect, sub.PointsEarned, sub.WalletUsed,
	).Scan(&sub.ID, &sub.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDuplicateSubmission
	}
	if err != nil {
		return err
	}

	for i, p := range sub.Answer.Pairs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO submission_pairs (submission_id, left_id, right_id, seq)
			 VALUES ($1, $2, $3, $4)`,
			sub.ID, p.LeftID, p.RightID, i,
		); err != nil {
			return err
		}
	}
	for i, p := range sub.Answer.Placements {
		if _, err := tx.Exec(ctx,
			`INSERT INTO submission_placements (submission_id, tile_id, position, seq)
			 VALUES ($1, $2, $3, $4)`,
			sub.ID, p.TileID, p.Position, i,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ListByStudentActivity retrieves a student's submissions for one
// activity with their answer details, in question sequence order.
// Detail rows keep their original seq so replay reproduces the same
// ordering the student produced.
func (r *SubmissionRepository) ListByStudentActivity(ctx context.Context, studentID int, activityID uuid.UUID) ([]*model.Submission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.student_id, s.activity_id, s.question_id, s.option_id,
		        s.is_correct, s.points_earned, s.wallet_used, s.submitted_at
		 FROM submissions s
		 JOIN questions q ON q.id = s.question_id
		 WHERE s.student_id = $1 AND s.activity_id = $2
		 ORDER BY q.sequence`, studentID, activityID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*model.Submission
	index := make(map[uuid.UUID]*model.Submission)
	for rows.Next() {
		s := &model.Submission{}
		if err := rows.Scan(&s.ID, &s.StudentID, &s.ActivityID, &s.QuestionID, &s.Answer.OptionID,
			&s.IsCorrect, &s.PointsEarned, &s.WalletUsed, &s.SubmittedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
		index[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return subs, nil
	}

	pairRows, err := r.pool.Query(ctx,
		`SELECT sp.submission_id, sp.left_id, sp.right_id
		 FROM submission_pairs sp
		 JOIN submissions s ON s.id = sp.submission_id
		 WHERE s.student_id = $1 AND s.activity_id = $2
		 ORDER BY sp.seq`, studentID, activityID,
	)
	if err != nil {
		return nil, err
	}
	defer pairRows.Close()

	for pairRows.Next() {
		var subID uuid.UUID
		var p model.PairSelection
		if err := pairRows.Scan(&subID, &p.LeftID, &p.RightID); err != nil {
			return nil, err
		}
		if s, ok := index[subID]; ok {
			s.Answer.Pairs = append(s.Answer.Pairs, p)
		}
	}
	if err := pairRows.Err(); err != nil {
		return nil, err
	}

	placementRows, err := r.pool.Query(ctx,
		`SELECT sp.submission_id, sp.tile_id, sp.position
		 FROM submission_placements sp
		 JOIN submissions s ON s.id = sp.submission_id
		 WHERE s.student_id = $1 AND s.activity_id = $2
		 ORDER BY sp.seq`, studentID, activityID,
	)
	if err != nil {
		return nil, err
	}
	defer placementRows.Close()

	for placementRows.Next() {
		var subID uuid.UUID
		var p model.Placement
		if err := placementRows.Scan(&subID, &p.TileID, &p.Position); err != nil {
			return nil, err
		}
		if s, ok := index[subID]; ok {
			s.Answer.Placements = append(s.Answer.Placements, p)
		}
	}
	return subs, placementRows.Err()
}

// CountByStudentActivity returns how many questions the student has
// answered in the activity.
func (r *SubmissionRepository) CountByStudentActivity(ctx context.Context, studentID int, activityID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM submissions WHERE student_id = $1 AND activity_id = $2`,
		studentID, activityID,
	).Scan(&n)
	return n, err
}

// SumPointsByStudentActivity totals the points earned across an
// activity, used for the final score.
func (r *SubmissionRepository) SumPointsByStudentActivity(ctx context.Context, studentID int, activityID uuid.UUID) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(points_earned), 0) FROM submissions WHERE student_id = $1 AND activity_id = $2`,
		studentID, activityID,
	).Scan(&total)
	return total, err
}
