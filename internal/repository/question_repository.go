package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumilearn/activity-backend/internal/model"
)

// QuestionRepository handles question and option-catalog data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByActivity retrieves an activity's questions in sequence order
// with the option catalog matching the activity's shape attached.
func (r *QuestionRepository) ListByActivity(ctx context.Context, activityID uuid.UUID, shape model.Shape) ([]*model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, activity_id, title, description, sequence, rows, cols, wallet_points
		 FROM questions WHERE activity_id = $1 ORDER BY sequence`, activityID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []*model.Question
	index := make(map[uuid.UUID]*model.Question)
	for rows.Next() {
		q := &model.Question{}
		if err := rows.Scan(&q.ID, &q.ActivityID, &q.Title, &q.Description, &q.Sequence, &q.Rows, &q.Cols, &q.WalletPoints); err != nil {
			return nil, err
		}
		questions = append(questions, q)
		index[q.ID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return questions, nil
	}

	switch shape {
	case model.ShapePairMatch:
		err = r.attachPairOptions(ctx, activityID, index)
	case model.ShapeSpatial:
		err = r.attachSpatial(ctx, activityID, index)
	default:
		err = r.attachChoiceOptions(ctx, activityID, index)
	}
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *QuestionRepository) attachChoiceOptions(ctx context.Context, activityID uuid.UUID, index map[uuid.UUID]*model.Question) error {
	rows, err := r.pool.Query(ctx,
		`SELECT o.id, o.question_id, o.text, o.image, o.is_correct, o.points, o.sequence
		 FROM choice_options o
		 JOIN questions q ON q.id = o.question_id
		 WHERE q.activity_id = $1
		 ORDER BY o.sequence`, activityID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var o model.ChoiceOption
		var questionID uuid.UUID
		if err := rows.Scan(&o.ID, &questionID, &o.Text, &o.Image, &o.IsCorrect, &o.Points, &o.Sequence); err != nil {
			return err
		}
		if q, ok := index[questionID]; ok {
			q.ChoiceOptions = append(q.ChoiceOptions, o)
		}
	}
	return rows.Err()
}

func (r *QuestionRepository) attachPairOptions(ctx context.Context, activityID uuid.UUID, index map[uuid.UUID]*model.Question) error {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.question_id, p.left_id, p.right_id,
		        p.left_text, p.left_image, p.right_text, p.right_image, p.points, p.sequence
		 FROM pair_options p
		 JOIN questions q ON q.id = p.question_id
		 WHERE q.activity_id = $1
		 ORDER BY p.sequence`, activityID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p model.PairOption
		var questionID uuid.UUID
		if err := rows.Scan(&p.ID, &questionID, &p.LeftID, &p.RightID,
			&p.LeftText, &p.LeftImage, &p.RightText, &p.RightImage, &p.Points, &p.Sequence); err != nil {
			return err
		}
		if q, ok := index[questionID]; ok {
			q.PairOptions = append(q.PairOptions, p)
		}
	}
	return rows.Err()
}

func (r *QuestionRepository) attachSpatial(ctx context.Context, activityID uuid.UUID, index map[uuid.UUID]*model.Question) error {
	cellRows, err := r.pool.Query(ctx,
		`SELECT c.id, c.question_id, c.position, c.label, c.image, c.sequence
		 FROM spatial_cells c
		 JOIN questions q ON q.id = c.question_id
		 WHERE q.activity_id = $1
		 ORDER BY c.sequence`, activityID,
	)
	if err != nil {
		return err
	}
	defer cellRows.Close()

	for cellRows.Next() {
		var c model.SpatialCell
		var questionID uuid.UUID
		if err := cellRows.Scan(&c.ID, &questionID, &c.Position, &c.Label, &c.Image, &c.Sequence); err != nil {
			return err
		}
		if q, ok := index[questionID]; ok {
			q.SpatialCells = append(q.SpatialCells, c)
		}
	}
	if err := cellRows.Err(); err != nil {
		return err
	}

	tileRows, err := r.pool.Query(ctx,
		`SELECT t.id, t.question_id, t.text, t.image, t.points, t.correct_positions, t.sequence
		 FROM spatial_tiles t
		 JOIN questions q ON q.id = t.question_id
		 WHERE q.activity_id = $1
		 ORDER BY t.sequence`, activityID,
	)
	if err != nil {
		return err
	}
	defer tileRows.Close()

	for tileRows.Next() {
		var t model.SpatialTile
		var questionID uuid.UUID
		if err := tileRows.Scan(&t.ID, &questionID, &t.Text, &t.Image, &t.Points, &t.CorrectPositions, &t.Sequence); err != nil {
			return err
		}
		if q, ok := index[questionID]; ok {
			q.SpatialTiles = append(q.SpatialTiles, t)
		}
	}
	return tileRows.Err()
}
