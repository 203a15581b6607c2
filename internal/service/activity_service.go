package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lumilearn/activity-backend/internal/config"
	"github.com/lumilearn/activity-backend/internal/engine"
	"github.com/lumilearn/activity-backend/internal/model"
	"github.com/lumilearn/activity-backend/internal/repository"
)

// Domain Errors
var (
	ErrActivityNotAvailable = errors.New("activity is not available to students")
	ErrNoQuestions          = errors.New("activity has no questions")
)

// QuestionKey is the cached grading data for one question.
type QuestionKey struct {
	OptionID  *uuid.UUID         `json:"option_id,omitempty"`
	Pairs     map[string]PairKey `json:"pairs,omitempty"`
	Tiles     map[string]TileKey `json:"tiles,omitempty"`
	MaxPoints int                `json:"max_points"`
	Wallet    int                `json:"wallet,omitempty"`
}

// PairKey is the grading data for one pair row, keyed by anchor id.
type PairKey struct {
	RightID string `json:"right_id"`
	Points  int    `json:"points"`
}

// TileKey is the grading data for one spatial tile.
type TileKey struct {
	Positions []string `json:"positions"`
	Points    int      `json:"points"`
}

// ActivityService handles activity business logic and Redis caching.
type ActivityService struct {
	activityRepo *repository.ActivityRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewActivityService creates a new ActivityService.
func NewActivityService(
	activityRepo *repository.ActivityRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "activity_service").Logger(),
	}
}

// GetByID retrieves an activity by its UUID.
func (s *ActivityService) GetByID(ctx context.Context, id uuid.UUID) (*model.Activity, error) {
	return s.activityRepo.GetByID(ctx, id)
}

// GetLobby retrieves every visible activity with the student's own
// progress attached.
func (s *ActivityService) GetLobby(ctx context.Context, studentID int) ([]model.ActivitySummary, error) {
	summaries, err := s.activityRepo.ListVisible(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []model.ActivitySummary{}
	}
	return summaries, nil
}

// Snapshot loads everything the engine needs to rebuild one student's
// attempt: the activity, its full question catalogs and the student's
// submissions.
func (s *ActivityService) Snapshot(ctx context.Context, activityID uuid.UUID, subs []*model.Submission) (*engine.Snapshot, error) {
	activity, err := s.activityRepo.GetByID(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if activity.Status == model.ActivityStatusDraft {
		return nil, ErrActivityNotAvailable
	}
	questions, err := s.questionRepo.ListByActivity(ctx, activityID, activity.Shape)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return &engine.Snapshot{Activity: activity, Questions: questions, Submissions: subs}, nil
}

// WarmActivityCache loads an activity's payload and answer key from
// PostgreSQL into Redis. The payload is the sanitized student view;
// the key hash holds one grading record per question.
func (s *ActivityService) WarmActivityCache(ctx context.Context, activity *model.Activity) error {
	questions, err := s.questionRepo.ListByActivity(ctx, activity.ID, activity.Shape)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	payload := model.ActivityPayload{
		ActivityID:  activity.ID,
		Name:        activity.Name,
		Description: activity.Description,
		Shape:       activity.Shape,
		Status:      activity.Status,
	}
	for _, q := range questions {
		payload.Questions = append(payload.Questions, q.ForStudent())
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	answerKey := make(map[string]interface{}, len(questions))
	for _, q := range questions {
		key := buildQuestionKey(activity.Shape, q)
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return fmt.Errorf("marshal question key: %w", err)
		}
		answerKey[q.ID.String()] = keyJSON
	}

	// Cache both atomically via pipeline.
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.ActivityPayloadKey(activity.ID.String()), payloadJSON, 0)
	pipe.Del(ctx, config.CacheKey.ActivityAnswerKey(activity.ID.String()))
	pipe.HSet(ctx, config.CacheKey.ActivityAnswerKey(activity.ID.String()), answerKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("activity_id", activity.ID.String()).
		Int("questions", len(questions)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads every visible activity into Redis on
// application startup, so no request pays the lazy-load cost.
func (s *ActivityService) PrewarmAllCaches(ctx context.Context) error {
	ids, err := s.activityRepo.ListPublishedIDs(ctx)
	if err != nil {
		return fmt.Errorf("list published activities: %w", err)
	}
	if len(ids) == 0 {
		s.log.Info().Msg("No published activities to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(ids)).Msg("Prewarming published activities...")

	warmed := 0
	for _, id := range ids {
		activity, err := s.activityRepo.GetByID(ctx, id)
		if err == nil {
			err = s.WarmActivityCache(ctx, activity)
		}
		if err != nil {
			s.log.Warn().
				Err(err).
				Str("activity_id", id.String()).
				Msg("Failed to warm activity, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(ids)).
		Msg("Prewarming complete")
	return nil
}

// GetActivityPayload retrieves the cached student payload, falling
// back to a warm-and-retry when the cache is cold.
func (s *ActivityService) GetActivityPayload(ctx context.Context, activityID uuid.UUID) (*model.ActivityPayload, error) {
	key := config.CacheKey.ActivityPayloadKey(activityID.String())
	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		activity, gerr := s.activityRepo.GetByID(ctx, activityID)
		if gerr != nil {
			return nil, gerr
		}
		if activity.Status == model.ActivityStatusDraft {
			return nil, ErrActivityNotAvailable
		}
		if werr := s.WarmActivityCache(ctx, activity); werr != nil {
			return nil, werr
		}
		data, err = s.rdb.Get(ctx, key).Bytes()
	}
	if err != nil {
		return nil, fmt.Errorf("get payload: %w", err)
	}

	var payload model.ActivityPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &payload, nil
}

// GetAnswerKey retrieves the cached grading records for an activity.
func (s *ActivityService) GetAnswerKey(ctx context.Context, activityID uuid.UUID) (map[uuid.UUID]QuestionKey, error) {
	key := config.CacheKey.ActivityAnswerKey(activityID.String())
	raw, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("get answer key: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("answer key not found in cache")
	}

	out := make(map[uuid.UUID]QuestionKey, len(raw))
	for id, blob := range raw {
		qid, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse question id %q: %w", id, err)
		}
		var qk QuestionKey
		if err := json.Unmarshal([]byte(blob), &qk); err != nil {
			return nil, fmt.Errorf("unmarshal question key: %w", err)
		}
		out[qid] = qk
	}
	return out, nil
}

func buildQuestionKey(shape model.Shape, q *model.Question) QuestionKey {
	key := QuestionKey{Wallet: q.WalletPoints}
	switch shape {
	case model.ShapePairMatch:
		key.Pairs = make(map[string]PairKey, len(q.PairOptions))
		for _, row := range q.PairOptions {
			key.Pairs[row.LeftID.String()] = PairKey{RightID: row.RightID.String(), Points: row.Points}
			key.MaxPoints += row.Points
		}
	case model.ShapeSpatial:
		key.Tiles = make(map[string]TileKey, len(q.SpatialTiles))
		for _, t := range q.SpatialTiles {
			key.Tiles[t.ID.String()] = TileKey{Positions: t.CorrectPositions, Points: t.Points}
			key.MaxPoints += t.Points
		}
	default:
		for _, o := range q.ChoiceOptions {
			if o.IsCorrect {
				id := o.ID
				key.OptionID = &id
				key.MaxPoints = o.Points
				break
			}
		}
	}
	return key
}
