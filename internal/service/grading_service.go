package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lumilearn/activity-backend/internal/config"
	"github.com/lumilearn/activity-backend/internal/engine"
	"github.com/lumilearn/activity-backend/internal/model"
	"github.com/lumilearn/activity-backend/internal/repository"
)

var ErrUnknownQuestion = errors.New("question does not belong to this activity")

// CompletionEvent is the payload queued and published when a student
// finishes an activity.
type CompletionEvent struct {
	StudentID  int       `json:"student_id"`
	ActivityID uuid.UUID `json:"activity_id"`
	Score      float64   `json:"score"`
}

// GradingService reconciles answers against the cached answer key,
// writes the immutable submission record, and fires completion events.
type GradingService struct {
	activitySvc    *ActivityService
	submissionRepo *repository.SubmissionRepository
	progressRepo   *repository.ProgressRepository
	rdb            *redis.Client
	log            zerolog.Logger
}

// NewGradingService creates a new GradingService.
func NewGradingService(
	activitySvc *ActivityService,
	submissionRepo *repository.SubmissionRepository,
	progressRepo *repository.ProgressRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *GradingService {
	return &GradingService{
		activitySvc:    activitySvc,
		submissionRepo: submissionRepo,
		progressRepo:   progressRepo,
		rdb:            rdb,
		log:            log.With().Str("component", "grading_service").Logger(),
	}
}

// ForAttempt binds the grader to one student's attempt so it can
// serve as the engine's answer sink.
func (s *GradingService) ForAttempt(studentID int, activity *model.Activity, questionCount int) engine.AnswerService {
	return &attemptGrader{svc: s, studentID: studentID, activity: activity, total: questionCount}
}

type attemptGrader struct {
	svc       *GradingService
	studentID int
	activity  *model.Activity
	total     int
}

func (g *attemptGrader) Submit(ctx context.Context, questionID uuid.UUID, answer model.Answer) (*model.Verdict, error) {
	return g.svc.Grade(ctx, g.studentID, g.activity, g.total, questionID, answer)
}

// Grade checks one answer against the key, persists the record, and
// returns the verdict. The record write is at most once; a duplicate
// surfaces as repository.ErrDuplicateSubmission and nothing changes.
func (s *GradingService) Grade(ctx context.Context, studentID int, activity *model.Activity, questionCount int, questionID uuid.UUID, answer model.Answer) (*model.Verdict, error) {
	keys, err := s.activitySvc.GetAnswerKey(ctx, activity.ID)
	if err != nil {
		return nil, fmt.Errorf("load answer key: %w", err)
	}
	qk, ok := keys[questionID]
	if !ok {
		return nil, ErrUnknownQuestion
	}

	verdict := reconcile(activity.Shape, questionID, qk, answer)

	sub := &model.Submission{
		StudentID:    studentID,
		ActivityID:   activity.ID,
		QuestionID:   questionID,
		Answer:       answer,
		IsCorrect:    verdict.IsCorrect,
		PointsEarned: verdict.PointsEarned,
	}
	if verdict.Wallet != nil {
		used := verdict.Wallet.Used
		sub.WalletUsed = &used
	}
	if err := s.submissionRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	if err := s.progressRepo.Start(ctx, studentID, activity.ID); err != nil {
		s.log.Warn().Err(err).
			Int("student_id", studentID).
			Str("activity_id", activity.ID.String()).
			Msg("Failed to mark activity in progress")
	}

	answered, err := s.submissionRepo.CountByStudentActivity(ctx, studentID, activity.ID)
	if err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}
	if answered >= questionCount {
		verdict.ActivityCompleted = true
		if err := s.recordCompletion(ctx, studentID, activity.ID, keys); err != nil {
			s.log.Error().Err(err).
				Int("student_id", studentID).
				Str("activity_id", activity.ID.String()).
				Msg("Failed to enqueue completion")
		}
	}
	return verdict, nil
}

// Reverdict rebuilds the full feedback for historical submissions
// from the cached answer key, persisting nothing. Resume and review
// need it because only correctness and points survive in the
// submission row; the revealed option and per-item outcomes are
// regraded from the same key that produced them.
func (s *GradingService) Reverdict(ctx context.Context, activity *model.Activity, subs []*model.Submission) (map[uuid.UUID]*model.Verdict, error) {
	if len(subs) == 0 {
		return nil, nil
	}
	keys, err := s.activitySvc.GetAnswerKey(ctx, activity.ID)
	if err != nil {
		return nil, fmt.Errorf("load answer key: %w", err)
	}
	out := make(map[uuid.UUID]*model.Verdict, len(subs))
	for _, sub := range subs {
		qk, ok := keys[sub.QuestionID]
		if !ok {
			s.log.Warn().
				Str("question_id", sub.QuestionID.String()).
				Msg("Submission references a question missing from the answer key")
			continue
		}
		out[sub.QuestionID] = reconcile(activity.Shape, sub.QuestionID, qk, sub.Answer)
	}
	return out, nil
}

// recordCompletion computes the final score, queues the persist job
// for the progress worker and publishes the completion event.
func (s *GradingService) recordCompletion(ctx context.Context, studentID int, activityID uuid.UUID, keys map[uuid.UUID]QuestionKey) error {
	earned, err := s.submissionRepo.SumPointsByStudentActivity(ctx, studentID, activityID)
	if err != nil {
		return fmt.Errorf("sum points: %w", err)
	}
	possible := 0
	for _, qk := range keys {
		possible += qk.MaxPoints
	}
	score := 0.0
	if possible > 0 {
		score = float64(earned) / float64(possible) * 100
	}

	event := CompletionEvent{StudentID: studentID, ActivityID: activityID, Score: score}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal completion: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.RPush(ctx, config.WorkerKey.PersistProgressQueue, payload)
	pipe.Publish(ctx, config.CacheKey.ActivityCompletionChannel(activityID.String()), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue completion: %w", err)
	}

	s.log.Info().
		Int("student_id", studentID).
		Str("activity_id", activityID.String()).
		Float64("score", score).
		Msg("Activity completed")
	return nil
}

// reconcile grades one answer. Coloring data (correct ids, per-row
// outcomes) is only ever produced here, as part of a verdict.
func reconcile(shape model.Shape, questionID uuid.UUID, qk QuestionKey, answer model.Answer) *model.Verdict {
	switch shape {
	case model.ShapePairMatch:
		return reconcilePairs(questionID, qk, answer)
	case model.ShapeSpatial:
		return reconcilePlacements(questionID, qk, answer)
	default:
		return reconcileChoice(questionID, qk, answer)
	}
}

func reconcileChoice(questionID uuid.UUID, qk QuestionKey, answer model.Answer) *model.Verdict {
	v := &model.Verdict{
		QuestionID:      questionID,
		MaxPoints:       qk.MaxPoints,
		CorrectOptionID: qk.OptionID,
	}
	if answer.OptionID != nil && qk.OptionID != nil && *answer.OptionID == *qk.OptionID {
		v.IsCorrect = true
		v.PointsEarned = qk.MaxPoints
	}
	return v
}

func reconcilePairs(questionID uuid.UUID, qk QuestionKey, answer model.Answer) *model.Verdict {
	v := &model.Verdict{QuestionID: questionID, MaxPoints: qk.MaxPoints}

	chosen := make(map[string]uuid.UUID, len(answer.Pairs))
	for _, p := range answer.Pairs {
		chosen[p.LeftID.String()] = p.RightID
	}

	// Stable row order for the per-row breakdown.
	anchors := make([]string, 0, len(qk.Pairs))
	for left := range qk.Pairs {
		anchors = append(anchors, left)
	}
	sort.Strings(anchors)

	allCorrect := len(qk.Pairs) > 0
	for _, left := range anchors {
		pk := qk.Pairs[left]
		leftID, _ := uuid.Parse(left)
		correctRight, _ := uuid.Parse(pk.RightID)
		row := model.PairResult{LeftID: leftID, CorrectRightID: correctRight}
		if right, ok := chosen[left]; ok {
			r := right
			row.RightID = &r
			row.IsCorrect = right == correctRight
		}
		if row.IsCorrect {
			v.PointsEarned += pk.Points
		} else {
			allCorrect = false
		}
		v.PairResults = append(v.PairResults, row)
	}
	v.IsCorrect = allCorrect
	return v
}

func reconcilePlacements(questionID uuid.UUID, qk QuestionKey, answer model.Answer) *model.Verdict {
	v := &model.Verdict{QuestionID: questionID, MaxPoints: qk.MaxPoints}

	walletUsed := 0
	allCorrect := len(answer.Placements) > 0
	for _, p := range answer.Placements {
		row := model.PlacementResult{TileID: p.TileID, Position: p.Position}
		if tk, ok := qk.Tiles[p.TileID.String()]; ok {
			walletUsed += tk.Points
			for _, pos := range tk.Positions {
				if pos == p.Position {
					row.IsCorrect = true
					row.PointsEarned = tk.Points
					break
				}
			}
		}
		if row.IsCorrect {
			v.PointsEarned += row.PointsEarned
		} else {
			allCorrect = false
		}
		v.PlacementResults = append(v.PlacementResults, row)
	}
	v.IsCorrect = allCorrect
	v.Wallet = &model.WalletInfo{
		Initial:   qk.Wallet,
		Used:      walletUsed,
		Remaining: max(0, qk.Wallet-walletUsed),
	}
	return v
}
