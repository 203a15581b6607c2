package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lumilearn/activity-backend/internal/config"
	"github.com/lumilearn/activity-backend/internal/engine"
	"github.com/lumilearn/activity-backend/internal/engine/capture"
	"github.com/lumilearn/activity-backend/internal/model"
	"github.com/lumilearn/activity-backend/internal/repository"
)

var ErrInvalidAnswerIDs = errors.New("answer references ids not in the question")

// AnswerRecord is the client-safe form of a historical submission. The
// verdict is regraded from the cached answer key so it carries the
// same reveal and per-item outcomes the student saw live.
type AnswerRecord struct {
	QuestionID  uuid.UUID      `json:"question_id"`
	Answer      model.Answer   `json:"answer"`
	Verdict     *model.Verdict `json:"verdict"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// AttemptState is everything the client needs to resume or review an
// activity: the sanitized payload, answer records, and the resume
// position. Questions without a record carry no verdict data at all.
type AttemptState struct {
	Activity *model.ActivityPayload  `json:"activity"`
	Phase    engine.Phase            `json:"phase"`
	Resume   int                     `json:"resume_index"`
	ViewOnly bool                    `json:"view_only"`
	// FreeNavigation is set on a brand-new attempt, before any answer
	// or progress row exists; the client may then open any question.
	FreeNavigation bool                    `json:"free_navigation"`
	Records        []AnswerRecord          `json:"records"`
	Drafts         map[string]model.Answer `json:"drafts,omitempty"`
}

// AttemptService runs the answer path shared by the REST and
// websocket surfaces.
type AttemptService struct {
	activitySvc    *ActivityService
	gradingSvc     *GradingService
	submissionRepo *repository.SubmissionRepository
	progressRepo   *repository.ProgressRepository
	rdb            *redis.Client
	log            zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	activitySvc *ActivityService,
	gradingSvc *GradingService,
	submissionRepo *repository.SubmissionRepository,
	progressRepo *repository.ProgressRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		activitySvc:    activitySvc,
		gradingSvc:     gradingSvc,
		submissionRepo: submissionRepo,
		progressRepo:   progressRepo,
		rdb:            rdb,
		log:            log.With().Str("component", "attempt_service").Logger(),
	}
}

// State rebuilds a student's attempt for the activity view. It is a
// read; calling it repeatedly returns the same position and records.
func (s *AttemptService) State(ctx context.Context, studentID int, activityID uuid.UUID) (*AttemptState, error) {
	subs, err := s.submissionRepo.ListByStudentActivity(ctx, studentID, activityID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	snap, err := s.activitySvc.Snapshot(ctx, activityID, subs)
	if err != nil {
		return nil, err
	}
	payload, err := s.activitySvc.GetActivityPayload(ctx, activityID)
	if err != nil {
		return nil, err
	}

	verdicts, err := s.gradingSvc.Reverdict(ctx, snap.Activity, subs)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(snap.Questions))
	for i, q := range snap.Questions {
		ids[i] = q.ID
	}
	seq := engine.NewSequencer(ids)
	records := make([]AnswerRecord, 0, len(subs))
	for _, sub := range subs {
		seq.MarkSubmitted(sub.QuestionID)
		verdict := verdicts[sub.QuestionID]
		if verdict == nil {
			verdict = &model.Verdict{
				QuestionID:   sub.QuestionID,
				IsCorrect:    sub.IsCorrect,
				PointsEarned: sub.PointsEarned,
			}
		}
		records = append(records, AnswerRecord{
			QuestionID:  sub.QuestionID,
			Answer:      sub.Answer,
			Verdict:     verdict,
			SubmittedAt: sub.SubmittedAt,
		})
	}

	state := &AttemptState{
		Activity:       payload,
		Phase:          seq.Phase(),
		Resume:         seq.Resume(),
		ViewOnly: snap.Activity.Status == model.ActivityStatusPast,
		Records:  records,
	}
	if !state.ViewOnly && len(subs) == 0 {
		progress, perr := s.progressRepo.Get(ctx, studentID, activityID)
		if perr != nil {
			s.log.Warn().Err(perr).Msg("Failed to load progress")
		} else {
			state.FreeNavigation = progress == nil
		}
	}
	if !state.ViewOnly {
		drafts, err := s.GetDrafts(ctx, studentID, activityID)
		if err != nil {
			s.log.Warn().Err(err).Msg("Failed to load drafts")
		} else {
			state.Drafts = drafts
		}
	}
	return state, nil
}

// Session builds a live engine session for the websocket stream.
func (s *AttemptService) Session(ctx context.Context, studentID int, activityID uuid.UUID, log zerolog.Logger) (*engine.Session, error) {
	subs, err := s.submissionRepo.ListByStudentActivity(ctx, studentID, activityID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	snap, err := s.activitySvc.Snapshot(ctx, activityID, subs)
	if err != nil {
		return nil, err
	}
	snap.Verdicts, err = s.gradingSvc.Reverdict(ctx, snap.Activity, subs)
	if err != nil {
		return nil, err
	}

	cfg := engine.Config{ViewOnly: snap.Activity.Status == model.ActivityStatusPast}
	if !cfg.ViewOnly && len(subs) == 0 {
		progress, perr := s.progressRepo.Get(ctx, studentID, activityID)
		if perr != nil {
			return nil, fmt.Errorf("get progress: %w", perr)
		}
		cfg.FreeNavigation = progress == nil
	}
	grader := s.gradingSvc.ForAttempt(studentID, snap.Activity, len(snap.Questions))
	return engine.NewSession(cfg, *snap, grader, log)
}

// SubmitAnswer validates and grades one answer over HTTP. The answer
// is replayed through the question's capture unit first, so id
// validation and completeness rules match the live session exactly.
func (s *AttemptService) SubmitAnswer(ctx context.Context, studentID int, activityID, questionID uuid.UUID, answer model.Answer) (*model.Verdict, error) {
	subs, err := s.submissionRepo.ListByStudentActivity(ctx, studentID, activityID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	for _, sub := range subs {
		if sub.QuestionID == questionID {
			return nil, engine.ErrAlreadySubmitted
		}
	}

	snap, err := s.activitySvc.Snapshot(ctx, activityID, subs)
	if err != nil {
		return nil, err
	}
	if snap.Activity.Status == model.ActivityStatusPast {
		return nil, engine.ErrViewOnly
	}

	var question *model.Question
	for _, q := range snap.Questions {
		if q.ID == questionID {
			question = q
			break
		}
	}
	if question == nil {
		return nil, ErrUnknownQuestion
	}

	unit := capture.ForQuestion(question, snap.Activity.Shape, nil, false)
	if skipped := unit.Restore(answer); skipped > 0 {
		return nil, ErrInvalidAnswerIDs
	}
	if !unit.Complete() {
		return nil, engine.ErrIncompleteAnswer
	}

	verdict, err := s.gradingSvc.Grade(ctx, studentID, snap.Activity, len(snap.Questions), questionID, unit.Answer())
	if err != nil {
		return nil, err
	}
	// The draft is superseded by the record.
	if derr := s.DeleteDraft(ctx, studentID, activityID, questionID); derr != nil {
		s.log.Warn().Err(derr).Msg("Failed to clear draft")
	}
	return verdict, nil
}

// SaveDraft stores an unsubmitted working answer so a reconnecting
// client can pick up mid-question.
func (s *AttemptService) SaveDraft(ctx context.Context, studentID int, activityID, questionID uuid.UUID, answer model.Answer) error {
	blob, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	key := config.CacheKey.StudentDraftKey(activityID.String(), studentID)
	return s.rdb.HSet(ctx, key, questionID.String(), blob).Err()
}

// GetDrafts loads all unsubmitted working answers for an activity.
func (s *AttemptService) GetDrafts(ctx context.Context, studentID int, activityID uuid.UUID) (map[string]model.Answer, error) {
	key := config.CacheKey.StudentDraftKey(activityID.String(), studentID)
	raw, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.Answer, len(raw))
	for id, blob := range raw {
		var a model.Answer
		if err := json.Unmarshal([]byte(blob), &a); err != nil {
			s.log.Warn().Str("question_id", id).Msg("Dropping unreadable draft")
			continue
		}
		out[id] = a
	}
	return out, nil
}

// DeleteDraft removes one question's draft.
func (s *AttemptService) DeleteDraft(ctx context.Context, studentID int, activityID, questionID uuid.UUID) error {
	key := config.CacheKey.StudentDraftKey(activityID.String(), studentID)
	return s.rdb.HDel(ctx, key, questionID.String()).Err()
}
