package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/lumilearn/activity-backend/internal/config"
	"github.com/lumilearn/activity-backend/internal/repository"
	"github.com/lumilearn/activity-backend/internal/service"
)

const (
	ProgressBatchSize    = 50
	ProgressBatchTimeout = 2 * time.Second
	ProgressPollTimeout  = 1 * time.Second
)

// ProgressWorker drains completion events off the Redis queue and
// persists them to student_progress in batches. Grading stays on the
// hot path; this write does not.
type ProgressWorker struct {
	progressRepo *repository.ProgressRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewProgressWorker creates a new ProgressWorker.
func NewProgressWorker(progressRepo *repository.ProgressRepository, rdb *redis.Client, log zerolog.Logger) *ProgressWorker {
	return &ProgressWorker{
		progressRepo: progressRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "progress_worker").Logger(),
	}
}

// Start runs the worker loop until the context is cancelled. The
// remaining batch is flushed on shutdown.
func (w *ProgressWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ProgressWorker started")

	batch := make([]*service.CompletionEvent, 0, ProgressBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ProgressBatchSize || time.Since(lastFlush) >= ProgressBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ProgressPollTimeout, config.WorkerKey.PersistProgressQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var ev service.CompletionEvent
			if err := json.Unmarshal([]byte(item[1]), &ev); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &ev)
		}
	}
}

// flushSafe persists a batch, falling back to per-event writes and
// requeueing whatever still fails.
func (w *ProgressWorker) flushSafe(ctx context.Context, batch []*service.CompletionEvent) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkComplete(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk progress update failed, using fallback")

		for _, ev := range batch {
			if err := w.progressRepo.Complete(ctx, ev.StudentID, ev.ActivityID, ev.Score); err != nil {
				w.log.Error().Err(err).
					Int("student_id", ev.StudentID).
					Str("activity_id", ev.ActivityID.String()).
					Msg("Complete failed — requeueing")
				raw, _ := json.Marshal(ev)
				w.rdb.RPush(ctx, config.WorkerKey.PersistProgressQueue, raw)
			}
		}
		return
	}

	// The attempt is over; stale drafts only confuse a revisit.
	w.bulkClearDrafts(ctx, batch)
}

func (w *ProgressWorker) bulkComplete(ctx context.Context, batch []*service.CompletionEvent) error {
	n := len(batch)

	students := make([]int, 0, n)
	activityIDs := make([]uuid.UUID, 0, n)
	scores := make([]float64, 0, n)

	for _, ev := range batch {
		students = append(students, ev.StudentID)
		activityIDs = append(activityIDs, ev.ActivityID)
		scores = append(scores, ev.Score)
	}

	return w.progressRepo.CompleteBatch(ctx, students, activityIDs, scores)
}

func (w *ProgressWorker) bulkClearDrafts(ctx context.Context, batch []*service.CompletionEvent) {
	pipe := w.rdb.Pipeline()

	for _, ev := range batch {
		key := config.CacheKey.StudentDraftKey(ev.ActivityID.String(), ev.StudentID)
		pipe.Del(ctx, key)
	}

	_, _ = pipe.Exec(ctx)
}
