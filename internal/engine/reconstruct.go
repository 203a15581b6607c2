package engine

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lumilearn/activity-backend/internal/engine/capture"
	"github.com/lumilearn/activity-backend/internal/model"
)

// Snapshot is everything persisted about one student's attempt,
// fetched in a single read and replayed into a live session.
type Snapshot struct {
	Activity    *model.Activity
	Questions   []*model.Question
	Submissions []*model.Submission
	// Verdicts carries regraded feedback per submitted question, so a
	// rebuilt record shows the same reveal and per-item outcomes the
	// student saw live. Questions absent from the map fall back to the
	// bare correctness stored on the submission.
	Verdicts map[uuid.UUID]*model.Verdict
}

// rebuild replays a snapshot into units, a sequencer and a seeded
// coordinator. It is a pure function of the snapshot, so running it
// twice yields the same position and the same records.
func rebuild(snap Snapshot, svc AnswerService, rng *rand.Rand, viewOnly bool, log zerolog.Logger) (map[uuid.UUID]capture.Unit, *Sequencer, *Coordinator) {
	byQuestion := make(map[uuid.UUID]*model.Submission, len(snap.Submissions))
	for _, sub := range snap.Submissions {
		byQuestion[sub.QuestionID] = sub
	}

	ids := make([]uuid.UUID, 0, len(snap.Questions))
	units := make(map[uuid.UUID]capture.Unit, len(snap.Questions))
	coord := NewCoordinator(svc)

	for _, q := range snap.Questions {
		ids = append(ids, q.ID)
		sub := byQuestion[q.ID]

		// Shuffled presentation only on questions the student has not
		// answered yet; answered ones keep their stored order so the
		// replay lines up with the record.
		unit := capture.ForQuestion(q, snap.Activity.Shape, rng, sub == nil)
		units[q.ID] = unit

		if sub != nil {
			if skipped := unit.Restore(sub.Answer); skipped > 0 {
				log.Warn().
					Str("question_id", q.ID.String()).
					Int("skipped", skipped).
					Msg("stored answer references options no longer in the catalog")
			}
			if viewOnly {
				unit.SetMode(capture.ModeView)
			} else {
				unit.SetMode(capture.ModeSubmitted)
			}
			verdict := snap.Verdicts[q.ID]
			if verdict == nil {
				verdict = verdictFromSubmission(q, sub)
			}
			coord.Seed(q.ID, Record{Answer: sub.Answer, Verdict: verdict})
		} else if viewOnly {
			unit.SetMode(capture.ModeView)
		}
	}

	seq := NewSequencer(ids)
	for id := range byQuestion {
		if _, ok := units[id]; ok {
			seq.MarkSubmitted(id)
		}
	}
	seq.Resume()
	return units, seq, coord
}

// verdictFromSubmission is the fallback when the snapshot carries no
// regraded verdict for a question. Only correctness and points survive
// persistence, so the reveal and per-item outcomes stay empty.
func verdictFromSubmission(q *model.Question, sub *model.Submission) *model.Verdict {
	v := &model.Verdict{
		QuestionID:   q.ID,
		IsCorrect:    sub.IsCorrect,
		PointsEarned: sub.PointsEarned,
	}
	if sub.WalletUsed != nil {
		v.Wallet = &model.WalletInfo{
			Initial:   q.WalletPoints,
			Used:      *sub.WalletUsed,
			Remaining: max(0, q.WalletPoints-*sub.WalletUsed),
		}
	}
	return v
}
