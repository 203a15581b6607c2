package websocket

import (
	"github.com/google/uuid"

	"github.com/lumilearn/activity-backend/internal/engine"
	"github.com/lumilearn/activity-backend/internal/engine/gesture"
	"github.com/lumilearn/activity-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionLayout   Action = "layout"
	ActionSelect   Action = "select"
	ActionGrab     Action = "grab"
	ActionMove     Action = "move"
	ActionRelease  Action = "release"
	ActionRemove   Action = "remove"
	ActionNavigate Action = "navigate"
	ActionSubmit   Action = "submit"
	ActionDismiss  Action = "dismiss"
	ActionPing     Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// LayoutRequest reports the client's current drop zone rectangles.
// Sent on mount and whenever the layout shifts, including mid-drag.
type LayoutRequest struct {
	Action  Action           `json:"action"`
	Targets []gesture.Target `json:"targets"`
}

// SelectRequest picks an option on a single-choice question.
type SelectRequest struct {
	Action   Action    `json:"action"`
	OptionID uuid.UUID `json:"option_id"`
}

// GrabRequest starts a drag gesture on an item.
type GrabRequest struct {
	Action Action         `json:"action"`
	Source gesture.Source `json:"source"`
	Item   string         `json:"item"`
	At     gesture.Point  `json:"at"`
}

// MoveRequest feeds one position sample of an active drag.
type MoveRequest struct {
	Action Action        `json:"action"`
	At     gesture.Point `json:"at"`
}

// ReleaseRequest ends the active drag at a position.
type ReleaseRequest struct {
	Action Action        `json:"action"`
	At     gesture.Point `json:"at"`
}

// RemoveRequest sends an item straight back to the pool without a
// gesture, the keyboard-accessible path.
type RemoveRequest struct {
	Action Action `json:"action"`
	Item   string `json:"item"`
}

// NavigateRequest jumps to the question at an index.
type NavigateRequest struct {
	Action Action `json:"action"`
	Index  int    `json:"index"`
}

// SubmitRequest grades the current question.
type SubmitRequest struct {
	Action Action `json:"action"`
}

// DismissRequest closes the verdict feedback and moves on.
type DismissRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState     Event = "state"
	EventHover     Event = "hover"
	EventDrag      Event = "drag"
	EventVerdict   Event = "verdict"
	EventCompleted Event = "completed"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// StateResponse carries the full view of the current question. Sent
// after connect, navigation and any change to the working answer.
type StateResponse struct {
	Event         Event         `json:"event"`
	Phase         string        `json:"phase"`
	QuestionIndex int           `json:"question_index"`
	QuestionCount int           `json:"question_count"`
	ViewOnly      bool          `json:"view_only"`
	Question      QuestionState `json:"question"`
}

// QuestionState is the per-question working answer as the client
// should render it. Verdict is only present for submitted questions.
type QuestionState struct {
	QuestionID uuid.UUID      `json:"question_id"`
	Submitted  bool           `json:"submitted"`
	Answer     model.Answer   `json:"answer"`
	Verdict    *model.Verdict `json:"verdict,omitempty"`
	// Display order of pair anchors and pool items for this attempt.
	AnchorOrder []uuid.UUID `json:"anchor_order,omitempty"`
	Pool        []uuid.UUID `json:"pool,omitempty"`
}

// HoverResponse reports a drop target hover change mid-drag.
type HoverResponse struct {
	Event        Event  `json:"event"`
	Target       string `json:"target"`
	ScrollLocked bool   `json:"scroll_locked"`
}

// DragResponse reports how a gesture ended.
type DragResponse struct {
	Event  Event              `json:"event"`
	Effect *engine.DragEffect `json:"effect"`
}

// VerdictResponse carries the grading outcome for one submission.
type VerdictResponse struct {
	Event   Event          `json:"event"`
	Verdict *model.Verdict `json:"verdict"`
}

// CompletedResponse signals that every question has a record.
type CompletedResponse struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
