package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/lumilearn/activity-backend/internal/config"
	"github.com/lumilearn/activity-backend/internal/engine"
	"github.com/lumilearn/activity-backend/internal/engine/capture"
	"github.com/lumilearn/activity-backend/internal/engine/gesture"
	"github.com/lumilearn/activity-backend/internal/middleware"
	"github.com/lumilearn/activity-backend/internal/repository"
	"github.com/lumilearn/activity-backend/internal/response"
	"github.com/lumilearn/activity-backend/internal/service"
	ws "github.com/lumilearn/activity-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a live attempt session over WebSocket. Each
// connection owns one engine.Session and drives it from its read
// loop, so no locking is needed inside the engine.
type WSHandler struct {
	attemptService *service.AttemptService
	rdb            *redis.Client
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attemptService *service.AttemptService, rdb *redis.Client, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attemptService: attemptService,
		rdb:            rdb,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// ActivityStream godoc
// WS /ws/v1/player/activities/:activity_id/stream
// Upgrades to WebSocket and runs the interactive attempt: drag
// gestures, option selection, navigation and instant grading.
func (h *WSHandler) ActivityStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	activityID, err := uuid.Parse(c.Param("activity_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid activity ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("student_id", claims.StudentID).
		Str("activity_id", activityID.String()).
		Logger()

	sess, err := h.attemptService.Session(c.Request.Context(), claims.StudentID, activityID, wsLog)
	if err != nil {
		wsLog.Warn().Err(err).Msg("Session build failed")
		ws.WriteError(conn, wsErrCode(err), err.Error())
		return
	}

	wsLog.Info().Msg("Student connected")

	// Mark which activity this student has open for the lifetime of
	// the stream.
	activeKey := config.CacheKey.StudentActiveActivityKey(claims.StudentID)
	h.rdb.Set(c.Request.Context(), activeKey, activityID.String(), 0)
	defer h.rdb.Del(context.Background(), activeKey)

	// Initial state so the client can render without a round trip.
	ws.WriteTyped(conn, stateResponse(sess))

	for {
		raw, err := ws.ReadRaw(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		var envelope ws.RequestEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			ws.WriteError(conn, string(response.ErrInvalidPayload), "malformed message")
			continue
		}

		if err := h.dispatch(c, conn, sess, envelope.Action, raw); err != nil {
			wsLog.Debug().Err(err).Str("action", string(envelope.Action)).Msg("Action rejected")
			ws.WriteError(conn, wsErrCode(err), err.Error())
		}
	}
}

// dispatch parses and applies one client action. Returned errors are
// reported to the client; the connection stays open.
func (h *WSHandler) dispatch(c *gin.Context, conn *websocket.Conn, sess *engine.Session, action ws.Action, raw []byte) error {
	switch action {
	case ws.ActionLayout:
		var req ws.LayoutRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return err
		}
		sess.SetLayout(req.Targets)
		return nil

	case ws.ActionSelect:
		var req ws.SelectRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return err
		}
		if err := sess.Select(req.OptionID); err != nil {
			return err
		}
		return ws.WriteTyped(conn, stateResponse(sess))

	case ws.ActionGrab:
		var req ws.GrabRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return err
		}
		if err := sess.BeginDrag(req.Source, req.Item, req.At); err != nil {
			return err
		}
		return ws.WriteTyped(conn, ws.HoverResponse{
			Event:        ws.EventHover,
			Target:       "",
			ScrollLocked: sess.ScrollLocked(),
		})

	case ws.ActionMove:
		var req ws.MoveRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return err
		}
		hover, changed, err := sess.MoveDrag(req.At)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return ws.WriteTyped(conn, ws.HoverResponse{
			Event:        ws.EventHover,
			Target:       hover,
			ScrollLocked: sess.ScrollLocked(),
		})

	case ws.ActionRelease:
		var req ws.ReleaseRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return err
		}
		effect, err := sess.EndDrag(req.At)
		if err != nil {
			return err
		}
		if err := ws.WriteTyped(conn, ws.DragResponse{Event: ws.EventDrag, Effect: effect}); err != nil {
			return err
		}
		if !effect.Applied {
			return nil
		}
		return ws.WriteTyped(conn, stateResponse(sess))

	case ws.ActionRemove:
		var req ws.RemoveRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return err
		}
		if err := sess.Remove(req.Item); err != nil {
			return err
		}
		return ws.WriteTyped(conn, stateResponse(sess))

	case ws.ActionNavigate:
		var req ws.NavigateRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return err
		}
		if err := sess.Navigate(req.Index); err != nil {
			return err
		}
		return ws.WriteTyped(conn, stateResponse(sess))

	case ws.ActionSubmit:
		verdict, err := sess.Submit(c.Request.Context())
		if err != nil {
			return err
		}
		if err := ws.WriteTyped(conn, ws.VerdictResponse{Event: ws.EventVerdict, Verdict: verdict}); err != nil {
			return err
		}
		if !verdict.ActivityCompleted {
			return nil
		}
		return ws.WriteTyped(conn, ws.CompletedResponse{Event: ws.EventCompleted})

	case ws.ActionDismiss:
		if done := sess.DismissFeedback(); done {
			return ws.WriteTyped(conn, ws.CompletedResponse{Event: ws.EventCompleted})
		}
		return ws.WriteTyped(conn, stateResponse(sess))

	case ws.ActionPing:
		return ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})

	default:
		return errors.New("unknown action: " + string(action))
	}
}

// stateResponse snapshots the current question for the client.
func stateResponse(sess *engine.Session) ws.StateResponse {
	q, unit, idx := sess.Current()

	st := ws.QuestionState{
		QuestionID: q.ID,
		Answer:     unit.Answer(),
	}
	if rec := sess.Record(q.ID); rec != nil {
		st.Submitted = true
		st.Verdict = rec.Verdict
	}
	switch u := unit.(type) {
	case *capture.PairUnit:
		st.AnchorOrder = u.Anchors()
		st.Pool = u.Pool()
	case *capture.SpatialUnit:
		st.Pool = u.Pool()
	}

	return ws.StateResponse{
		Event:         ws.EventState,
		Phase:         string(sess.Phase()),
		QuestionIndex: idx,
		QuestionCount: sess.Len(),
		ViewOnly:      sess.ViewOnly(),
		Question:      st,
	}
}

// wsErrCode maps engine and service errors onto API error codes.
func wsErrCode(err error) string {
	var code response.ErrCode
	switch {
	case errors.Is(err, engine.ErrAlreadySubmitted),
		errors.Is(err, repository.ErrDuplicateSubmission),
		errors.Is(err, capture.ErrLocked):
		code = response.ErrQuestionAnswered
	case errors.Is(err, engine.ErrSubmissionInFlight):
		code = response.ErrConflict
	case errors.Is(err, engine.ErrViewOnly):
		code = response.ErrActivityViewOnly
	case errors.Is(err, engine.ErrIncompleteAnswer):
		code = response.ErrAnswerIncomplete
	case errors.Is(err, engine.ErrShapeMismatch):
		code = response.ErrAnswerMismatch
	case errors.Is(err, engine.ErrNavigationBlocked):
		code = response.ErrNavigationBlocked
	case errors.Is(err, service.ErrActivityNotAvailable),
		errors.Is(err, repository.ErrActivityNotFound),
		errors.Is(err, engine.ErrNoQuestion):
		code = response.ErrActivityNotAvailable
	case errors.Is(err, engine.ErrBadItemKey),
		errors.Is(err, gesture.ErrDragActive),
		errors.Is(err, gesture.ErrNoDrag),
		errors.Is(err, capture.ErrUnknownOption),
		errors.Is(err, capture.ErrUnknownAnchor),
		errors.Is(err, capture.ErrUnknownItem),
		errors.Is(err, capture.ErrUnknownCell),
		errors.Is(err, capture.ErrUnknownTile):
		code = response.ErrInvalidPayload
	default:
		code = response.ErrInternal
	}
	return string(code)
}
