package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lumilearn/activity-backend/internal/engine"
	"github.com/lumilearn/activity-backend/internal/middleware"
	"github.com/lumilearn/activity-backend/internal/model"
	"github.com/lumilearn/activity-backend/internal/repository"
	"github.com/lumilearn/activity-backend/internal/response"
	"github.com/lumilearn/activity-backend/internal/service"
	"github.com/lumilearn/activity-backend/internal/validator"
)

// PlayerHandler handles student-facing activity endpoints (lobby,
// attempt state, answer submission, drafts).
type PlayerHandler struct {
	activityService *service.ActivityService
	attemptService  *service.AttemptService
}

// NewPlayerHandler creates a new PlayerHandler.
func NewPlayerHandler(
	activityService *service.ActivityService,
	attemptService *service.AttemptService,
) *PlayerHandler {
	return &PlayerHandler{
		activityService: activityService,
		attemptService:  attemptService,
	}
}

// GetLobby godoc
// GET /api/v1/player/lobby
// Returns published and past activities with the student's progress.
func (h *PlayerHandler) GetLobby(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	lobby, err := h.activityService.GetLobby(c.Request.Context(), claims.StudentID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if lobby == nil {
		lobby = []model.ActivitySummary{}
	}

	response.Success(c, http.StatusOK, gin.H{"activities": lobby})
}

// GetActivityState godoc
// GET /api/v1/player/activities/:activity_id
// Returns the activity payload plus everything needed to resume: prior
// answer records, the resume index, and unsubmitted drafts. This covers
// page reloads so the frontend can rebuild the attempt without replaying.
func (h *PlayerHandler) GetActivityState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	activityID, err := uuid.Parse(c.Param("activity_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.attemptService.State(c.Request.Context(), claims.StudentID, activityID)
	if err != nil {
		h.failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// SubmitChoice godoc
// POST /api/v1/player/activities/:activity_id/answers/choice
// Grades a single-choice answer. At most one submission per question.
func (h *PlayerHandler) SubmitChoice(c *gin.Context) {
	var req model.SubmitChoiceRequest
	h.submit(c, &req, func() (uuid.UUID, model.Answer) {
		return req.QuestionID, model.Answer{OptionID: &req.OptionID}
	})
}

// SubmitPairs godoc
// POST /api/v1/player/activities/:activity_id/answers/pairs
// Grades a pair-match answer. Every anchor must carry an item.
func (h *PlayerHandler) SubmitPairs(c *gin.Context) {
	var req model.SubmitPairsRequest
	h.submit(c, &req, func() (uuid.UUID, model.Answer) {
		pairs := make([]model.PairSelection, len(req.Pairs))
		for i, p := range req.Pairs {
			pairs[i] = model.PairSelection{LeftID: p.LeftID, RightID: p.RightID}
		}
		return req.QuestionID, model.Answer{Pairs: pairs}
	})
}

// SubmitPlacements godoc
// POST /api/v1/player/activities/:activity_id/answers/placements
// Grades a spatial answer. Partial placements are allowed; the wallet
// still charges for every placed tile.
func (h *PlayerHandler) SubmitPlacements(c *gin.Context) {
	var req model.SubmitPlacementsRequest
	h.submit(c, &req, func() (uuid.UUID, model.Answer) {
		placements := make([]model.Placement, len(req.Placements))
		for i, p := range req.Placements {
			placements[i] = model.Placement{TileID: p.TileID, Position: p.Position}
		}
		return req.QuestionID, model.Answer{Placements: placements}
	})
}

// SaveDraft godoc
// PUT /api/v1/player/activities/:activity_id/drafts/:question_id
// Stores an unsubmitted working answer for reconnect.
func (h *PlayerHandler) SaveDraft(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	activityID, err := uuid.Parse(c.Param("activity_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var answer model.Answer
	if err := c.ShouldBindJSON(&answer); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	if err := h.attemptService.SaveDraft(c.Request.Context(), claims.StudentID, activityID, questionID, answer); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// submit binds the request, builds the normalized answer, and routes
// it through the attempt service with shared error mapping.
func (h *PlayerHandler) submit(c *gin.Context, req any, build func() (uuid.UUID, model.Answer)) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	activityID, err := uuid.Parse(c.Param("activity_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if fields := validator.Bind(c, req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questionID, answer := build()
	verdict, err := h.attemptService.SubmitAnswer(c.Request.Context(), claims.StudentID, activityID, questionID, answer)
	if err != nil {
		h.failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"verdict": verdict})
}

// failAttempt maps attempt/engine errors onto API error codes.
func (h *PlayerHandler) failAttempt(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrAlreadySubmitted),
		errors.Is(err, repository.ErrDuplicateSubmission):
		response.Fail(c, http.StatusConflict, response.ErrQuestionAnswered)
	case errors.Is(err, engine.ErrViewOnly):
		response.Fail(c, http.StatusForbidden, response.ErrActivityViewOnly)
	case errors.Is(err, engine.ErrIncompleteAnswer):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrAnswerIncomplete)
	case errors.Is(err, service.ErrUnknownQuestion),
		errors.Is(err, service.ErrInvalidAnswerIDs):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	case errors.Is(err, service.ErrActivityNotAvailable),
		errors.Is(err, repository.ErrActivityNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrActivityNotAvailable)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
