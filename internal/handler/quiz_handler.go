package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizi-backend/internal/analytics"
	"github.com/stemsi/quizi-backend/internal/model"
	"github.com/stemsi/quizi-backend/internal/response"
	"github.com/stemsi/quizi-backend/internal/service"
	"github.com/stemsi/quizi-backend/internal/validator"
)

// QuizHandler handles the quiz lifecycle endpoints.
type QuizHandler struct {
	quizService *service.QuizSessionService
	log         zerolog.Logger
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizSessionService, log zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
		log:         log.With().Str("component", "quiz_handler").Logger(),
	}
}

// Start godoc
// POST /api/v1/start
// Fetches a fresh question set and opens a 30-minute attempt.
func (h *QuizHandler) Start(c *gin.Context) {
	var req model.StartQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.quizService.Start(c.Request.Context(), req.Email)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// Submit godoc
// POST /api/v1/submit
// Merges answers into the session and returns the score.
func (h *QuizHandler) Submit(c *gin.Context) {
	var req model.SubmitQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.quizService.Submit(c.Request.Context(), req.SessionID, req.Answers, req.FinishedAt)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Report godoc
// GET /api/v1/report/:session_id
// Returns the full report, correct answers included.
func (h *QuizHandler) Report(c *gin.Context) {
	report, err := h.quizService.Report(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, report)
}

// Summary godoc
// GET /api/v1/report/:session_id/summary
// Returns counts, accuracy per difficulty and timings derived from the report.
func (h *QuizHandler) Summary(c *gin.Context) {
	report, err := h.quizService.Report(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, analytics.Summarize(report))
}

// Health godoc
// GET /health
// Liveness plus a ping of the session store.
func (h *QuizHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.quizService.Ping(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Session store ping failed")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrStoreUnavailable)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}

// fail maps service errors onto the response envelope.
func (h *QuizHandler) fail(c *gin.Context, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{ve.Field: ve.Reason})
	case errors.Is(err, model.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
	case errors.Is(err, model.ErrUpstream):
		h.log.Warn().Err(err).Str("request_id", response.RequestID(c)).Msg("Question provider failed")
		response.Fail(c, http.StatusBadGateway, response.ErrUpstreamUnavailable)
	default:
		h.log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("Quiz request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
