package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"poemEval/business/session"
	"poemEval/domain"
	"poemEval/pkg/logger"
	"poemEval/pkg/metrics"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	SessionHandler struct {
		validate       *validator.Validate
		sessionService SessionService
		timeout        time.Duration
	}

	SessionService interface {
		Start(ctx context.Context, userID string, age int, gender, education string) (session.StartResult, error)
		Reveal(ctx context.Context, userID, phase1Choice string) (session.RevealResult, error)
		Submit(ctx context.Context, userID string, phase2Answers map[string]string) (session.SubmitResult, error)
		IncreaseLimit(ctx context.Context, userID string) (session.IncreaseLimitResult, error)
		Remaining(ctx context.Context, userID string) (completed, limit int, err error)
	}

	StartRequest struct {
		UserID    string `json:"user_id" validate:"required"`
		Age       int    `json:"age" validate:"required,gt=0"`
		Gender    string `json:"gender" validate:"required"`
		Education string `json:"education" validate:"required"`
	}

	RevealRequest struct {
		UserID       string `json:"user_id" validate:"required"`
		Phase1Choice string `json:"phase1_choice" validate:"required"`
	}

	SubmitRequest struct {
		UserID        string            `json:"user_id" validate:"required"`
		Phase2Answers map[string]string `json:"phase2_answers" validate:"required"`
	}

	IncreaseLimitRequest struct {
		UserID string `json:"user_id" validate:"required"`
	}
)

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

func NewSessionHandler(svc SessionService) *SessionHandler {
	return &SessionHandler{
		validate:       validator.New(),
		sessionService: svc,
		timeout:        10 * time.Second,
	}
}

func (h *SessionHandler) Start(c echo.Context) error {
	timer := time.Now()
	defer func() {
		metrics.SessionStartLatency.Observe(time.Since(timer).Seconds())
	}()

	var req StartRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid start request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.sessionService.Start(ctx, req.UserID, req.Age, req.Gender, req.Education)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

func (h *SessionHandler) Reveal(c echo.Context) error {
	var req RevealRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid reveal request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.sessionService.Reveal(ctx, req.UserID, req.Phase1Choice)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

func (h *SessionHandler) Submit(c echo.Context) error {
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid submit request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.sessionService.Submit(ctx, req.UserID, req.Phase2Answers)
	if err != nil {
		return h.errorResponse(c, err)
	}

	metrics.EvaluationsSubmitted.Inc()
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(result))
}

func (h *SessionHandler) IncreaseLimit(c echo.Context) error {
	var req IncreaseLimitRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid increase-limit request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.sessionService.IncreaseLimit(ctx, req.UserID)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

func (h *SessionHandler) Remaining(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "user_id is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	completed, limit, err := h.sessionService.Remaining(ctx, userID)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]int{
		"completed": completed,
		"limit":     limit,
	}))
}

// errorResponse maps the domain error taxonomy onto HTTP statuses. Every
// rejected transition surfaces a distinguishable message.
func (h *SessionHandler) errorResponse(c echo.Context, err error) error {
	var (
		validationErr *domain.ValidationError
		wrongPhaseErr *domain.WrongPhaseError
		storageErr    *domain.StorageError
	)

	switch {
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, ResponseError{Message: validationErr.Error()})
	case errors.Is(err, domain.ErrIdentityMismatch):
		return c.JSON(http.StatusConflict, ResponseError{Message: "nickname already in use with different demographics, pick another"})
	case errors.As(err, &wrongPhaseErr):
		return c.JSON(http.StatusConflict, ResponseError{Message: wrongPhaseErr.Error()})
	case errors.Is(err, domain.ErrReservationExpired):
		return c.JSON(http.StatusConflict, ResponseError{Message: "assignment expired, start again"})
	case errors.Is(err, domain.ErrExtensionUnavailable):
		return c.JSON(http.StatusConflict, ResponseError{Message: "limit extension not available"})
	case errors.Is(err, domain.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, ResponseError{Message: "user not found"})
	case errors.As(err, &storageErr):
		logger.Error("storage failure", err)
		return c.JSON(http.StatusServiceUnavailable, ResponseError{Message: "temporary storage failure, retry"})
	default:
		logger.Error("unexpected session error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
}
