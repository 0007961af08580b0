package rest

import (
	"context"
	"net/http"
	"strconv"

	"cochain/business/engine"
	"cochain/domain"
	"cochain/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	RecommendHandler struct {
		validate      *validator.Validate
		engineService EngineService
		abService     ABService
	}

	EngineService interface {
		GetRecommendations(ctx context.Context, userID uint, count, offset int, useRL bool) (*domain.RecommendationResult, error)
		GetDiverseRecommendations(ctx context.Context, userID uint, count int, diversityFactor float64) (*domain.RecommendationResult, error)
		RecordInteraction(ctx context.Context, params engine.InteractionParams) (float64, error)
		InvalidateUserCache(ctx context.Context, userID uint) error
		ModelPerformance(ctx context.Context, days int) (*domain.ModelPerformance, error)
	}

	ABService interface {
		ShouldUseRL(ctx context.Context, userID uint) bool
	}

	RecommendQuery struct {
		UserID          uint     `query:"user_id" validate:"required"`
		Count           int      `query:"count"`
		Offset          int      `query:"offset"`
		Diverse         bool     `query:"diverse"`
		DiversityFactor *float64 `query:"diversity_factor"`
	}

	InteractionRequest struct {
		UserID          uint     `json:"user_id" validate:"required"`
		ProjectID       uint64   `json:"project_id" validate:"required"`
		InteractionType string   `json:"interaction_type" validate:"required,oneof=impression hover_short hover_long click bookmark unbookmark feedback github_visit quick_exit"`
		RankPosition    *int     `json:"rank_position"`
		DurationSeconds *float64 `json:"duration_seconds"`
		Rating          *int     `json:"rating" validate:"omitempty,min=1,max=5"`
		SessionID       string   `json:"session_id"`
	}

	InvalidateRequest struct {
		UserID uint `json:"user_id" validate:"required"`
	}

	// recommendFailure is the degraded envelope: serving errors answer 200
	// with an empty list so clients render an empty shelf instead of an
	// error page.
	recommendFailure struct {
		Success         bool                    `json:"success"`
		Error           string                  `json:"error"`
		Recommendations []domain.Recommendation `json:"recommendations"`
	}
)

func NewRecommendHandler(engineSvc EngineService, abSvc ABService) *RecommendHandler {
	return &RecommendHandler{
		validate:      validator.New(),
		engineService: engineSvc,
		abService:     abSvc,
	}
}

// GET /api/v1/recommendations?user_id=1&count=10&offset=0&diverse=true&diversity_factor=0.3
func (h *RecommendHandler) GetRecommendations(c echo.Context) error {
	var q RecommendQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if q.Count <= 0 {
		q.Count = 10
	}

	ctx := c.Request().Context()
	useRL := h.abService.ShouldUseRL(ctx, q.UserID)

	var result *domain.RecommendationResult
	var err error
	if q.Diverse || q.DiversityFactor != nil {
		factor := 0.3
		if q.DiversityFactor != nil {
			factor = *q.DiversityFactor
		}
		result, err = h.engineService.GetDiverseRecommendations(ctx, q.UserID, q.Count, factor)
	} else {
		result, err = h.engineService.GetRecommendations(ctx, q.UserID, q.Count, q.Offset, useRL)
	}
	if err != nil {
		logger.Error("recommendation_serve_failed", "user_id", q.UserID, "error", err)
		return c.JSON(http.StatusOK, recommendFailure{
			Success:         false,
			Error:           err.Error(),
			Recommendations: []domain.Recommendation{},
		})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

// POST /api/v1/recommendations/interactions
func (h *RecommendHandler) RecordInteraction(c echo.Context) error {
	var req InteractionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if req.InteractionType == domain.InteractionFeedback && req.Rating == nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "rating is required for feedback"})
	}

	reward, err := h.engineService.RecordInteraction(c.Request().Context(), engine.InteractionParams{
		UserID:          req.UserID,
		ProjectID:       req.ProjectID,
		InteractionType: req.InteractionType,
		RankPosition:    req.RankPosition,
		DurationSeconds: req.DurationSeconds,
		Rating:          req.Rating,
		SessionID:       req.SessionID,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(echo.Map{
		"reward": reward,
	}))
}

// POST /api/v1/recommendations/invalidate
func (h *RecommendHandler) InvalidateCache(c echo.Context) error {
	var req InvalidateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.engineService.InvalidateUserCache(c.Request().Context(), req.UserID); err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("cache invalidated"))
}

// GET /api/v1/recommendations/performance?days=7
func (h *RecommendHandler) GetPerformance(c echo.Context) error {
	days, _ := strconv.Atoi(c.QueryParam("days"))

	perf, err := h.engineService.ModelPerformance(c.Request().Context(), days)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(perf))
}
