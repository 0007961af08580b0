package rest

import (
	"context"
	"net/http"
	"strconv"

	"cochain/domain"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type (
	TrainingAdminHandler struct {
		scheduler     TrainingService
		banditService AdminBanditService
	}

	TrainingService interface {
		Run(ctx context.Context, days int) (*domain.TrainingRun, error)
		SweepCache(ctx context.Context) (int64, error)
		History(ctx context.Context, limit int) ([]domain.TrainingRun, error)
	}

	AdminBanditService interface {
		Reset(ctx context.Context, projectID uint64) error
	}

	TrainingRunRequest struct {
		Days int `json:"days"`
	}
)

func NewTrainingAdminHandler(scheduler TrainingService, banditSvc AdminBanditService) *TrainingAdminHandler {
	return &TrainingAdminHandler{
		scheduler:     scheduler,
		banditService: banditSvc,
	}
}

// POST /api/v1/admin/training/run
func (h *TrainingAdminHandler) RunTraining(c echo.Context) error {
	var req TrainingRunRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	run, err := h.scheduler.Run(c.Request().Context(), req.Days)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(run))
}

// POST /api/v1/admin/training/sweep
func (h *TrainingAdminHandler) SweepCache(c echo.Context) error {
	removed, err := h.scheduler.SweepCache(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(echo.Map{
		"removed": removed,
	}))
}

// GET /api/v1/admin/training/history?limit=20
func (h *TrainingAdminHandler) GetHistory(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	runs, err := h.scheduler.History(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(runs))
}

// POST /api/v1/admin/bandit/:id/reset
func (h *TrainingAdminHandler) ResetBandit(c echo.Context) error {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid project id"})
	}

	if err := h.banditService.Reset(c.Request().Context(), projectID); err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("bandit state reset"))
}
