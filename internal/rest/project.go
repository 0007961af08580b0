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
	ProjectHandler struct {
		banditService ProjectBanditService
	}

	ProjectBanditService interface {
		TopProjects(ctx context.Context, limit int) ([]domain.TopProject, error)
		Statistics(ctx context.Context, projectID uint64) (domain.BanditStatistics, error)
	}
)

func NewProjectHandler(banditSvc ProjectBanditService) *ProjectHandler {
	return &ProjectHandler{banditService: banditSvc}
}

// GET /api/v1/recommendations/projects/top?limit=10
func (h *ProjectHandler) GetTopProjects(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	top, err := h.banditService.TopProjects(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(top))
}

// GET /api/v1/recommendations/projects/:id/stats
func (h *ProjectHandler) GetProjectStats(c echo.Context) error {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid project id"})
	}

	stats, err := h.banditService.Statistics(c.Request().Context(), projectID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(stats))
}
