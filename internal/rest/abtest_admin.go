package rest

import (
	"context"
	"net/http"
	"strconv"

	"cochain/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	ABTestAdminHandler struct {
		validate  *validator.Validate
		abService ABTestService
	}

	ABTestService interface {
		ActiveTest(ctx context.Context) (*domain.ABTest, error)
		UserGroup(ctx context.Context, userID uint) (string, error)
		StartTest(ctx context.Context, name string, controlPercentage, durationDays int, description string) (*domain.ABTest, error)
		TestMetrics(ctx context.Context, testID string, days int) (*domain.TestMetrics, error)
		EndTestAndRollout(ctx context.Context, testID string) (*domain.RolloutDecision, error)
	}

	StartTestRequest struct {
		Name              string `json:"name" validate:"required"`
		Description       string `json:"description"`
		ControlPercentage int    `json:"control_percentage" validate:"min=0,max=100"`
		DurationDays      int    `json:"duration_days"`
	}
)

func NewABTestAdminHandler(abSvc ABTestService) *ABTestAdminHandler {
	return &ABTestAdminHandler{
		validate:  validator.New(),
		abService: abSvc,
	}
}

// GET /api/v1/admin/abtests/active
func (h *ABTestAdminHandler) GetActiveTest(c echo.Context) error {
	test, err := h.abService.ActiveTest(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	if test == nil {
		return c.JSON(http.StatusNotFound, ResponseError{Message: "no active test"})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(test))
}

// GET /api/v1/admin/abtests/group?user_id=123
func (h *ABTestAdminHandler) GetUserGroup(c echo.Context) error {
	userID64, err := strconv.ParseUint(c.QueryParam("user_id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid user_id"})
	}

	group, err := h.abService.UserGroup(c.Request().Context(), uint(userID64))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(echo.Map{
		"user_id": uint(userID64),
		"group":   group,
	}))
}

// POST /api/v1/admin/abtests
func (h *ABTestAdminHandler) StartTest(c echo.Context) error {
	var req StartTestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	test, err := h.abService.StartTest(
		c.Request().Context(),
		req.Name, req.ControlPercentage, req.DurationDays, req.Description,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(test))
}

// GET /api/v1/admin/abtests/:id/metrics?days=7
func (h *ABTestAdminHandler) GetTestMetrics(c echo.Context) error {
	days, _ := strconv.Atoi(c.QueryParam("days"))

	metrics, err := h.abService.TestMetrics(c.Request().Context(), c.Param("id"), days)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(metrics))
}

// POST /api/v1/admin/abtests/:id/end
func (h *ABTestAdminHandler) EndTest(c echo.Context) error {
	decision, err := h.abService.EndTestAndRollout(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(decision))
}
