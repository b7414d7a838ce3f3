package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/atayl16/siege-clan-tracker/internal/dto"
	"github.com/atayl16/siege-clan-tracker/internal/models"
	"github.com/atayl16/siege-clan-tracker/internal/stats"
	appErrors "github.com/atayl16/siege-clan-tracker/pkg/errors"
	"github.com/atayl16/siege-clan-tracker/pkg/response"
)

type goalService interface {
	CreateGoal(ctx context.Context, actor models.Actor, req dto.CreateGoalRequest) (*models.Goal, error)
	DeleteGoal(ctx context.Context, actor models.Actor, id string) error
	ListGoals(ctx context.Context, actor models.Actor, accountID string) ([]models.Goal, error)
	Sync(ctx context.Context, actor models.Actor, req dto.SyncGoalsRequest) (dto.SyncGoalsResult, error)
}

// GoalHandler exposes goal management and progress synchronization.
type GoalHandler struct {
	service goalService
}

// NewGoalHandler builds a new handler.
func NewGoalHandler(service goalService) *GoalHandler {
	return &GoalHandler{service: service}
}

// Create godoc
// @Summary Create a goal on a claimed character
// @Tags Goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateGoalRequest true "Goal payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /goals [post]
func (h *GoalHandler) Create(c *gin.Context) {
	var req dto.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid goal payload"))
		return
	}
	goal, err := h.service.CreateGoal(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.GoalView{Goal: *goal, Progress: goal.Progress()})
}

// List godoc
// @Summary List an account's goals
// @Description Each goal carries progress, the fraction of the way from start to target.
// @Tags Goals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 200 {object} response.Envelope
// @Router /accounts/{id}/goals [get]
func (h *GoalHandler) List(c *gin.Context) {
	goals, err := h.service.ListGoals(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewGoalViews(goals))
}

// Metrics godoc
// @Summary List the metrics a goal can target
// @Tags Goals
// @Produce json
// @Security BearerAuth
// @Param type query string true "skill or boss"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /goals/metrics [get]
func (h *GoalHandler) Metrics(c *gin.Context) {
	goalType := stats.MetricType(c.Query("type"))
	names := stats.Metrics(goalType)
	if len(names) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "type must be skill or boss"))
		return
	}
	response.OK(c, dto.MetricCatalog{GoalType: goalType, Metrics: names})
}

// Delete godoc
// @Summary Delete a goal
// @Tags Goals
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Success 204
// @Router /goals/{id} [delete]
func (h *GoalHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteGoal(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Sync godoc
// @Summary Synchronize goal progress for a character
// @Description Fetches fresh statistics and updates every open goal the account holds on the character.
// @Tags Goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SyncGoalsRequest true "Character to sync; accountId defaults to the caller"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /goals/sync [post]
func (h *GoalHandler) Sync(c *gin.Context) {
	var req dto.SyncGoalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid sync payload"))
		return
	}
	actor := actorFromContext(c)
	if req.AccountID == "" {
		req.AccountID = actor.AccountID
	}
	result, err := h.service.Sync(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
