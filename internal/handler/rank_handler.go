package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/atayl16/siege-clan-tracker/internal/dto"
	"github.com/atayl16/siege-clan-tracker/internal/models"
	"github.com/atayl16/siege-clan-tracker/pkg/response"
)

type rankService interface {
	ClassifyCharacter(ctx context.Context, womID int64) (*dto.RankView, error)
	ListMismatches(ctx context.Context, actor models.Actor) ([]dto.RankView, error)
	FixTier(ctx context.Context, actor models.Actor, womID int64) (*dto.RankChange, error)
	ToggleCategory(ctx context.Context, actor models.Actor, womID int64) (*dto.RankChange, error)
}

// RankHandler exposes rank evaluation and role fixes.
type RankHandler struct {
	service rankService
}

// NewRankHandler builds a new handler.
func NewRankHandler(service rankService) *RankHandler {
	return &RankHandler{service: service}
}

// Classify godoc
// @Summary Evaluate a character's role against its statistics
// @Tags Ranks
// @Produce json
// @Security BearerAuth
// @Param womId path int true "Character ID"
// @Success 200 {object} response.Envelope
// @Router /characters/{womId}/rank [get]
func (h *RankHandler) Classify(c *gin.Context) {
	womID, err := womIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.ClassifyCharacter(c.Request.Context(), womID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Mismatches godoc
// @Summary List characters whose role needs attention
// @Tags Ranks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /ranks/mismatches [get]
func (h *RankHandler) Mismatches(c *gin.Context) {
	views, err := h.service.ListMismatches(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithMeta(c, views, map[string]interface{}{"count": len(views)})
}

// Fix godoc
// @Summary Set a character's role to the tier its statistics earn
// @Tags Ranks
// @Produce json
// @Security BearerAuth
// @Param womId path int true "Character ID"
// @Success 200 {object} response.Envelope
// @Router /characters/{womId}/rank/fix [post]
func (h *RankHandler) Fix(c *gin.Context) {
	h.change(c, h.service.FixTier)
}

// Toggle godoc
// @Summary Move a character to the other ladder
// @Tags Ranks
// @Produce json
// @Security BearerAuth
// @Param womId path int true "Character ID"
// @Success 200 {object} response.Envelope
// @Router /characters/{womId}/rank/toggle [post]
func (h *RankHandler) Toggle(c *gin.Context) {
	h.change(c, h.service.ToggleCategory)
}

func (h *RankHandler) change(c *gin.Context, fn func(context.Context, models.Actor, int64) (*dto.RankChange, error)) {
	womID, err := womIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	change, err := fn(c.Request.Context(), actorFromContext(c), womID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, change)
}
