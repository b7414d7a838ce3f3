package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/atayl16/siege-clan-tracker/internal/dto"
	"github.com/atayl16/siege-clan-tracker/internal/models"
	"github.com/atayl16/siege-clan-tracker/pkg/response"
)

type claimCodeService interface {
	Issue(ctx context.Context, actor models.Actor, req dto.IssueClaimCodeRequest) (*models.ClaimCode, error)
	Redeem(ctx context.Context, actor models.Actor, req dto.RedeemClaimCodeRequest) (*models.Claim, error)
	ListCodes(ctx context.Context, actor models.Actor, womID int64) ([]models.ClaimCode, error)
}

// ClaimCodeHandler exposes claim code issuance and redemption.
type ClaimCodeHandler struct {
	service claimCodeService
}

// NewClaimCodeHandler builds a new handler.
func NewClaimCodeHandler(service claimCodeService) *ClaimCodeHandler {
	return &ClaimCodeHandler{service: service}
}

// Issue godoc
// @Summary Issue a claim code for a character
// @Tags ClaimCodes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.IssueClaimCodeRequest true "Claim code payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /claim-codes [post]
func (h *ClaimCodeHandler) Issue(c *gin.Context) {
	var req dto.IssueClaimCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid claim code payload"))
		return
	}
	code, err := h.service.Issue(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, code)
}

// Redeem godoc
// @Summary Redeem a claim code
// @Tags ClaimCodes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.RedeemClaimCodeRequest true "Code to redeem"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /claim-codes/redeem [post]
func (h *ClaimCodeHandler) Redeem(c *gin.Context) {
	var req dto.RedeemClaimCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid redeem payload"))
		return
	}
	claim, err := h.service.Redeem(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, claim)
}

// List godoc
// @Summary List claim codes issued for a character
// @Tags ClaimCodes
// @Produce json
// @Security BearerAuth
// @Param womId path int true "Character ID"
// @Success 200 {object} response.Envelope
// @Router /characters/{womId}/claim-codes [get]
func (h *ClaimCodeHandler) List(c *gin.Context) {
	womID, err := womIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	codes, err := h.service.ListCodes(c.Request.Context(), actorFromContext(c), womID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, codes)
}
