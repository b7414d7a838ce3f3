package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/atayl16/siege-clan-tracker/internal/dto"
	"github.com/atayl16/siege-clan-tracker/internal/models"
	appErrors "github.com/atayl16/siege-clan-tracker/pkg/errors"
	"github.com/atayl16/siege-clan-tracker/pkg/response"
)

type accountService interface {
	Get(ctx context.Context, id string) (*models.Account, error)
	SetAdmin(ctx context.Context, actor models.Actor, accountID string, isAdmin bool) (*models.Account, error)
}

// AccountHandler exposes account lookups and the admin flag.
type AccountHandler struct {
	service accountService
}

// NewAccountHandler builds a new handler.
func NewAccountHandler(service accountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// Me godoc
// @Summary Get the calling account
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /accounts/me [get]
func (h *AccountHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	account, err := h.service.Get(c.Request.Context(), claims.AccountID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, account)
}

// SetAdmin godoc
// @Summary Grant or revoke admin rights
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Param payload body dto.SetAdminRequest true "Admin flag"
// @Success 200 {object} response.Envelope
// @Router /accounts/{id}/admin [patch]
func (h *AccountHandler) SetAdmin(c *gin.Context) {
	var req dto.SetAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsAdmin == nil {
		response.Error(c, bindError(err, "isAdmin is required"))
		return
	}
	account, err := h.service.SetAdmin(c.Request.Context(), actorFromContext(c), c.Param("id"), *req.IsAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, account)
}
