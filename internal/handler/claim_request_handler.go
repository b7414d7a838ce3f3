package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atayl16/siege-clan-tracker/internal/dto"
	"github.com/atayl16/siege-clan-tracker/internal/models"
	appErrors "github.com/atayl16/siege-clan-tracker/pkg/errors"
	"github.com/atayl16/siege-clan-tracker/pkg/response"
)

type claimRequestService interface {
	Submit(ctx context.Context, actor models.Actor, req dto.SubmitClaimRequest) (*models.ClaimRequest, error)
	Process(ctx context.Context, actor models.Actor, id string, req dto.ProcessClaimRequest) (*dto.ProcessClaimResponse, error)
	List(ctx context.Context, actor models.Actor, query dto.ClaimRequestQuery) ([]models.ClaimRequest, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.ClaimRequest, error)
}

// ClaimRequestHandler exposes the manual claim request workflow.
type ClaimRequestHandler struct {
	service claimRequestService
}

// NewClaimRequestHandler builds a new handler.
func NewClaimRequestHandler(service claimRequestService) *ClaimRequestHandler {
	return &ClaimRequestHandler{service: service}
}

// Submit godoc
// @Summary Request ownership of a character
// @Tags ClaimRequests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SubmitClaimRequest true "Claim request payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /claim-requests [post]
func (h *ClaimRequestHandler) Submit(c *gin.Context) {
	var req dto.SubmitClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid claim request payload"))
		return
	}
	request, err := h.service.Submit(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// List godoc
// @Summary List claim requests
// @Description Admins see every request; other accounts see their own.
// @Tags ClaimRequests
// @Produce json
// @Security BearerAuth
// @Param status query string false "Comma separated statuses (pending,approved,denied)"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /claim-requests [get]
func (h *ClaimRequestHandler) List(c *gin.Context) {
	query, err := parseClaimRequestQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	requests, err := h.service.List(c.Request.Context(), actorFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, requests, response.Page{Limit: query.Limit, Offset: query.Offset, Count: len(requests)})
}

// Get godoc
// @Summary Get a claim request
// @Tags ClaimRequests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /claim-requests/{id} [get]
func (h *ClaimRequestHandler) Get(c *gin.Context) {
	request, err := h.service.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, request)
}

// Process godoc
// @Summary Approve or deny a pending claim request
// @Tags ClaimRequests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param payload body dto.ProcessClaimRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /claim-requests/{id}/process [post]
func (h *ClaimRequestHandler) Process(c *gin.Context) {
	var req dto.ProcessClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid decision payload"))
		return
	}
	result, err := h.service.Process(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

func parseClaimRequestQuery(c *gin.Context) (dto.ClaimRequestQuery, error) {
	var query dto.ClaimRequestQuery
	for _, raw := range strings.Split(c.Query("status"), ",") {
		raw = strings.TrimSpace(strings.ToLower(raw))
		if raw == "" {
			continue
		}
		status := models.ClaimRequestStatus(raw)
		if !status.Valid() {
			return query, appErrors.Clone(appErrors.ErrValidation, "unknown status "+raw)
		}
		query.Status = append(query.Status, status)
	}
	var err error
	if query.Limit, err = intQuery(c, "limit", 0); err != nil {
		return query, err
	}
	if query.Offset, err = intQuery(c, "offset", 0); err != nil {
		return query, err
	}
	return query, nil
}
