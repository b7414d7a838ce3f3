package dto

import (
	"strings"

	"github.com/atayl16/siege-clan-tracker/internal/models"
)

// IssueClaimCodeRequest asks for a new single-use claim code. A nil
// ExpiryDays uses the configured default; zero means the code never expires.
type IssueClaimCodeRequest struct {
	WomID      int64 `json:"womId" validate:"required,gt=0"`
	ExpiryDays *int  `json:"expiryDays" validate:"omitempty,gte=0,lte=365"`
}

// RedeemClaimCodeRequest redeems a previously issued code.
type RedeemClaimCodeRequest struct {
	Code string `json:"code" validate:"required,min=4,max=32"`
}

// SubmitClaimRequest asks an admin to grant a claim.
type SubmitClaimRequest struct {
	WomID   int64  `json:"womId" validate:"required,gt=0"`
	Message string `json:"message" validate:"omitempty,max=1000"`
}

// ClaimDecision is the admin outcome for a claim request.
type ClaimDecision string

const (
	DecisionApprove ClaimDecision = "approved"
	DecisionDeny    ClaimDecision = "denied"
)

// Normalize accepts the imperative forms "approve" and "deny" as aliases.
func (d ClaimDecision) Normalize() ClaimDecision {
	switch strings.ToLower(strings.TrimSpace(string(d))) {
	case "approve", "approved":
		return DecisionApprove
	case "deny", "denied":
		return DecisionDeny
	}
	return d
}

// ProcessClaimRequest captures the admin decision and optional notes.
type ProcessClaimRequest struct {
	Decision   ClaimDecision `json:"decision" validate:"required,oneof=approve approved deny denied"`
	AdminNotes string        `json:"adminNotes" validate:"omitempty,max=1000"`
}

// ClaimRequestQuery mirrors supported listing filters.
type ClaimRequestQuery struct {
	Status []models.ClaimRequestStatus
	Limit  int
	Offset int
}

// ProcessClaimResponse returns the updated request and, on approval, the created claim.
type ProcessClaimResponse struct {
	Request *models.ClaimRequest `json:"request"`
	Claim   *models.Claim        `json:"claim,omitempty"`
}
