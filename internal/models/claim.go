package models

import "time"

// ClaimSource records which path created a claim.
type ClaimSource string

const (
	ClaimSourceCode    ClaimSource = "code"
	ClaimSourceRequest ClaimSource = "request"
)

// Claim binds one account to one character. At most one claim exists per wom_id.
type Claim struct {
	ID        string      `db:"id" json:"id"`
	AccountID string      `db:"account_id" json:"accountId"`
	WomID     int64       `db:"wom_id" json:"womId"`
	Source    ClaimSource `db:"source" json:"source"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
}

// ClaimCode is a single-use secret that creates a claim without review.
type ClaimCode struct {
	Code       string     `db:"code" json:"code"`
	WomID      int64      `db:"wom_id" json:"womId"`
	IssuedBy   string     `db:"issued_by" json:"issuedBy"`
	IssuedAt   time.Time  `db:"issued_at" json:"issuedAt"`
	ExpiresAt  *time.Time `db:"expires_at" json:"expiresAt,omitempty"`
	Consumed   bool       `db:"consumed" json:"consumed"`
	ConsumedBy *string    `db:"consumed_by" json:"consumedBy,omitempty"`
	ConsumedAt *time.Time `db:"consumed_at" json:"consumedAt,omitempty"`
}

// ExpiredAt reports whether the code is past its expiry at t. Codes without
// an expiry never expire.
func (c *ClaimCode) ExpiredAt(t time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(t)
}

// ClaimRequestStatus captures workflow states for claim requests.
type ClaimRequestStatus string

const (
	ClaimRequestPending  ClaimRequestStatus = "pending"
	ClaimRequestApproved ClaimRequestStatus = "approved"
	ClaimRequestDenied   ClaimRequestStatus = "denied"
)

// Valid reports whether s is a known status.
func (s ClaimRequestStatus) Valid() bool {
	switch s {
	case ClaimRequestPending, ClaimRequestApproved, ClaimRequestDenied:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s ClaimRequestStatus) Terminal() bool {
	return s == ClaimRequestApproved || s == ClaimRequestDenied
}

// ClaimRequest is an admin-reviewed request to claim a character.
type ClaimRequest struct {
	ID            string             `db:"id" json:"id"`
	AccountID     string             `db:"account_id" json:"accountId"`
	WomID         int64              `db:"wom_id" json:"womId"`
	CharacterName string             `db:"character_name" json:"characterName"`
	Message       *string            `db:"message" json:"message,omitempty"`
	Status        ClaimRequestStatus `db:"status" json:"status"`
	AdminNotes    *string            `db:"admin_notes" json:"adminNotes,omitempty"`
	ProcessedBy   *string            `db:"processed_by" json:"processedBy,omitempty"`
	CreatedAt     time.Time          `db:"created_at" json:"createdAt"`
	ProcessedAt   *time.Time         `db:"processed_at" json:"processedAt,omitempty"`
}

// ClaimRequestFilter constrains listing queries.
type ClaimRequestFilter struct {
	Status    []ClaimRequestStatus
	AccountID string
	WomID     int64
	Limit     int
	Offset    int
}
