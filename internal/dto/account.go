package dto

// SetAdminRequest grants or revokes admin rights.
type SetAdminRequest struct {
	IsAdmin *bool `json:"isAdmin" validate:"required"`
}
