package models

import "time"

// Account is a portal user.
type Account struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	IsAdmin   bool      `db:"is_admin" json:"isAdmin"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
