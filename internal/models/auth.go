package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
	IsAdmin   bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Actor is the account on whose behalf a workflow call runs. It is passed
// explicitly into every service call instead of being read from session state.
type Actor struct {
	AccountID string
	IsAdmin   bool
}

// ActorFromClaims converts validated token claims into an Actor.
func ActorFromClaims(c *JWTClaims) Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{AccountID: c.AccountID, IsAdmin: c.IsAdmin}
}

// Authenticated reports whether the actor identifies an account.
func (a Actor) Authenticated() bool {
	return a.AccountID != ""
}

// CanActFor reports whether the actor may operate on accountID's data.
func (a Actor) CanActFor(accountID string) bool {
	return a.IsAdmin || (a.AccountID != "" && a.AccountID == accountID)
}

// SystemActor runs scheduled jobs with admin scope.
var SystemActor = Actor{AccountID: "system", IsAdmin: true}
