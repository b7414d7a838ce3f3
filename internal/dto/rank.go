package dto

import "github.com/atayl16/siege-clan-tracker/internal/rank"

// RankView pairs a character with its rank evaluation.
type RankView struct {
	WomID      int64           `json:"womId"`
	Evaluation rank.Evaluation `json:"evaluation"`
}

// RankChange reports a role rewrite performed by an admin action.
type RankChange struct {
	WomID        int64  `json:"womId"`
	PreviousRole string `json:"previousRole"`
	CurrentRole  string `json:"currentRole"`
}
