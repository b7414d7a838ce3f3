package models

import (
	"time"

	"github.com/atayl16/siege-clan-tracker/internal/rank"
)

// Character is a tracked game character keyed by its Wise Old Man id.
type Character struct {
	WomID             int64      `db:"wom_id" json:"womId"`
	Name              string     `db:"name" json:"name"`
	DisplayName       string     `db:"display_name" json:"displayName"`
	CurrentRole       string     `db:"current_role" json:"currentRole"`
	EHB               float64    `db:"ehb" json:"ehb"`
	CurrentExperience int64      `db:"current_experience" json:"currentExperience"`
	InitialExperience int64      `db:"initial_experience" json:"initialExperience"`
	SiegeScore        int        `db:"siege_score" json:"siegeScore"`
	JoinDate          *time.Time `db:"join_date" json:"joinDate,omitempty"`
	Hidden            bool       `db:"hidden" json:"hidden"`
	NotFoundUpstream  bool       `db:"not_found_upstream" json:"notFoundUpstream"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}

// Label returns the display name, falling back to the name.
func (c *Character) Label() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Name
}

// RankStats projects the fields the rank classifier reads.
func (c *Character) RankStats() rank.Stats {
	return rank.Stats{
		Name:              c.Label(),
		Role:              c.CurrentRole,
		EHB:               c.EHB,
		CurrentExperience: c.CurrentExperience,
		InitialExperience: c.InitialExperience,
	}
}

// CharacterStatsUpdate carries refreshed upstream numbers for a character.
type CharacterStatsUpdate struct {
	WomID             int64
	DisplayName       string
	CurrentExperience int64
	EHB               float64
	NotFoundUpstream  bool
	UpdatedAt         time.Time
}
