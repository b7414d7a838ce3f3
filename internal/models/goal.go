package models

import (
	"time"

	"github.com/atayl16/siege-clan-tracker/internal/stats"
)

// Goal is a user-defined absolute target for a skill or boss metric.
type Goal struct {
	ID           string           `db:"id" json:"id"`
	AccountID    string           `db:"account_id" json:"accountId"`
	WomID        int64            `db:"wom_id" json:"womId"`
	GoalType     stats.MetricType `db:"goal_type" json:"goalType"`
	Metric       string           `db:"metric" json:"metric"`
	StartValue   int64            `db:"start_value" json:"startValue"`
	CurrentValue int64            `db:"current_value" json:"currentValue"`
	TargetValue  int64            `db:"target_value" json:"targetValue"`
	TargetDate   *time.Time       `db:"target_date" json:"targetDate,omitempty"`
	Completed    bool             `db:"completed" json:"completed"`
	CompletedAt  *time.Time       `db:"completed_at" json:"completedAt,omitempty"`
	IsPublic     bool             `db:"is_public" json:"isPublic"`
	CreatedAt    time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updatedAt"`
}

// Progress returns the fraction of the way from start to target, clamped to [0, 1].
func (g *Goal) Progress() float64 {
	span := g.TargetValue - g.StartValue
	if span <= 0 {
		if g.CurrentValue >= g.TargetValue {
			return 1
		}
		return 0
	}
	p := float64(g.CurrentValue-g.StartValue) / float64(span)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// GoalFilter constrains goal listing.
type GoalFilter struct {
	AccountID  string
	WomID      int64
	OnlyOpen   bool
	OnlyPublic bool
}

// GoalProgressUpdate is one synchronizer write.
type GoalProgressUpdate struct {
	ID           string
	CurrentValue int64
	Complete     bool
	At           time.Time
}

// SyncTarget names an (account, character) pair with open goals.
type SyncTarget struct {
	AccountID string `db:"account_id"`
	WomID     int64  `db:"wom_id"`
}
