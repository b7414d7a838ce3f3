package dto

import (
	"time"

	"github.com/atayl16/siege-clan-tracker/internal/models"
	"github.com/atayl16/siege-clan-tracker/internal/stats"
)

// GoalTargetMode selects how TargetValue is interpreted on creation.
type GoalTargetMode string

const (
	// TargetAbsolute treats TargetValue as the final value.
	TargetAbsolute GoalTargetMode = "absolute"
	// TargetGain treats TargetValue as an amount to gain from the current value.
	TargetGain GoalTargetMode = "gain"
)

// CreateGoalRequest creates a goal on a claimed character.
type CreateGoalRequest struct {
	WomID       int64            `json:"womId" validate:"required,gt=0"`
	GoalType    stats.MetricType `json:"goalType" validate:"required,oneof=skill boss"`
	Metric      string           `json:"metric" validate:"required,max=64"`
	TargetValue int64            `json:"targetValue" validate:"required,gt=0"`
	TargetMode  GoalTargetMode   `json:"targetMode" validate:"omitempty,oneof=absolute gain"`
	TargetDate  *time.Time       `json:"targetDate"`
	IsPublic    bool             `json:"isPublic"`
}

// SyncGoalsRequest names the (account, character) pair to synchronize.
type SyncGoalsRequest struct {
	WomID     int64  `json:"womId" validate:"required,gt=0"`
	AccountID string `json:"accountId" validate:"required"`
}

// SyncGoalsResult summarizes one synchronization run.
type SyncGoalsResult struct {
	Updated   int `json:"updated"`
	Completed int `json:"completed"`
}

// GoalView is a goal as returned to callers, with its completion fraction.
type GoalView struct {
	models.Goal
	Progress float64 `json:"progress"`
}

// NewGoalViews decorates goals with their progress.
func NewGoalViews(goals []models.Goal) []GoalView {
	views := make([]GoalView, 0, len(goals))
	for i := range goals {
		views = append(views, GoalView{Goal: goals[i], Progress: goals[i].Progress()})
	}
	return views
}

// MetricCatalog lists the metric names a goal of the given type may target.
type MetricCatalog struct {
	GoalType stats.MetricType `json:"goalType"`
	Metrics  []string         `json:"metrics"`
}
