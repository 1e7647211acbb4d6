package models

import (
	"time"

	"github.com/google/uuid"
)

type ChallengeGoalType string

const (
	GoalSalesCount  ChallengeGoalType = "SALES_COUNT"
	GoalSalesVolume ChallengeGoalType = "SALES_VOLUME"
	GoalCallsCount  ChallengeGoalType = "CALLS_COUNT"
)

func ParseChallengeGoalType(s string) (ChallengeGoalType, bool) {
	switch ChallengeGoalType(s) {
	case GoalSalesCount, GoalSalesVolume, GoalCallsCount:
		return ChallengeGoalType(s), true
	}
	return "", false
}

type ChallengeMode string

const (
	ModePersonal ChallengeMode = "PERSONAL"
	ModeTeam     ChallengeMode = "TEAM"
)

func ParseChallengeMode(s string) (ChallengeMode, bool) {
	switch ChallengeMode(s) {
	case ModePersonal, ModeTeam:
		return ChallengeMode(s), true
	}
	return "", false
}

// Challenge is a time-boxed company goal. Dates are inclusive day bounds.
type Challenge struct {
	ID          uuid.UUID         `json:"id"`
	CompanyID   uuid.UUID         `json:"company_id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	StartDate   time.Time         `json:"start_date"`
	EndDate     time.Time         `json:"end_date"`
	GoalType    ChallengeGoalType `json:"goal_type"`
	GoalValue   int64             `json:"goal_value"`
	Mode        ChallengeMode     `json:"mode"`
	IsActive    bool              `json:"is_active"`
}

func (c *Challenge) Prepare() {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Mode == "" {
		c.Mode = ModePersonal
	}
}

// ChallengeProgress accumulates one user's contribution to a challenge.
type ChallengeProgress struct {
	ID           uuid.UUID `json:"id"`
	ChallengeID  uuid.UUID `json:"challenge_id"`
	UserID       uuid.UUID `json:"user_id"`
	CurrentValue int64     `json:"current_value"`
	LastUpdated  time.Time `json:"last_updated"`
}

func (p *ChallengeProgress) Prepare() {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
}
