package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BuffType is the daily strategy an employee picks each morning.
type BuffType string

const (
	BuffShark      BuffType = "SHARK"
	BuffWoodpecker BuffType = "WOODPECKER"
	BuffZen        BuffType = "ZEN"
)

// ParseBuffType validates a client-supplied buff name, ignoring case.
func ParseBuffType(s string) (BuffType, bool) {
	buff := BuffType(strings.ToUpper(s))
	switch buff {
	case BuffShark, BuffWoodpecker, BuffZen:
		return buff, true
	}
	return "", false
}

// GamificationProfile holds the coin/XP wallet and streak state of a user.
// LastRewardData is the snapshot written by the nightly job and surfaced
// once on the dashboard when ShowRewardModal is set.
type GamificationProfile struct {
	ID                   uuid.UUID      `json:"id"`
	UserID               uuid.UUID      `json:"user_id"`
	Coins                int64          `json:"coins"`
	XP                   int64          `json:"xp"`
	CurrentStreak        int            `json:"current_streak"`
	LastActivityDate     *time.Time     `json:"last_activity_date,omitempty"`
	LastRewardData       map[string]any `json:"last_reward_data,omitempty"`
	ShowRewardModal      bool           `json:"show_reward_modal"`
	PendingAchievementID *uuid.UUID     `json:"pending_achievement_id,omitempty"`
}

func (p *GamificationProfile) Prepare() {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
}

// Level is derived from XP: every 1000 XP is one level, starting at 1.
func (p *GamificationProfile) Level() int {
	return 1 + int(p.XP/1000)
}

// DailyBuff records the strategy chosen for one day. One row per user per day.
type DailyBuff struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Date     time.Time `json:"date"`
	BuffType BuffType  `json:"buff_type"`
}

func (b *DailyBuff) Prepare() {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
}

// Transaction is a coin ledger entry. Negative amounts are purchases.
type Transaction struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Amount    int64     `json:"amount"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *Transaction) Prepare() {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
}

// DailyStory is a per-day highlight (top caller, best conversion, most wins)
// produced by the nightly job.
type DailyStory struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`
	UserID    uuid.UUID `json:"user_id"`
	StoryType string    `json:"story_type"` // CALLS, CONV or WINS
	Value     float64   `json:"value"`
	Date      time.Time `json:"date"`
}

func (s *DailyStory) Prepare() {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
}

// Achievement is a threshold-based award definition.
type Achievement struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	IconCode       string    `json:"icon_code"`
	ConditionType  string    `json:"condition_type"` // calls, mins or conv
	ConditionValue int       `json:"condition_value"`
}

func (a *Achievement) Prepare() {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
}

type UserAchievement struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	AchievementID uuid.UUID `json:"achievement_id"`
	EarnedAt      time.Time `json:"earned_at"`
}

func (a *UserAchievement) Prepare() {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
}
