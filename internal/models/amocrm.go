package models

import (
	"time"

	"github.com/google/uuid"
)

// AmoCRMConnection keeps per-company OAuth credentials and tokens.
// Token timestamps are unix seconds, matching what the AmoCRM token
// endpoint returns.
type AmoCRMConnection struct {
	ID           uuid.UUID `json:"id"`
	CompanyID    uuid.UUID `json:"company_id"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    int64     `json:"token_expires_at"`
	BaseDomain   string    `json:"base_domain"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"-"`
	LastSyncAt   int64     `json:"last_sync_at"`
}

func (c *AmoCRMConnection) Prepare() {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
}

// AmoCRMUserMap links a platform user to the responsible user id in AmoCRM.
type AmoCRMUserMap struct {
	ID             uuid.UUID `json:"id"`
	CompanyID      uuid.UUID `json:"company_id"`
	PlatformUserID uuid.UUID `json:"platform_user_id"`
	AmoCRMUserID   int64     `json:"amocrm_user_id"`
}

func (m *AmoCRMUserMap) Prepare() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
}

// UserDailyStat is one synced day of CRM activity for a platform user.
type UserDailyStat struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	Date         time.Time  `json:"date"`
	CallsCount   int        `json:"calls_count"`
	TalkSeconds  int        `json:"talk_seconds"`
	LeadsCreated int        `json:"leads_created"`
	LeadsWon     int        `json:"leads_won"`
	LeadsLost    int        `json:"leads_lost"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

func (s *UserDailyStat) Prepare() {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
}

// Conversion is the win rate in percent: won / (won + lost).
func (s *UserDailyStat) Conversion() float64 {
	closed := s.LeadsWon + s.LeadsLost
	if closed == 0 {
		return 0
	}
	return float64(int(float64(s.LeadsWon)/float64(closed)*1000+0.5)) / 10
}

// MinutesTalked converts talk time to minutes with one decimal.
func (s *UserDailyStat) MinutesTalked() float64 {
	return float64(int(float64(s.TalkSeconds)/60*10+0.5)) / 10
}
