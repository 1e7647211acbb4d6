package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Company struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	InviteCode     string    `json:"invite_code"`
	OwnerPartnerID uuid.UUID `json:"owner_partner_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func (c *Company) Prepare() {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Slug == "" {
		c.Slug = uuid.NewString()[:8]
	}
	if c.InviteCode == "" {
		c.InviteCode = strings.ToUpper(uuid.NewString()[:8])
	}
}
