package models

import (
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserRole values mirror the role enum in the users table.
type UserRole string

const (
	RoleSuperAdmin   UserRole = "SUPER_ADMIN"
	RolePartner      UserRole = "PARTNER"
	RoleCompanyOwner UserRole = "COMPANY_OWNER"
	RoleManager      UserRole = "MANAGER"
	RoleEmployee     UserRole = "EMPLOYEE"
)

// IsPartner reports whether the role may own companies.
func (r UserRole) IsPartner() bool {
	return r == RolePartner || r == RoleCompanyOwner
}

// User matches the users table. Username is nullable because login also
// works with email alone; avatars are stored directly in the row.
type User struct {
	ID                 uuid.UUID  `json:"id"`
	Username           *string    `json:"username,omitempty"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"`
	MustChangePassword bool       `json:"must_change_password"`
	Role               UserRole   `json:"role"`
	CompanyID          *uuid.UUID `json:"company_id,omitempty"`
	AvatarData         []byte     `json:"-"`
	AvatarMimetype     *string    `json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
}

func (u *User) Prepare() {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = html.EscapeString(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleEmployee
	}
}

// DisplayName falls back to the email local part when no username is set.
func (u *User) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	if i := strings.IndexByte(u.Email, '@'); i > 0 {
		return u.Email[:i]
	}
	return u.Email
}

// PartnerUser links a user to the companies they own.
type PartnerUser struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
}

func (p *PartnerUser) Prepare() {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
}
