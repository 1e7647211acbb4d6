package models_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/salesjourney/backend/internal/models"
)

func TestUserRoleIsPartner(t *testing.T) {
	assert.True(t, models.RolePartner.IsPartner())
	assert.True(t, models.RoleCompanyOwner.IsPartner())
	assert.False(t, models.RoleSuperAdmin.IsPartner())
	assert.False(t, models.RoleManager.IsPartner())
	assert.False(t, models.RoleEmployee.IsPartner())
}

func TestUserPrepare(t *testing.T) {
	u := &models.User{Email: "  Someone@Example.com "}
	u.Prepare()

	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, "Someone@Example.com", u.Email)
	assert.Equal(t, models.RoleEmployee, u.Role)

	id := u.ID
	u.Prepare()
	assert.Equal(t, id, u.ID, "a set id is never regenerated")
}

func TestUserDisplayName(t *testing.T) {
	name := "sharkbait"
	u := &models.User{Username: &name, Email: "someone@example.com"}
	assert.Equal(t, "sharkbait", u.DisplayName())

	empty := ""
	u = &models.User{Username: &empty, Email: "someone@example.com"}
	assert.Equal(t, "someone", u.DisplayName())

	u = &models.User{Email: "weird-address"}
	assert.Equal(t, "weird-address", u.DisplayName())
}

func TestCompanyPrepareGeneratesCodes(t *testing.T) {
	c := &models.Company{Name: "Acme"}
	c.Prepare()

	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.Len(t, c.Slug, 8)
	assert.Len(t, c.InviteCode, 8)
	assert.Equal(t, strings.ToUpper(c.InviteCode), c.InviteCode)

	kept := &models.Company{Name: "Acme", InviteCode: "KEEPME12"}
	kept.Prepare()
	assert.Equal(t, "KEEPME12", kept.InviteCode)
}

func TestProfileLevel(t *testing.T) {
	p := &models.GamificationProfile{}
	assert.Equal(t, 1, p.Level())

	p.XP = 999
	assert.Equal(t, 1, p.Level())

	p.XP = 1000
	assert.Equal(t, 2, p.Level())

	p.XP = 12500
	assert.Equal(t, 13, p.Level())
}

func TestParseBuffType(t *testing.T) {
	for _, valid := range []string{"SHARK", "WOODPECKER", "ZEN"} {
		b, ok := models.ParseBuffType(valid)
		assert.True(t, ok)
		assert.Equal(t, models.BuffType(valid), b)
	}

	// Casing from the client does not matter.
	for _, lower := range []string{"shark", "Woodpecker", "zen"} {
		b, ok := models.ParseBuffType(lower)
		assert.True(t, ok, lower)
		assert.Equal(t, models.BuffType(strings.ToUpper(lower)), b)
	}

	_, ok := models.ParseBuffType("TURTLE")
	assert.False(t, ok)
	_, ok = models.ParseBuffType("")
	assert.False(t, ok)
}
