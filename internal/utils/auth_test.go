package utils_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesjourney/backend/internal/utils"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := utils.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.Contains(t, hash, "argon2id$")

	assert.NoError(t, utils.VerifyPassword(hash, "correct horse battery staple"))
	assert.Error(t, utils.VerifyPassword(hash, "wrong password"))
}

func TestHashIsSalted(t *testing.T) {
	a, err := utils.Hash("same password")
	require.NoError(t, err)
	b, err := utils.Hash("same password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	assert.Error(t, utils.VerifyPassword("not a hash", "password"))
	assert.Error(t, utils.VerifyPassword("a$b$c$d$e$f", "password"))
}

func TestGenerateTempPassword(t *testing.T) {
	pw, err := utils.GenerateTempPassword()
	require.NoError(t, err)
	assert.NotEmpty(t, pw)

	other, err := utils.GenerateTempPassword()
	require.NoError(t, err)
	assert.NotEqual(t, pw, other)
}

func TestJWTRoundTrip(t *testing.T) {
	secret := []byte("unit-test-secret")
	userID := uuid.New()

	token, err := utils.GenerateJWT(userID, time.Minute, secret)
	require.NoError(t, err)

	claims, err := utils.VerifyJWT(token, secret)
	require.NoError(t, err)

	parsed, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	token, err := utils.GenerateJWT(uuid.New(), time.Minute, []byte("secret-a"))
	require.NoError(t, err)

	_, err = utils.VerifyJWT(token, []byte("secret-b"))
	assert.Error(t, err)
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	secret := []byte("unit-test-secret")
	token, err := utils.GenerateJWT(uuid.New(), -time.Minute, secret)
	require.NoError(t, err)

	_, err = utils.VerifyJWT(token, secret)
	assert.Error(t, err)
}
