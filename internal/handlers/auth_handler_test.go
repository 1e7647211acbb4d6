package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/salesjourney/backend/internal/handlers"
	"github.com/salesjourney/backend/internal/models"
)

// The auth service is nil on purpose. Requests that fail validation must be
// rejected before the handler ever touches it.
func authTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handlers.NewAuthHandler(nil)

	router := gin.New()
	router.POST("/auth/register", h.Register)
	router.POST("/auth/change-password", func(c *gin.Context) {
		c.Set("currentUser", &models.User{ID: uuid.New()})
		h.ChangePassword(c)
	})
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	router := authTestRouter()

	rec := postJSON(router, "/auth/register",
		`{"email":"new@example.com","password":"seven77","invite_code":"CODE"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangePasswordRejectsShortPassword(t *testing.T) {
	router := authTestRouter()

	rec := postJSON(router, "/auth/change-password",
		`{"current_password":"old-password","new_password":"short67","new_password_confirmation":"short67"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangePasswordRejectsMismatchedConfirmation(t *testing.T) {
	router := authTestRouter()

	rec := postJSON(router, "/auth/change-password",
		`{"current_password":"old-password","new_password":"longenough1","new_password_confirmation":"different99"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangePasswordRequiresConfirmation(t *testing.T) {
	router := authTestRouter()

	rec := postJSON(router, "/auth/change-password",
		`{"current_password":"old-password","new_password":"longenough1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
