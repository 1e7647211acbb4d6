package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salesjourney/backend/internal/middlewares"
	"github.com/salesjourney/backend/internal/responses"
	"github.com/salesjourney/backend/internal/services"
)

// Cookie configuration
const (
	RefreshTokenCookieName = "refresh_token"
	RefreshTokenMaxAge     = 30 * 24 * 3600 // 30 days in seconds
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username   string `json:"username"`
		Email      string `json:"email"       binding:"required,email"`
		Password   string `json:"password"    binding:"required,min=8"`
		InviteCode string `json:"invite_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Please provide email, password and invite code")
		return
	}

	user, accessToken, refreshToken, err := h.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.InviteCode)
	if err != nil {
		switch err {
		case services.ErrInviteCodeUnknown:
			responses.Fail(c, http.StatusNotFound, err, "Invite code not recognized")
		case services.ErrUserExists:
			responses.Fail(c, http.StatusConflict, err, "Account already exists")
		default:
			responses.Fail(c, http.StatusInternalServerError, err, "Could not register user")
		}
		return
	}

	c.SetCookie(RefreshTokenCookieName, refreshToken, RefreshTokenMaxAge, "/", "", true, true)

	res := gin.H{
		"access_token": accessToken,
		"user":         user,
	}
	responses.Success(c, http.StatusCreated, res, "New user registered successfully!")
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Identity string `json:"identity" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid Format")
		return
	}

	user, accessToken, refreshToken, err := h.authService.Login(c.Request.Context(), req.Identity, req.Password)
	if err != nil {
		responses.Fail(c, http.StatusUnauthorized, err, "Failed to login")
		return
	}

	c.SetCookie(RefreshTokenCookieName, refreshToken, RefreshTokenMaxAge, "/", "", true, true)

	res := gin.H{
		"access_token":         accessToken,
		"user":                 user,
		"must_change_password": user.MustChangePassword,
	}
	responses.Success(c, http.StatusOK, res, "User Login Successfully!")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(RefreshTokenCookieName, "", -1, "/", "", true, true)
	responses.Success(c, http.StatusOK, nil, "Logged out successfully")
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(RefreshTokenCookieName)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Missing refresh token")
		return
	}

	accessToken, newRefreshToken, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		c.SetCookie(RefreshTokenCookieName, "", -1, "/", "", true, true)
		responses.Fail(c, http.StatusUnauthorized, err, "Invalid or expired refresh token")
		return
	}

	c.SetCookie(RefreshTokenCookieName, newRefreshToken, RefreshTokenMaxAge, "/", "", true, true)

	responses.Success(c, http.StatusOK, gin.H{"access_token": accessToken}, "Access token refreshed successfully")
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	var req struct {
		CurrentPassword         string `json:"current_password"`
		NewPassword             string `json:"new_password"              binding:"required,min=8"`
		NewPasswordConfirmation string `json:"new_password_confirmation" binding:"required,eqfield=NewPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid Format")
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		if err == services.ErrInvalidCredentials {
			responses.Fail(c, http.StatusUnauthorized, err, "Current password is wrong")
			return
		}
		responses.Fail(c, http.StatusInternalServerError, err, "Could not change password")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Password changed successfully")
}
