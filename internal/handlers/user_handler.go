package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/salesjourney/backend/internal/middlewares"
	"github.com/salesjourney/backend/internal/responses"
	"github.com/salesjourney/backend/internal/services"
	"github.com/salesjourney/backend/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Me(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load profile")
		return
	}
	responses.Success(c, http.StatusOK, profile, "Profile loaded")
}

func (h *UserHandler) UpdateUsername(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	var req struct {
		Username string `json:"username" binding:"required,min=3,max=32"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid Format")
		return
	}

	if err := h.userService.UpdateUsername(c.Request.Context(), user.ID, req.Username); err != nil {
		responses.Fail(c, http.StatusConflict, err, "Could not update username")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"username": req.Username}, "Username updated")
}

// UploadAvatar accepts a multipart form with an "avatar" file field.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Missing avatar file")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not read avatar file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not read avatar file")
		return
	}

	mimetype := fileHeader.Header.Get("Content-Type")
	if err := h.userService.UpdateAvatar(c.Request.Context(), user.ID, data, mimetype); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not save avatar")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Avatar updated")
}

// Avatar serves the raw image bytes for any user in the viewer's company.
func (h *UserHandler) Avatar(c *gin.Context) {
	userID, err := utils.ParseUUID(c.Param("userId"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid user id")
		return
	}

	data, mimetype, err := h.userService.GetAvatar(c.Request.Context(), userID)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load avatar")
		return
	}
	if len(data) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(http.StatusOK, mimetype, data)
}

// GetUser serves a teammate's card with today's synced numbers.
func (h *UserHandler) GetUser(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	targetID, err := utils.ParseUUID(c.Param("userId"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid user id")
		return
	}

	detail, err := h.userService.GetUser(c.Request.Context(), user, targetID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotVisible) {
			responses.Fail(c, http.StatusForbidden, err, "User not visible")
			return
		}
		responses.Fail(c, http.StatusNotFound, err, "Could not load user")
		return
	}
	responses.Success(c, http.StatusOK, detail, "User loaded")
}

// Dashboard aggregates everything the landing screen renders in one call.
func (h *UserHandler) Dashboard(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	dash, err := h.userService.Dashboard(c.Request.Context(), user)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load dashboard")
		return
	}
	responses.Success(c, http.StatusOK, dash, "Dashboard loaded")
}

func (h *UserHandler) Leaderboard(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil || user.CompanyID == nil {
		responses.Fail(c, http.StatusForbidden, nil, "No company membership")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.userService.Leaderboard(c.Request.Context(), *user.CompanyID, limit)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load leaderboard")
		return
	}
	responses.Success(c, http.StatusOK, entries, "Leaderboard loaded")
}

func (h *UserHandler) Achievements(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	statuses, err := h.userService.ListAchievements(c.Request.Context(), user.ID)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load achievements")
		return
	}
	responses.Success(c, http.StatusOK, statuses, "Achievements loaded")
}

// RewardModal hands over the pending morning popup, clearing it in the
// same call.
func (h *UserHandler) RewardModal(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	modal, err := h.userService.ConsumeRewardModal(c.Request.Context(), user.ID)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load reward")
		return
	}
	responses.Success(c, http.StatusOK, modal, "Reward loaded")
}
