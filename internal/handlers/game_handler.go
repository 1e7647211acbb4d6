package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salesjourney/backend/internal/middlewares"
	"github.com/salesjourney/backend/internal/models"
	"github.com/salesjourney/backend/internal/responses"
	"github.com/salesjourney/backend/internal/services"
	"github.com/salesjourney/backend/internal/utils"
)

type GameHandler struct {
	gameService      *services.GamificationService
	challengeService *services.ChallengeService
}

func NewGameHandler(gameService *services.GamificationService, challengeService *services.ChallengeService) *GameHandler {
	return &GameHandler{
		gameService:      gameService,
		challengeService: challengeService,
	}
}

// ChooseBuff locks today's strategy. A second attempt the same day gets 409.
func (h *GameHandler) ChooseBuff(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	var req struct {
		BuffType string `json:"buff_type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid Format")
		return
	}

	buff, ok := models.ParseBuffType(req.BuffType)
	if !ok {
		responses.Fail(c, http.StatusBadRequest, nil, "Unknown buff type")
		return
	}

	daily, err := h.gameService.ChooseBuff(c.Request.Context(), user.ID, buff)
	if err != nil {
		if err == services.ErrBuffAlreadyChosen {
			responses.Fail(c, http.StatusConflict, err, "Strategy already picked for today")
			return
		}
		responses.Fail(c, http.StatusInternalServerError, err, "Could not save strategy")
		return
	}
	responses.Success(c, http.StatusCreated, daily, "Strategy locked in")
}

func (h *GameHandler) Status(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	status, err := h.gameService.GetStatus(c.Request.Context(), user.ID)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load status")
		return
	}
	responses.Success(c, http.StatusOK, status, "Status loaded")
}

func (h *GameHandler) Stories(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil || user.CompanyID == nil {
		responses.Fail(c, http.StatusForbidden, nil, "No company membership")
		return
	}

	stories, err := h.gameService.Stories(c.Request.Context(), *user.CompanyID)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load stories")
		return
	}
	responses.Success(c, http.StatusOK, stories, "Stories loaded")
}

func (h *GameHandler) ListChallenges(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil || user.CompanyID == nil {
		responses.Fail(c, http.StatusForbidden, nil, "No company membership")
		return
	}

	challenges, err := h.challengeService.List(c.Request.Context(), *user.CompanyID)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load challenges")
		return
	}
	responses.Success(c, http.StatusOK, challenges, "Challenges loaded")
}

func (h *GameHandler) GetChallenge(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil || user.CompanyID == nil {
		responses.Fail(c, http.StatusForbidden, nil, "No company membership")
		return
	}

	challengeID, err := utils.ParseUUID(c.Param("challengeId"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid challenge id")
		return
	}

	view, err := h.challengeService.Get(c.Request.Context(), *user.CompanyID, challengeID)
	if err != nil {
		responses.Fail(c, http.StatusNotFound, err, "Challenge not found")
		return
	}
	responses.Success(c, http.StatusOK, view, "Challenge loaded")
}
