package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/salesjourney/backend/internal/middlewares"
	"github.com/salesjourney/backend/internal/models"
	"github.com/salesjourney/backend/internal/responses"
	"github.com/salesjourney/backend/internal/services"
)

type PartnerHandler struct {
	partnerService   *services.PartnerService
	challengeService *services.ChallengeService
}

func NewPartnerHandler(partnerService *services.PartnerService, challengeService *services.ChallengeService) *PartnerHandler {
	return &PartnerHandler{
		partnerService:   partnerService,
		challengeService: challengeService,
	}
}

// companyID reads the id stored by the PartnerOwnsCompany middleware.
func companyID(c *gin.Context) uuid.UUID {
	value, _ := c.Get("companyId")
	id, _ := value.(uuid.UUID)
	return id
}

func (h *PartnerHandler) MyCompanies(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	companies, err := h.partnerService.ListCompanies(c.Request.Context(), user.ID)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load companies")
		return
	}
	responses.Success(c, http.StatusOK, companies, "Companies loaded")
}

func (h *PartnerHandler) Members(c *gin.Context) {
	members, err := h.partnerService.Members(c.Request.Context(), companyID(c))
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load members")
		return
	}
	responses.Success(c, http.StatusOK, members, "Members loaded")
}

func (h *PartnerHandler) Scoreboard(c *gin.Context) {
	rows, err := h.partnerService.Scoreboard(c.Request.Context(), companyID(c))
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load scoreboard")
		return
	}
	responses.Success(c, http.StatusOK, rows, "Scoreboard loaded")
}

func (h *PartnerHandler) ListChallenges(c *gin.Context) {
	views, err := h.challengeService.List(c.Request.Context(), companyID(c))
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load challenges")
		return
	}
	responses.Success(c, http.StatusOK, views, "Challenges loaded")
}

// ChallengeLeaderboard serves the running challenge closing soonest.
func (h *PartnerHandler) ChallengeLeaderboard(c *gin.Context) {
	view, err := h.challengeService.NearestActive(c.Request.Context(), companyID(c))
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load challenge leaderboard")
		return
	}
	responses.Success(c, http.StatusOK, view, "Challenge leaderboard loaded")
}

func (h *PartnerHandler) CreateChallenge(c *gin.Context) {
	var req struct {
		Name        string `json:"name"       binding:"required"`
		Description string `json:"description"`
		StartDate   string `json:"start_date" binding:"required"`
		EndDate     string `json:"end_date"   binding:"required"`
		GoalType    string `json:"goal_type"  binding:"required"`
		GoalValue   int64  `json:"goal_value" binding:"required"`
		Mode        string `json:"mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid Format")
		return
	}

	goalType, ok := models.ParseChallengeGoalType(req.GoalType)
	if !ok {
		responses.Fail(c, http.StatusBadRequest, nil, "Unknown goal type")
		return
	}
	mode := models.ModePersonal
	if req.Mode != "" {
		parsed, ok := models.ParseChallengeMode(req.Mode)
		if !ok {
			responses.Fail(c, http.StatusBadRequest, nil, "Unknown challenge mode")
			return
		}
		mode = parsed
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid start date")
		return
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid end date")
		return
	}

	challenge, err := h.challengeService.Create(c.Request.Context(), services.CreateChallengeInput{
		CompanyID:   companyID(c),
		Name:        req.Name,
		Description: req.Description,
		StartDate:   startDate,
		EndDate:     endDate,
		GoalType:    goalType,
		GoalValue:   req.GoalValue,
		Mode:        mode,
	})
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not create challenge")
		return
	}
	responses.Success(c, http.StatusCreated, challenge, "Challenge created")
}
