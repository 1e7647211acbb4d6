package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/salesjourney/backend/internal/middlewares"
	"github.com/salesjourney/backend/internal/responses"
	"github.com/salesjourney/backend/internal/services"
	"github.com/salesjourney/backend/internal/utils"
)

type CRMHandler struct {
	crmService *services.AmoCRMService
}

func NewCRMHandler(crmService *services.AmoCRMService) *CRMHandler {
	return &CRMHandler{crmService: crmService}
}

// Connect stores the integration credentials and returns the AmoCRM
// authorization URL for the owner to visit.
func (h *CRMHandler) Connect(c *gin.Context) {
	var req struct {
		ClientID     string `json:"client_id"     binding:"required"`
		ClientSecret string `json:"client_secret" binding:"required"`
		BaseDomain   string `json:"base_domain"   binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Please provide client id, secret and account domain")
		return
	}

	authURL, err := h.crmService.Connect(c.Request.Context(), companyID(c), req.ClientID, req.ClientSecret, req.BaseDomain)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not start connection")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"auth_url": authURL}, "Visit the authorization URL to finish connecting")
}

// Callback is the single public OAuth endpoint all companies share. The
// signed state parameter routes the code to the right connection.
func (h *CRMHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	referer := c.Query("referer")
	if code == "" || state == "" {
		responses.Fail(c, http.StatusBadRequest, nil, "Missing code or state")
		return
	}

	companyID, err := h.crmService.HandleCallback(c.Request.Context(), code, state, referer)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Connection failed")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"company_id": companyID}, "AmoCRM connected")
}

func (h *CRMHandler) Status(c *gin.Context) {
	status, err := h.crmService.Status(c.Request.Context(), companyID(c))
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load status")
		return
	}
	responses.Success(c, http.StatusOK, status, "Status loaded")
}

func (h *CRMHandler) Unlink(c *gin.Context) {
	if err := h.crmService.Unlink(c.Request.Context(), companyID(c)); err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not unlink")
		return
	}
	responses.Success(c, http.StatusOK, nil, "AmoCRM disconnected")
}

func (h *CRMHandler) Users(c *gin.Context) {
	users, err := h.crmService.Users(c.Request.Context(), companyID(c))
	if err != nil {
		if err == services.ErrNotConnected {
			responses.Fail(c, http.StatusConflict, err, "AmoCRM is not connected")
			return
		}
		responses.Fail(c, http.StatusBadGateway, err, "Could not load CRM users")
		return
	}
	responses.Success(c, http.StatusOK, users, "CRM users loaded")
}

func (h *CRMHandler) ListMappings(c *gin.Context) {
	mappings, err := h.crmService.ListMappings(c.Request.Context(), companyID(c))
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load mappings")
		return
	}
	responses.Success(c, http.StatusOK, mappings, "Mappings loaded")
}

func (h *CRMHandler) SetMapping(c *gin.Context) {
	var req struct {
		UserID       string `json:"user_id"        binding:"required"`
		AmoCRMUserID int64  `json:"amocrm_user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid Format")
		return
	}
	userID, err := utils.ParseUUID(req.UserID)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid user id")
		return
	}

	if err := h.crmService.SetMapping(c.Request.Context(), companyID(c), userID, req.AmoCRMUserID); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not save mapping")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Mapping saved")
}

func (h *CRMHandler) Stats(c *gin.Context) {
	minTotal, _ := strconv.Atoi(c.DefaultQuery("min_total", "0"))
	summary, period, err := h.crmService.Stats(
		c.Request.Context(),
		companyID(c),
		c.DefaultQuery("range", "this_week"),
		c.Query("from"),
		c.Query("to"),
		c.DefaultQuery("sort", "won_desc"),
		minTotal,
		c.Query("q"),
	)
	if err != nil {
		if err == services.ErrNotConnected {
			responses.Fail(c, http.StatusConflict, err, "AmoCRM is not connected")
			return
		}
		responses.Fail(c, http.StatusBadGateway, err, "Could not compute stats")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"period": period, "summary": summary}, "Stats computed")
}

// ExportStats streams the same table as a CSV download.
func (h *CRMHandler) ExportStats(c *gin.Context) {
	minTotal, _ := strconv.Atoi(c.DefaultQuery("min_total", "0"))

	filename := fmt.Sprintf("stats_%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	err := h.crmService.ExportCSV(
		c.Request.Context(),
		c.Writer,
		companyID(c),
		c.DefaultQuery("range", "this_week"),
		c.Query("from"),
		c.Query("to"),
		c.DefaultQuery("sort", "won_desc"),
		minTotal,
		c.Query("q"),
	)
	if err != nil {
		c.Status(http.StatusBadGateway)
	}
}

func (h *CRMHandler) Realtime(c *gin.Context) {
	rows, err := h.crmService.Realtime(c.Request.Context(), companyID(c))
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load realtime board")
		return
	}
	responses.Success(c, http.StatusOK, rows, "Realtime board loaded")
}

// SyncMe pulls the calling employee's own numbers for today.
func (h *CRMHandler) SyncMe(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	stat, err := h.crmService.SyncUserStats(c.Request.Context(), user)
	if err != nil {
		switch err {
		case services.ErrUserNotMapped:
			responses.Fail(c, http.StatusConflict, err, "Your account is not mapped to a CRM user")
		case services.ErrNotConnected:
			responses.Fail(c, http.StatusConflict, err, "AmoCRM is not connected")
		default:
			responses.Fail(c, http.StatusBadGateway, err, "Sync failed")
		}
		return
	}
	responses.Success(c, http.StatusOK, stat, "Stats synced")
}

// SyncCompany refreshes daily stats for every mapped employee of the
// company.
func (h *CRMHandler) SyncCompany(c *gin.Context) {
	synced, err := h.crmService.SyncCompany(c.Request.Context(), companyID(c))
	if err != nil {
		responses.Fail(c, http.StatusBadGateway, err, "Sync failed")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"synced": synced}, "Company synced")
}

// Inspect dumps raw CRM data bound to one entity, for debugging telephony
// integrations.
func (h *CRMHandler) Inspect(c *gin.Context) {
	report, err := h.crmService.Inspect(c.Request.Context(), companyID(c), c.Param("entityType"), c.Param("entityId"))
	if err != nil {
		responses.Fail(c, http.StatusBadGateway, err, "Inspection failed")
		return
	}
	responses.Success(c, http.StatusOK, report, "Entity inspected")
}
