package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salesjourney/backend/internal/responses"
	"github.com/salesjourney/backend/internal/services"
	"github.com/salesjourney/backend/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) Overview(c *gin.Context) {
	overview, err := h.adminService.Overview(c.Request.Context())
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load overview")
		return
	}
	responses.Success(c, http.StatusOK, overview, "Overview loaded")
}

func (h *AdminHandler) ListCompanies(c *gin.Context) {
	companies, err := h.adminService.ListCompanies(c.Request.Context())
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load companies")
		return
	}
	responses.Success(c, http.StatusOK, companies, "Companies loaded")
}

func (h *AdminHandler) ListPartners(c *gin.Context) {
	partners, err := h.adminService.ListPartners(c.Request.Context())
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load partners")
		return
	}
	responses.Success(c, http.StatusOK, partners, "Partners loaded")
}

// CreateCompany provisions a company and its owner in one step. For a
// brand-new owner the response carries the one-time password; a known
// email reuses the existing account.
func (h *AdminHandler) CreateCompany(c *gin.Context) {
	var req struct {
		Name       string `json:"name"        binding:"required"`
		OwnerEmail string `json:"owner_email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Please provide a company name and owner email")
		return
	}

	created, err := h.adminService.CreateCompany(c.Request.Context(), req.Name, req.OwnerEmail)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not create company")
		return
	}
	responses.Success(c, http.StatusCreated, created, "Company created")
}

func (h *AdminHandler) DeleteCompany(c *gin.Context) {
	companyID, err := utils.ParseUUID(c.Param("companyId"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid company id")
		return
	}

	if err := h.adminService.DeleteCompany(c.Request.Context(), companyID); err != nil {
		responses.Fail(c, http.StatusNotFound, err, "Could not delete company")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Company deleted")
}
