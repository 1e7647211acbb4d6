package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/salesjourney/backend/internal/handlers"
	"github.com/salesjourney/backend/internal/middlewares"
	"github.com/salesjourney/backend/internal/repositories"
)

type AdminRoutes struct {
	handler  *handlers.AdminHandler
	userRepo *repositories.UserRepository
}

func NewAdminRoutes(handler *handlers.AdminHandler, userRepo *repositories.UserRepository) *AdminRoutes {
	return &AdminRoutes{handler: handler, userRepo: userRepo}
}

func (r *AdminRoutes) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin")
	admin.Use(middlewares.Authenticate(r.userRepo), middlewares.RequireSuperAdmin())
	{
		admin.GET("/overview", r.handler.Overview)
		admin.GET("/companies", r.handler.ListCompanies)
		admin.POST("/companies", r.handler.CreateCompany)
		admin.DELETE("/companies/:companyId", r.handler.DeleteCompany)
		admin.GET("/partners", r.handler.ListPartners)
	}
}
