package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/salesjourney/backend/internal/handlers"
	"github.com/salesjourney/backend/internal/middlewares"
	"github.com/salesjourney/backend/internal/repositories"
	"github.com/salesjourney/backend/internal/services"
)

type CRMRoutes struct {
	handler        *handlers.CRMHandler
	userRepo       *repositories.UserRepository
	partnerService *services.PartnerService
}

func NewCRMRoutes(handler *handlers.CRMHandler, userRepo *repositories.UserRepository, partnerService *services.PartnerService) *CRMRoutes {
	return &CRMRoutes{handler: handler, userRepo: userRepo, partnerService: partnerService}
}

func (r *CRMRoutes) RegisterRoutes(router *gin.RouterGroup) {
	crm := router.Group("/crm")
	{
		// AmoCRM redirects here; no auth context exists on this request.
		crm.GET("/callback", r.handler.Callback)

		authed := crm.Group("/")
		authed.Use(middlewares.Authenticate(r.userRepo))
		authed.POST("/my/sync", r.handler.SyncMe)

		owned := crm.Group("/companies/:companyId")
		owned.Use(middlewares.Authenticate(r.userRepo), middlewares.RequirePartner(), middlewares.PartnerOwnsCompany(r.partnerService))
		{
			owned.POST("/connect", r.handler.Connect)
			owned.GET("/status", r.handler.Status)
			owned.DELETE("/connection", r.handler.Unlink)
			owned.GET("/users", r.handler.Users)
			owned.GET("/mappings", r.handler.ListMappings)
			owned.POST("/mappings", r.handler.SetMapping)
			owned.GET("/stats", r.handler.Stats)
			owned.GET("/stats/export", r.handler.ExportStats)
			owned.POST("/sync", r.handler.SyncCompany)
			owned.GET("/realtime", r.handler.Realtime)
			owned.GET("/inspect/:entityType/:entityId", r.handler.Inspect)
		}
	}
}
