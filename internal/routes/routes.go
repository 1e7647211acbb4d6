package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salesjourney/backend/internal/handlers"
	"github.com/salesjourney/backend/internal/repositories"
	"github.com/salesjourney/backend/internal/services"
)

// Handlers bundles everything RegisterRoutes needs to wire.
type Handlers struct {
	Auth    *handlers.AuthHandler
	User    *handlers.UserHandler
	Admin   *handlers.AdminHandler
	Partner *handlers.PartnerHandler
	CRM     *handlers.CRMHandler
	Game    *handlers.GameHandler
	Shop    *handlers.ShopHandler
	Feed    *handlers.FeedHandler
	Webhook *handlers.WebhookHandler
}

func RegisterRoutes(router *gin.Engine, h Handlers, userRepo *repositories.UserRepository, partnerService *services.PartnerService) {
	api := router.Group("/api/v1")

	NewAuthRoutes(h.Auth, userRepo).RegisterRoutes(api)
	NewUserRoutes(h.User, userRepo).RegisterRoutes(api)
	NewAdminRoutes(h.Admin, userRepo).RegisterRoutes(api)
	NewPartnerRoutes(h.Partner, userRepo, partnerService).RegisterRoutes(api)
	NewCRMRoutes(h.CRM, userRepo, partnerService).RegisterRoutes(api)
	NewGameRoutes(h.Game, userRepo).RegisterRoutes(api)
	NewShopRoutes(h.Shop, userRepo).RegisterRoutes(api)
	NewFeedRoutes(h.Feed, userRepo).RegisterRoutes(api)

	// AmoCRM posts here without any auth; the service validates by
	// resolving the responsible user mapping.
	api.POST("/webhooks/amo/events", h.Webhook.Handle)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
}
