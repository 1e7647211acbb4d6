package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/salesjourney/backend/internal/handlers"
	"github.com/salesjourney/backend/internal/middlewares"
	"github.com/salesjourney/backend/internal/repositories"
	"github.com/salesjourney/backend/internal/services"
)

type PartnerRoutes struct {
	handler        *handlers.PartnerHandler
	userRepo       *repositories.UserRepository
	partnerService *services.PartnerService
}

func NewPartnerRoutes(handler *handlers.PartnerHandler, userRepo *repositories.UserRepository, partnerService *services.PartnerService) *PartnerRoutes {
	return &PartnerRoutes{handler: handler, userRepo: userRepo, partnerService: partnerService}
}

func (r *PartnerRoutes) RegisterRoutes(router *gin.RouterGroup) {
	partner := router.Group("/partner")
	partner.Use(middlewares.Authenticate(r.userRepo), middlewares.RequirePartner())
	{
		partner.GET("/companies", r.handler.MyCompanies)

		owned := partner.Group("/companies/:companyId")
		owned.Use(middlewares.PartnerOwnsCompany(r.partnerService))
		{
			owned.GET("/members", r.handler.Members)
			owned.GET("/scoreboard", r.handler.Scoreboard)
			owned.GET("/challenges", r.handler.ListChallenges)
			owned.GET("/challenges/leaderboard", r.handler.ChallengeLeaderboard)
			owned.POST("/challenges", r.handler.CreateChallenge)
		}
	}
}
