package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/salesjourney/backend/internal/handlers"
	"github.com/salesjourney/backend/internal/middlewares"
	"github.com/salesjourney/backend/internal/repositories"
)

type GameRoutes struct {
	handler  *handlers.GameHandler
	userRepo *repositories.UserRepository
}

func NewGameRoutes(handler *handlers.GameHandler, userRepo *repositories.UserRepository) *GameRoutes {
	return &GameRoutes{handler: handler, userRepo: userRepo}
}

func (r *GameRoutes) RegisterRoutes(router *gin.RouterGroup) {
	game := router.Group("/game")
	game.Use(middlewares.Authenticate(r.userRepo))
	{
		game.POST("/buff", r.handler.ChooseBuff)
		game.GET("/status", r.handler.Status)
		game.GET("/stories", r.handler.Stories)
		game.GET("/challenges", r.handler.ListChallenges)
		game.GET("/challenges/:challengeId", r.handler.GetChallenge)
	}
}
