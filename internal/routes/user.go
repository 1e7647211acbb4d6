package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/salesjourney/backend/internal/handlers"
	"github.com/salesjourney/backend/internal/middlewares"
	"github.com/salesjourney/backend/internal/repositories"
)

type UserRoutes struct {
	handler  *handlers.UserHandler
	userRepo *repositories.UserRepository
}

func NewUserRoutes(handler *handlers.UserHandler, userRepo *repositories.UserRepository) *UserRoutes {
	return &UserRoutes{handler: handler, userRepo: userRepo}
}

func (r *UserRoutes) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	users.Use(middlewares.Authenticate(r.userRepo))
	{
		users.GET("/me", r.handler.Me)
		users.PATCH("/me/username", r.handler.UpdateUsername)
		users.POST("/me/avatar", r.handler.UploadAvatar)
		users.GET("/me/achievements", r.handler.Achievements)
		users.GET("/me/reward", r.handler.RewardModal)
		users.GET("/leaderboard", r.handler.Leaderboard)
		users.GET("/:userId", r.handler.GetUser)
		users.GET("/:userId/avatar", r.handler.Avatar)
	}

	dashboard := router.Group("/dashboard")
	dashboard.Use(middlewares.Authenticate(r.userRepo))
	dashboard.GET("", r.handler.Dashboard)
}
