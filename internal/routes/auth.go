package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/salesjourney/backend/internal/handlers"
	"github.com/salesjourney/backend/internal/middlewares"
	"github.com/salesjourney/backend/internal/repositories"
)

type AuthRoutes struct {
	handler  *handlers.AuthHandler
	userRepo *repositories.UserRepository
}

func NewAuthRoutes(handler *handlers.AuthHandler, userRepo *repositories.UserRepository) *AuthRoutes {
	return &AuthRoutes{handler: handler, userRepo: userRepo}
}

func (r *AuthRoutes) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		// Public routes
		auth.POST("/register", r.handler.Register)
		auth.POST("/login", r.handler.Login)
		auth.POST("/refresh", r.handler.Refresh)

		// Protected routes
		protected := auth.Group("/")
		protected.Use(middlewares.Authenticate(r.userRepo))
		protected.POST("/logout", r.handler.Logout)
		protected.POST("/change-password", r.handler.ChangePassword)
	}
}
