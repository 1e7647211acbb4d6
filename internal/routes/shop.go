package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/salesjourney/backend/internal/handlers"
	"github.com/salesjourney/backend/internal/middlewares"
	"github.com/salesjourney/backend/internal/repositories"
)

type ShopRoutes struct {
	handler  *handlers.ShopHandler
	userRepo *repositories.UserRepository
}

func NewShopRoutes(handler *handlers.ShopHandler, userRepo *repositories.UserRepository) *ShopRoutes {
	return &ShopRoutes{handler: handler, userRepo: userRepo}
}

func (r *ShopRoutes) RegisterRoutes(router *gin.RouterGroup) {
	shop := router.Group("/shop")
	shop.Use(middlewares.Authenticate(r.userRepo))
	{
		shop.GET("/items", r.handler.ListItems)
		shop.POST("/items/:itemId/buy", r.handler.Buy)
	}
}
