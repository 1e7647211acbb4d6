package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/salesjourney/backend/internal/handlers"
	"github.com/salesjourney/backend/internal/middlewares"
	"github.com/salesjourney/backend/internal/repositories"
)

type FeedRoutes struct {
	handler  *handlers.FeedHandler
	userRepo *repositories.UserRepository
}

func NewFeedRoutes(handler *handlers.FeedHandler, userRepo *repositories.UserRepository) *FeedRoutes {
	return &FeedRoutes{handler: handler, userRepo: userRepo}
}

func (r *FeedRoutes) RegisterRoutes(router *gin.RouterGroup) {
	feed := router.Group("/feed")
	feed.Use(middlewares.Authenticate(r.userRepo))
	{
		feed.GET("", r.handler.GetFeed)
		feed.POST("/posts", r.handler.CreatePost)
		feed.GET("/posts/:postId/image", r.handler.PostImage)
		feed.POST("/posts/:postId/like", r.handler.ToggleLike)
		feed.GET("/posts/:postId/comments", r.handler.ListComments)
		feed.POST("/posts/:postId/comments", r.handler.AddComment)
	}
}
