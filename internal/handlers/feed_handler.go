package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salesjourney/backend/internal/middlewares"
	"github.com/salesjourney/backend/internal/models"
	"github.com/salesjourney/backend/internal/responses"
	"github.com/salesjourney/backend/internal/services"
	"github.com/salesjourney/backend/internal/utils"
)

type FeedHandler struct {
	feedService    *services.FeedService
	partnerService *services.PartnerService
}

func NewFeedHandler(feedService *services.FeedService, partnerService *services.PartnerService) *FeedHandler {
	return &FeedHandler{feedService: feedService, partnerService: partnerService}
}

// GetFeed serves the viewer's company feed. Partners may pass company_id
// to read a feed of a company they own.
func (h *FeedHandler) GetFeed(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	companyID := user.CompanyID
	if raw := c.Query("company_id"); raw != "" {
		requested, err := utils.ParseUUID(raw)
		if err != nil {
			responses.Fail(c, http.StatusBadRequest, err, "Invalid company id")
			return
		}
		if user.Role != models.RoleSuperAdmin {
			owns, err := h.partnerService.OwnsCompany(c.Request.Context(), user.ID, requested)
			if err != nil || !owns {
				responses.Fail(c, http.StatusForbidden, err, "Company not owned")
				return
			}
		}
		companyID = &requested
	}
	if companyID == nil {
		responses.Fail(c, http.StatusForbidden, nil, "No company membership")
		return
	}

	items, err := h.feedService.GetFeed(c.Request.Context(), *companyID, user.ID)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load feed")
		return
	}
	responses.Success(c, http.StatusOK, items, "Feed loaded")
}

// CreatePost accepts a multipart form with "content" and an optional
// "image" file. Only owners and managers post announcements.
func (h *FeedHandler) CreatePost(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}
	if user.Role == models.RoleEmployee {
		responses.Fail(c, http.StatusForbidden, nil, "Only owners and managers can post")
		return
	}

	content := c.PostForm("content")

	var imageData []byte
	var imageMimetype string
	if fileHeader, err := c.FormFile("image"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			responses.Fail(c, http.StatusBadRequest, err, "Could not read image")
			return
		}
		defer file.Close()
		imageData, err = io.ReadAll(file)
		if err != nil {
			responses.Fail(c, http.StatusBadRequest, err, "Could not read image")
			return
		}
		imageMimetype = fileHeader.Header.Get("Content-Type")
	}

	post, err := h.feedService.CreatePost(c.Request.Context(), user, content, imageData, imageMimetype)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not create post")
		return
	}
	responses.Success(c, http.StatusCreated, post, "Post created")
}

func (h *FeedHandler) PostImage(c *gin.Context) {
	postID, err := utils.ParseUUID(c.Param("postId"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid post id")
		return
	}

	data, mimetype, err := h.feedService.GetPostImage(c.Request.Context(), postID)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load image")
		return
	}
	if len(data) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(http.StatusOK, mimetype, data)
}

func (h *FeedHandler) ToggleLike(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	postID, err := utils.ParseUUID(c.Param("postId"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid post id")
		return
	}

	liked, count, err := h.feedService.ToggleLike(c.Request.Context(), user, postID)
	if err != nil {
		responses.Fail(c, http.StatusNotFound, err, "Could not like post")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"liked": liked, "likes_count": count}, "Like toggled")
}

func (h *FeedHandler) ListComments(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	postID, err := utils.ParseUUID(c.Param("postId"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid post id")
		return
	}

	comments, err := h.feedService.ListComments(c.Request.Context(), user, postID)
	if err != nil {
		responses.Fail(c, http.StatusNotFound, err, "Could not load comments")
		return
	}
	responses.Success(c, http.StatusOK, comments, "Comments loaded")
}

func (h *FeedHandler) AddComment(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	postID, err := utils.ParseUUID(c.Param("postId"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid post id")
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid Format")
		return
	}

	comment, err := h.feedService.AddComment(c.Request.Context(), user, postID, req.Text)
	if err != nil {
		responses.Fail(c, http.StatusNotFound, err, "Could not add comment")
		return
	}
	responses.Success(c, http.StatusCreated, comment, "Comment added")
}
