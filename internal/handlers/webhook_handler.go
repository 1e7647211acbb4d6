package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salesjourney/backend/internal/services"
)

type WebhookHandler struct {
	webhookService *services.WebhookService
}

func NewWebhookHandler(webhookService *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

// Handle receives AmoCRM's form-encoded webhook. The response is always
// 200: a non-2xx makes AmoCRM retry and eventually disable the hook.
func (h *WebhookHandler) Handle(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.Status(http.StatusOK)
		return
	}

	h.webhookService.Handle(c.Request.Context(), c.Request.PostForm)
	c.Status(http.StatusOK)
}
