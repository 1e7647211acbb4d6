package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salesjourney/backend/internal/middlewares"
	"github.com/salesjourney/backend/internal/responses"
	"github.com/salesjourney/backend/internal/services"
	"github.com/salesjourney/backend/internal/utils"
)

type ShopHandler struct {
	shopService *services.ShopService
}

func NewShopHandler(shopService *services.ShopService) *ShopHandler {
	return &ShopHandler{shopService: shopService}
}

func (h *ShopHandler) ListItems(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil || user.CompanyID == nil {
		responses.Fail(c, http.StatusForbidden, nil, "No company membership")
		return
	}

	items, err := h.shopService.ListItems(c.Request.Context(), *user.CompanyID)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load shop")
		return
	}
	responses.Success(c, http.StatusOK, items, "Shop loaded")
}

func (h *ShopHandler) Buy(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	itemID, err := utils.ParseUUID(c.Param("itemId"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid item id")
		return
	}

	result, err := h.shopService.Buy(c.Request.Context(), user.ID, itemID)
	if err != nil {
		switch err {
		case services.ErrItemNotFound:
			responses.Fail(c, http.StatusNotFound, err, "Item not found")
		case services.ErrInsufficientCoins:
			responses.Fail(c, http.StatusPaymentRequired, err, "Not enough coins")
		default:
			responses.Fail(c, http.StatusInternalServerError, err, "Purchase failed")
		}
		return
	}
	responses.Success(c, http.StatusOK, result, "Purchase complete")
}
