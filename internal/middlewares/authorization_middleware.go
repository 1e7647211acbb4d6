package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salesjourney/backend/internal/models"
	"github.com/salesjourney/backend/internal/services"
	"github.com/salesjourney/backend/internal/utils"
)

// RequireSuperAdmin gates the platform admin panel. Must run after
// Authenticate.
func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		if user.Role != models.RoleSuperAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access denied. Admin privileges required."})
			return
		}
		c.Next()
	}
}

// RequirePartner gates partner endpoints to company-owning roles and the
// super admin.
func RequirePartner() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		if user.Role != models.RoleSuperAdmin && !user.Role.IsPartner() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access denied. Partner privileges required."})
			return
		}
		c.Next()
	}
}

// PartnerOwnsCompany checks the :companyId path parameter against the
// caller's portfolio. Super admins pass through.
func PartnerOwnsCompany(partnerService *services.PartnerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		companyID, err := utils.ParseUUID(c.Param("companyId"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid company id"})
			return
		}

		if user.Role != models.RoleSuperAdmin {
			owns, err := partnerService.OwnsCompany(c.Request.Context(), user.ID, companyID)
			if err != nil || !owns {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access denied. Company is not yours."})
				return
			}
		}

		c.Set("companyId", companyID)
		c.Next()
	}
}
