package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gestao-backend/api-service/middleware"
	"gestao-backend/shared/database/models"
	"gestao-backend/shared/logger"
	"gestao-backend/shared/permissions"
)

// SuccessResponse is the generic success envelope.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is the generic error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// currentUserID returns the authenticated user's id from the request
// context.
func currentUserID(c *gin.Context) uint {
	if v, ok := c.Get(middleware.ContextUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// isGlobalAdmin reports whether the caller holds the platform-wide
// admin role, which bypasses per-company membership checks.
func isGlobalAdmin(c *gin.Context) bool {
	return c.GetString(middleware.ContextUserRole) == models.GlobalRoleAdmin
}

// requireMember aborts with 403 unless the caller belongs to the
// company. Returns true when the request may proceed.
func requireMember(c *gin.Context, perms *permissions.Checker, companyID uint) bool {
	if isGlobalAdmin(c) {
		return true
	}

	member, err := perms.IsMember(c.Request.Context(), currentUserID(c), companyID)
	if err != nil {
		logger.Get().Error("membership lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to verify company membership",
		})
		return false
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Access denied",
			"message": "You are not a member of this company",
		})
		return false
	}
	return true
}

// requireManager aborts with 403 unless the caller holds a privileged
// role (dono or administrador) in the company.
func requireManager(c *gin.Context, perms *permissions.Checker, companyID uint) bool {
	if isGlobalAdmin(c) {
		return true
	}

	allowed, err := perms.CanManage(c.Request.Context(), currentUserID(c), companyID)
	if err != nil {
		logger.Get().Error("membership lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to verify company membership",
		})
		return false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Access denied",
			"message": "This action requires an owner or administrator role",
		})
		return false
	}
	return true
}
