package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestao-backend/shared/database/models"
	"gestao-backend/shared/logger"
	"gestao-backend/shared/permissions"
	"gestao-backend/shared/utils/query"
)

// UserCompanyHandler manages company memberships: who belongs to which
// company, and with what role.
type UserCompanyHandler struct {
	db    *gorm.DB
	perms *permissions.Checker
}

func NewUserCompanyHandler(db *gorm.DB, perms *permissions.Checker) *UserCompanyHandler {
	return &UserCompanyHandler{db: db, perms: perms}
}

// CreateMembershipRequest represents request body for linking a user to
// a company
type CreateMembershipRequest struct {
	UserID    uint   `json:"user_id" binding:"required"`
	CompanyID uint   `json:"company_id" binding:"required"`
	Role      string `json:"role" binding:"required"`
}

// UpdateMembershipRequest represents request body for changing a
// membership role
type UpdateMembershipRequest struct {
	Role string `json:"role" binding:"required"`
}

// GetMemberships lists membership rows, optionally filtered by user_id
// and/or company_id
// @Summary List memberships
// @Tags user-companies
// @Produce json
// @Param user_id query int false "Filter by user"
// @Param company_id query int false "Filter by company"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} handlers.ErrorResponse
// @Router /user-companies [get]
func (h *UserCompanyHandler) GetMemberships(c *gin.Context) {
	userID, _, ok := query.UintQuery(c, "user_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id filter"})
		return
	}
	companyID, companyGiven, ok := query.UintQuery(c, "company_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid company_id filter"})
		return
	}

	// A company filter requires membership in that company; without one
	// the caller may only see their own rows (admins see everything).
	if companyGiven {
		if !requireMember(c, h.perms, companyID) {
			return
		}
	} else if !isGlobalAdmin(c) && userID != currentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Access denied",
			"message": "Filter by your own user_id or by a company you belong to",
		})
		return
	}

	dbQuery := query.ApplyIDFilters(h.db.Model(&models.UserCompany{}), map[string]uint{
		"user_id":    userID,
		"company_id": companyID,
	})

	var memberships []models.UserCompany
	if err := dbQuery.Find(&memberships).Error; err != nil {
		logger.Get().Error("failed to list memberships", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list memberships"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": memberships})
}

// CreateMembership links a user to a company. The (user, company) pair
// is unique; a duplicate is a conflict, not a server error
// @Summary Create membership
// @Tags user-companies
// @Accept json
// @Produce json
// @Param membership body CreateMembershipRequest true "Membership"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 403 {object} handlers.ErrorResponse
// @Failure 409 {object} handlers.ErrorResponse
// @Router /user-companies [post]
func (h *UserCompanyHandler) CreateMembership(c *gin.Context) {
	var req CreateMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "user_id, company_id and role are required",
			"message": err.Error(),
		})
		return
	}

	if !permissions.IsValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown company role"})
		return
	}

	if !requireManager(c, h.perms, req.CompanyID) {
		return
	}

	membership := models.UserCompany{
		UserID:    req.UserID,
		CompanyID: req.CompanyID,
		Role:      string(permissions.Normalize(req.Role)),
	}

	if err := h.db.Create(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "This user is already a member of this company",
			})
			return
		}
		logger.Get().Error("failed to create membership", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create membership"})
		return
	}

	// A cached negative lookup would otherwise hide the new membership
	// until it expires.
	h.perms.Invalidate(c.Request.Context(), req.UserID, req.CompanyID)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Membership created successfully",
		"data":    membership,
	})
}

// UpdateMembership changes the role of an existing membership
// @Summary Update membership role
// @Tags user-companies
// @Accept json
// @Produce json
// @Param id path int true "Membership ID"
// @Param membership body UpdateMembershipRequest true "New role"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /user-companies/{id} [put]
func (h *UserCompanyHandler) UpdateMembership(c *gin.Context) {
	id, ok := query.UintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid membership ID"})
		return
	}

	var req UpdateMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Role is required",
			"message": err.Error(),
		})
		return
	}

	if !permissions.IsValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown company role"})
		return
	}

	var membership models.UserCompany
	if err := h.db.First(&membership, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Membership not found"})
			return
		}
		logger.Get().Error("failed to fetch membership", zap.Uint("membership_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch membership"})
		return
	}

	if !requireManager(c, h.perms, membership.CompanyID) {
		return
	}

	membership.Role = string(permissions.Normalize(req.Role))
	if err := h.db.Save(&membership).Error; err != nil {
		logger.Get().Error("failed to update membership", zap.Uint("membership_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update membership"})
		return
	}

	h.perms.Invalidate(c.Request.Context(), membership.UserID, membership.CompanyID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Membership updated successfully",
		"data":    membership,
	})
}

// DeleteMembership removes a user from a company. Members may remove
// themselves; removing anyone else requires a privileged role
// @Summary Delete membership
// @Tags user-companies
// @Produce json
// @Param id path int true "Membership ID"
// @Security BearerAuth
// @Success 200 {object} handlers.SuccessResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /user-companies/{id} [delete]
func (h *UserCompanyHandler) DeleteMembership(c *gin.Context) {
	id, ok := query.UintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid membership ID"})
		return
	}

	var membership models.UserCompany
	if err := h.db.First(&membership, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Membership not found"})
			return
		}
		logger.Get().Error("failed to fetch membership", zap.Uint("membership_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch membership"})
		return
	}

	if membership.UserID != currentUserID(c) {
		if !requireManager(c, h.perms, membership.CompanyID) {
			return
		}
	}

	if err := h.db.Delete(&membership).Error; err != nil {
		logger.Get().Error("failed to delete membership", zap.Uint("membership_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete membership"})
		return
	}

	h.perms.Invalidate(c.Request.Context(), membership.UserID, membership.CompanyID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Membership removed successfully",
	})
}
