package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestao-backend/shared/database/models"
	"gestao-backend/shared/logger"
	"gestao-backend/shared/permissions"
	"gestao-backend/shared/storage"
	"gestao-backend/shared/utils/auth"
	"gestao-backend/shared/utils/query"
)

// maxAvatarSize caps avatar uploads at 5 MB.
const maxAvatarSize = 5 << 20

var allowedAvatarTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UserHandler serves user profiles and avatar uploads.
type UserHandler struct {
	db      *gorm.DB
	perms   *permissions.Checker
	avatars storage.AvatarStore
}

// NewUserHandler wires the handler. avatars may be nil; uploads then
// return 503 instead of failing at startup when MinIO is unreachable.
func NewUserHandler(db *gorm.DB, perms *permissions.Checker, avatars storage.AvatarStore) *UserHandler {
	return &UserHandler{db: db, perms: perms, avatars: avatars}
}

// UpdateUserRequest represents request body for updating a profile.
// Omitted fields keep their current value.
type UpdateUserRequest struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// canViewUser reports whether the caller may see the target's profile:
// self, global admin, or a shared company membership.
func (h *UserHandler) canViewUser(c *gin.Context, targetID uint) (bool, error) {
	callerID := currentUserID(c)
	if callerID == targetID || isGlobalAdmin(c) {
		return true, nil
	}

	var count int64
	err := h.db.Table("user_companies AS mine").
		Joins("JOIN user_companies AS theirs ON theirs.company_id = mine.company_id").
		Where("mine.user_id = ? AND theirs.user_id = ?", callerID, targetID).
		Count(&count).Error
	return count > 0, err
}

// GetUsers lists the users belonging to one company
// @Summary List company users
// @Tags users
// @Produce json
// @Param company_id query int true "Company ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} handlers.ErrorResponse
// @Router /users [get]
func (h *UserHandler) GetUsers(c *gin.Context) {
	companyID, present, ok := query.UintQuery(c, "company_id")
	if !present || !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Company ID is required"})
		return
	}

	if !requireMember(c, h.perms, companyID) {
		return
	}

	var users []models.User
	if err := h.db.
		Joins("JOIN user_companies ON user_companies.user_id = users.id").
		Where("user_companies.company_id = ?", companyID).
		Order("users.full_name ASC").
		Find(&users).Error; err != nil {
		logger.Get().Error("failed to list users", zap.Uint("company_id", companyID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": users})
}

// GetUser retrieves one profile. Visible to the user themselves, global
// admins, and anyone who shares a company with them
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := query.UintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	allowed, err := h.canViewUser(c, id)
	if err != nil {
		logger.Get().Error("failed to check profile visibility", zap.Uint("user_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Access denied",
			"message": "You do not share a company with this user",
		})
		return
	}

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		logger.Get().Error("failed to fetch user", zap.Uint("user_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

// UpdateUser merges profile fields. Only the user themselves or a
// global admin may write, and email stays unique
// @Summary Update user profile
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param user body UpdateUserRequest true "Fields to change"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Failure 409 {object} handlers.ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := query.UintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if id != currentUserID(c) && !isGlobalAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Access denied",
			"message": "You can only update your own profile",
		})
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		logger.Get().Error("failed to fetch user", zap.Uint("user_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Password != nil {
		if len(*req.Password) < 6 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters"})
			return
		}
		hashed, err := auth.HashPassword(*req.Password)
		if err != nil {
			logger.Get().Error("failed to hash password", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
			return
		}
		user.Password = hashed
	}

	if user.FullName == "" || user.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and email cannot be empty"})
		return
	}

	if err := h.db.Save(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email is already in use"})
			return
		}
		logger.Get().Error("failed to update user", zap.Uint("user_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User updated successfully",
		"data":    user,
	})
}

// UploadAvatar accepts a multipart image, stores it, and updates the
// profile's avatar URL
// @Summary Upload user avatar
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "User ID"
// @Param avatar formData file true "Avatar image"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 403 {object} handlers.ErrorResponse
// @Router /users/{id}/avatar [post]
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	id, ok := query.UintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if id != currentUserID(c) && !isGlobalAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Access denied",
			"message": "You can only change your own avatar",
		})
		return
	}

	if h.avatars == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Avatar storage is not available"})
		return
	}

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		logger.Get().Error("failed to fetch user", zap.Uint("user_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Avatar file is required"})
		return
	}
	if fileHeader.Size > maxAvatarSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Avatar must be smaller than 5MB"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	ext, allowed := allowedAvatarTypes[contentType]
	if !allowed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Avatar must be a JPEG, PNG or WebP image"})
		return
	}
	if headerExt := strings.ToLower(filepath.Ext(fileHeader.Filename)); headerExt == ".jpeg" {
		ext = ".jpg"
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Get().Error("failed to open avatar upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read avatar"})
		return
	}
	defer file.Close()

	avatarURL, err := h.avatars.UploadAvatar(c.Request.Context(), file, fileHeader.Size, contentType, ext)
	if err != nil {
		logger.Get().Error("failed to store avatar", zap.Uint("user_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store avatar"})
		return
	}

	if err := h.db.Model(&user).Update("avatar_url", avatarURL).Error; err != nil {
		logger.Get().Error("failed to save avatar url", zap.Uint("user_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}
	user.AvatarURL = avatarURL

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Avatar updated successfully",
		"data":    user,
	})
}

// DeleteUser removes an account. Global admin only; memberships,
// assignments and messages cascade, while goals the user was
// responsible for survive with a null responsible link
// @Summary Delete user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Security BearerAuth
// @Success 200 {object} handlers.SuccessResponse
// @Failure 403 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := query.UintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if !isGlobalAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Access denied",
			"message": "Only administrators can delete users",
		})
		return
	}

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		logger.Get().Error("failed to fetch user", zap.Uint("user_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	if err := h.db.Delete(&user).Error; err != nil {
		logger.Get().Error("failed to delete user", zap.Uint("user_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User deleted successfully",
	})
}
