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

// CompanyHandler serves the tenant root CRUD.
type CompanyHandler struct {
	db    *gorm.DB
	perms *permissions.Checker
}

func NewCompanyHandler(db *gorm.DB, perms *permissions.Checker) *CompanyHandler {
	return &CompanyHandler{db: db, perms: perms}
}

// CreateCompanyRequest represents request body for creating a company
type CreateCompanyRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Active      *bool  `json:"active"`
}

// UpdateCompanyRequest represents request body for updating a company.
// All fields are optional; omitted fields keep their current value.
type UpdateCompanyRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Active      *bool   `json:"active"`
}

// GetCompanies lists every company
// @Summary List companies
// @Tags companies
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /companies [get]
func (h *CompanyHandler) GetCompanies(c *gin.Context) {
	var companies []models.Company
	if err := h.db.Order("name ASC").Find(&companies).Error; err != nil {
		logger.Get().Error("failed to list companies", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list companies"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": companies})
}

// GetCompany retrieves a single company by ID
// @Summary Get company by ID
// @Tags companies
// @Produce json
// @Param id path int true "Company ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} handlers.ErrorResponse
// @Router /companies/{id} [get]
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	id, ok := query.UintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid company ID"})
		return
	}

	var company models.Company
	if err := h.db.First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
			return
		}
		logger.Get().Error("failed to fetch company", zap.Uint("company_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch company"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": company})
}

// CreateCompany creates a company and makes the caller its owner
// @Summary Create company
// @Tags companies
// @Accept json
// @Produce json
// @Param company body CreateCompanyRequest true "Company"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} handlers.ErrorResponse
// @Router /companies [post]
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Company name is required",
			"message": err.Error(),
		})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	company := models.Company{
		Name:        req.Name,
		Description: req.Description,
		Active:      active,
	}

	// The creator becomes the company owner in the same transaction, so
	// a company is never created without at least one privileged member.
	userID := currentUserID(c)
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&company).Error; err != nil {
			return err
		}
		membership := models.UserCompany{
			UserID:    userID,
			CompanyID: company.ID,
			Role:      string(permissions.RoleDono),
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		logger.Get().Error("failed to create company", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create company"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Company created successfully",
		"data":    company,
	})
}

// UpdateCompany merges the provided fields into an existing company.
// Omitted fields keep their stored values
// @Summary Update company
// @Tags companies
// @Accept json
// @Produce json
// @Param id path int true "Company ID"
// @Param company body UpdateCompanyRequest true "Fields to change"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /companies/{id} [put]
func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	id, ok := query.UintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid company ID"})
		return
	}

	var req UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	var company models.Company
	if err := h.db.First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
			return
		}
		logger.Get().Error("failed to fetch company", zap.Uint("company_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch company"})
		return
	}

	if !requireManager(c, h.perms, company.ID) {
		return
	}

	if req.Name != nil {
		company.Name = *req.Name
	}
	if req.Description != nil {
		company.Description = *req.Description
	}
	if req.Active != nil {
		company.Active = *req.Active
	}

	if company.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Company name cannot be empty"})
		return
	}

	if err := h.db.Save(&company).Error; err != nil {
		logger.Get().Error("failed to update company", zap.Uint("company_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update company"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Company updated successfully",
		"data":    company,
	})
}

// DeleteCompany hard-deletes a company. Projects, goals, messages and
// memberships cascade with it
// @Summary Delete company
// @Tags companies
// @Produce json
// @Param id path int true "Company ID"
// @Security BearerAuth
// @Success 200 {object} handlers.SuccessResponse
// @Failure 403 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /companies/{id} [delete]
func (h *CompanyHandler) DeleteCompany(c *gin.Context) {
	id, ok := query.UintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid company ID"})
		return
	}

	var company models.Company
	if err := h.db.First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
			return
		}
		logger.Get().Error("failed to fetch company", zap.Uint("company_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch company"})
		return
	}

	if !requireManager(c, h.perms, company.ID) {
		return
	}

	if err := h.db.Delete(&company).Error; err != nil {
		logger.Get().Error("failed to delete company", zap.Uint("company_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete company"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Company deleted successfully",
	})
}
