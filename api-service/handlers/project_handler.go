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

// ProjectHandler keeps a project row and its team junction rows
// consistent: create and update write both inside one transaction, so a
// reader never sees a headless project or orphaned assignments.
type ProjectHandler struct {
	db    *gorm.DB
	perms *permissions.Checker
}

func NewProjectHandler(db *gorm.DB, perms *permissions.Checker) *ProjectHandler {
	return &ProjectHandler{db: db, perms: perms}
}

// ProjectMember is the resolved team member shape embedded in listings.
type ProjectMember struct {
	ID        uint   `json:"id"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// ProjectResponse is a project annotated with its resolved member list.
type ProjectResponse struct {
	models.Project
	Members []ProjectMember `json:"members"`
}

// CreateProjectRequest represents request body for creating a project
type CreateProjectRequest struct {
	CompanyID   uint   `json:"company_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	UserIDs     []uint `json:"user_ids"`
}

// UpdateProjectRequest represents request body for updating a project.
// UserIDs nil means "leave the team alone"; an empty list clears it.
type UpdateProjectRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Status      string  `json:"status" binding:"required"`
	UserIDs     *[]uint `json:"user_ids"`
}

// GetProjects lists a company's projects newest-first, each with its
// resolved member list
// @Summary List projects with members
// @Tags projects
// @Produce json
// @Param company_id query int true "Company ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} handlers.ErrorResponse
// @Router /projects [get]
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	companyID, present, ok := query.UintQuery(c, "company_id")
	if !present || !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Company ID is required"})
		return
	}

	if !requireMember(c, h.perms, companyID) {
		return
	}

	var projects []models.Project
	if err := h.db.Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		logger.Get().Error("failed to list projects", zap.Uint("company_id", companyID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list projects"})
		return
	}

	// Member resolution is a per-project fan-out read, outside any
	// transaction.
	responses := make([]ProjectResponse, 0, len(projects))
	for _, project := range projects {
		members, err := h.projectMembers(project.ID)
		if err != nil {
			logger.Get().Error("failed to resolve project members",
				zap.Uint("project_id", project.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list projects"})
			return
		}
		responses = append(responses, ProjectResponse{Project: project, Members: members})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": responses})
}

func (h *ProjectHandler) projectMembers(projectID uint) ([]ProjectMember, error) {
	members := make([]ProjectMember, 0)
	err := h.db.Table("project_users").
		Select("users.id, users.full_name, users.avatar_url").
		Joins("JOIN users ON users.id = project_users.user_id").
		Where("project_users.project_id = ?", projectID).
		Scan(&members).Error
	return members, err
}

// CreateProject inserts the project row and its team assignments as a
// unit; any failure rolls the whole write back
// @Summary Create project
// @Tags projects
// @Accept json
// @Produce json
// @Param project body CreateProjectRequest true "Project"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 403 {object} handlers.ErrorResponse
// @Router /projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Name and company are required",
			"message": err.Error(),
		})
		return
	}

	if !requireManager(c, h.perms, req.CompanyID) {
		return
	}

	project := models.Project{
		CompanyID:   req.CompanyID,
		Name:        req.Name,
		Description: req.Description,
		Status:      models.ProjectStatusActive,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		if len(req.UserIDs) == 0 {
			return nil
		}
		assignments := make([]models.ProjectUser, 0, len(req.UserIDs))
		for _, userID := range req.UserIDs {
			assignments = append(assignments, models.ProjectUser{
				ProjectID: project.ID,
				UserID:    userID,
			})
		}
		return tx.Create(&assignments).Error
	})
	if err != nil {
		logger.Get().Error("failed to create project", zap.Uint("company_id", req.CompanyID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Project created successfully",
		"data":    project,
	})
}

// UpdateProject replaces the project's scalar fields and, when a member
// list is present, resynchronizes the team by deleting and re-inserting
// the junction rows inside the same transaction
// @Summary Update project
// @Tags projects
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param project body UpdateProjectRequest true "Project"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /projects/{id} [put]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	id, ok := query.UintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Name and status are required",
			"message": err.Error(),
		})
		return
	}

	if !models.ValidProjectStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown project status"})
		return
	}

	var project models.Project
	if err := h.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		logger.Get().Error("failed to fetch project", zap.Uint("project_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch project"})
		return
	}

	if !requireManager(c, h.perms, project.CompanyID) {
		return
	}

	project.Name = req.Name
	project.Description = req.Description
	project.Status = req.Status

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&project).Error; err != nil {
			return err
		}
		if req.UserIDs == nil {
			// No member list in the request: the team is untouched.
			return nil
		}
		if err := tx.Where("project_id = ?", project.ID).
			Delete(&models.ProjectUser{}).Error; err != nil {
			return err
		}
		if len(*req.UserIDs) == 0 {
			// An explicit empty list clears the team.
			return nil
		}
		assignments := make([]models.ProjectUser, 0, len(*req.UserIDs))
		for _, userID := range *req.UserIDs {
			assignments = append(assignments, models.ProjectUser{
				ProjectID: project.ID,
				UserID:    userID,
			})
		}
		return tx.Create(&assignments).Error
	})
	if err != nil {
		logger.Get().Error("failed to update project", zap.Uint("project_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Project updated successfully",
		"data":    project,
	})
}

// DeleteProject hard-deletes a project. Team junction rows cascade;
// goals pointing at the project keep existing with a null project link
// @Summary Delete project
// @Tags projects
// @Produce json
// @Param id path int true "Project ID"
// @Security BearerAuth
// @Success 200 {object} handlers.SuccessResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	id, ok := query.UintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	var project models.Project
	if err := h.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		logger.Get().Error("failed to fetch project", zap.Uint("project_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch project"})
		return
	}

	if !requireManager(c, h.perms, project.CompanyID) {
		return
	}

	if err := h.db.Delete(&project).Error; err != nil {
		logger.Get().Error("failed to delete project", zap.Uint("project_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Project deleted successfully",
	})
}
