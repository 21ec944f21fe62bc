package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestao-backend/shared/database/models"
	"gestao-backend/shared/logger"
	"gestao-backend/shared/permissions"
	"gestao-backend/shared/utils/query"
)

// GoalHandler serves company KPI goals. Progress (current/target) is a
// display-only derived value; the stored current_value is never clamped
// and never drives a status change.
type GoalHandler struct {
	db    *gorm.DB
	perms *permissions.Checker
}

func NewGoalHandler(db *gorm.DB, perms *permissions.Checker) *GoalHandler {
	return &GoalHandler{db: db, perms: perms}
}

// GoalResponse is a goal enriched with the responsible user's display
// data and the linked project's name. Absent links yield nulls.
type GoalResponse struct {
	models.Goal
	ResponsibleName   *string `json:"responsible_name"`
	ResponsibleAvatar *string `json:"responsible_avatar"`
	ProjectName       *string `json:"project_name"`
	Progress          float64 `json:"progress"`
}

// CreateGoalRequest represents request body for creating a goal
type CreateGoalRequest struct {
	CompanyID     uint     `json:"company_id" binding:"required"`
	Title         string   `json:"title" binding:"required"`
	Description   string   `json:"description"`
	TargetValue   *float64 `json:"target_value" binding:"required"`
	CurrentValue  *float64 `json:"current_value"`
	Deadline      *string  `json:"deadline"`
	ResponsibleID *uint    `json:"responsible_id"`
	ProjectID     *uint    `json:"project_id"`
}

// UpdateGoalRequest represents request body for a full goal overwrite
type UpdateGoalRequest struct {
	Title         string   `json:"title" binding:"required"`
	Description   string   `json:"description"`
	TargetValue   *float64 `json:"target_value" binding:"required"`
	CurrentValue  *float64 `json:"current_value" binding:"required"`
	Deadline      *string  `json:"deadline"`
	Status        string   `json:"status" binding:"required"`
	ResponsibleID *uint    `json:"responsible_id"`
	ProjectID     *uint    `json:"project_id"`
}

// UpdateProgressRequest represents request body for the narrow progress
// update
type UpdateProgressRequest struct {
	CurrentValue *float64 `json:"current_value" binding:"required"`
}

// goalProgress derives the display ratio, clamped to [0, 1]. A
// non-positive target reads as 0% rather than dividing by zero.
func goalProgress(current, target float64) float64 {
	if target <= 0 {
		return 0
	}
	progress := current / target
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

// parseDeadline accepts a date-only or RFC3339 deadline string.
func parseDeadline(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", *raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// normalizeRef maps a zero id to null so optional references never
// point at id 0.
func normalizeRef(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}

func (h *GoalHandler) toResponse(goal models.Goal) GoalResponse {
	resp := GoalResponse{
		Goal:     goal,
		Progress: goalProgress(goal.CurrentValue, goal.TargetValue),
	}
	if goal.Responsible != nil {
		resp.ResponsibleName = &goal.Responsible.FullName
		resp.ResponsibleAvatar = &goal.Responsible.AvatarURL
	}
	if goal.Project != nil {
		resp.ProjectName = &goal.Project.Name
	}
	return resp
}

// GetGoals lists a company's goals ordered by ascending deadline.
// Goals without a deadline sort wherever the store puts nulls
// @Summary List goals
// @Tags goals
// @Produce json
// @Param company_id query int true "Company ID"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} handlers.ErrorResponse
// @Router /goals [get]
func (h *GoalHandler) GetGoals(c *gin.Context) {
	companyID, present, ok := query.UintQuery(c, "company_id")
	if !present || !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Company ID is required"})
		return
	}

	if !requireMember(c, h.perms, companyID) {
		return
	}

	var goals []models.Goal
	if err := h.db.Preload("Responsible").Preload("Project").
		Where("company_id = ?", companyID).
		Order("deadline ASC").
		Find(&goals).Error; err != nil {
		logger.Get().Error("failed to list goals", zap.Uint("company_id", companyID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list goals"})
		return
	}

	responses := make([]GoalResponse, 0, len(goals))
	for _, goal := range goals {
		responses = append(responses, h.toResponse(goal))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": responses})
}

// CreateGoal creates a goal with status forced to active. A
// non-positive target is rejected outright so progress is always
// well-defined
// @Summary Create goal
// @Tags goals
// @Accept json
// @Produce json
// @Param goal body CreateGoalRequest true "Goal"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} handlers.ErrorResponse
// @Router /goals [post]
func (h *GoalHandler) CreateGoal(c *gin.Context) {
	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Company, title and target value are required",
			"message": err.Error(),
		})
		return
	}

	if *req.TargetValue <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Target value must be greater than zero"})
		return
	}

	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deadline format, expected YYYY-MM-DD"})
		return
	}

	if !requireMember(c, h.perms, req.CompanyID) {
		return
	}

	current := 0.0
	if req.CurrentValue != nil {
		current = *req.CurrentValue
	}

	goal := models.Goal{
		CompanyID:     req.CompanyID,
		Title:         req.Title,
		Description:   req.Description,
		TargetValue:   *req.TargetValue,
		CurrentValue:  current,
		Deadline:      deadline,
		Status:        models.GoalStatusActive,
		ResponsibleID: normalizeRef(req.ResponsibleID),
		ProjectID:     normalizeRef(req.ProjectID),
	}

	if err := h.db.Create(&goal).Error; err != nil {
		logger.Get().Error("failed to create goal", zap.Uint("company_id", req.CompanyID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create goal"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Goal created successfully",
		"data":    h.toResponse(goal),
	})
}

// UpdateGoal overwrites every mutable field of a goal, status and
// current value included. Status transitions are deliberately
// unrestricted
// @Summary Update goal
// @Tags goals
// @Accept json
// @Produce json
// @Param id path int true "Goal ID"
// @Param goal body UpdateGoalRequest true "Goal"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /goals/{id} [put]
func (h *GoalHandler) UpdateGoal(c *gin.Context) {
	id, ok := query.UintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid goal ID"})
		return
	}

	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Title, target value, current value and status are required",
			"message": err.Error(),
		})
		return
	}

	if *req.TargetValue <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Target value must be greater than zero"})
		return
	}
	if !models.ValidGoalStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown goal status"})
		return
	}

	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deadline format, expected YYYY-MM-DD"})
		return
	}

	var goal models.Goal
	if err := h.db.First(&goal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Goal not found"})
			return
		}
		logger.Get().Error("failed to fetch goal", zap.Uint("goal_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch goal"})
		return
	}

	if !requireMember(c, h.perms, goal.CompanyID) {
		return
	}

	goal.Title = req.Title
	goal.Description = req.Description
	goal.TargetValue = *req.TargetValue
	goal.CurrentValue = *req.CurrentValue
	goal.Deadline = deadline
	goal.Status = req.Status
	goal.ResponsibleID = normalizeRef(req.ResponsibleID)
	goal.ProjectID = normalizeRef(req.ProjectID)

	if err := h.db.Save(&goal).Error; err != nil {
		logger.Get().Error("failed to update goal", zap.Uint("goal_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update goal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Goal updated successfully",
		"data":    h.toResponse(goal),
	})
}

// UpdateProgress updates only current_value. It never flips status,
// even past the target; progress and status are controlled
// independently
// @Summary Update goal progress
// @Tags goals
// @Accept json
// @Produce json
// @Param id path int true "Goal ID"
// @Param progress body UpdateProgressRequest true "New current value"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /goals/{id}/progress [put]
func (h *GoalHandler) UpdateProgress(c *gin.Context) {
	id, ok := query.UintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid goal ID"})
		return
	}

	var req UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Current value is required",
			"message": err.Error(),
		})
		return
	}

	var goal models.Goal
	if err := h.db.First(&goal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Goal not found"})
			return
		}
		logger.Get().Error("failed to fetch goal", zap.Uint("goal_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch goal"})
		return
	}

	if !requireMember(c, h.perms, goal.CompanyID) {
		return
	}

	goal.CurrentValue = *req.CurrentValue
	if err := h.db.Model(&goal).Update("current_value", goal.CurrentValue).Error; err != nil {
		logger.Get().Error("failed to update goal progress", zap.Uint("goal_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update progress"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Progress updated successfully",
		"data":    h.toResponse(goal),
	})
}

// DeleteGoal hard-deletes a goal. Goals are leaf rows; nothing cascades
// from them
// @Summary Delete goal
// @Tags goals
// @Produce json
// @Param id path int true "Goal ID"
// @Security BearerAuth
// @Success 200 {object} handlers.SuccessResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /goals/{id} [delete]
func (h *GoalHandler) DeleteGoal(c *gin.Context) {
	id, ok := query.UintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid goal ID"})
		return
	}

	var goal models.Goal
	if err := h.db.First(&goal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Goal not found"})
			return
		}
		logger.Get().Error("failed to fetch goal", zap.Uint("goal_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch goal"})
		return
	}

	if !requireMember(c, h.perms, goal.CompanyID) {
		return
	}

	if err := h.db.Delete(&goal).Error; err != nil {
		logger.Get().Error("failed to delete goal", zap.Uint("goal_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete goal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Goal deleted successfully",
	})
}
