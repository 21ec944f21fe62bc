package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestao-backend/api-service/ws"
	"gestao-backend/shared/database/models"
	"gestao-backend/shared/logger"
	"gestao-backend/shared/permissions"
	"gestao-backend/shared/utils/query"
)

// MessageHandler serves company-scoped 1:1 threads. A thread is the
// unordered pair of participants within one company; there is no thread
// table, only messages matched from both directions.
type MessageHandler struct {
	db    *gorm.DB
	perms *permissions.Checker
	hub   *ws.Hub
}

// NewMessageHandler wires the handler. hub may be nil; delivery then
// degrades to plain persistence.
func NewMessageHandler(db *gorm.DB, perms *permissions.Checker, hub *ws.Hub) *MessageHandler {
	return &MessageHandler{db: db, perms: perms, hub: hub}
}

// SendMessageRequest represents request body for sending a message
type SendMessageRequest struct {
	ReceiverID uint   `json:"receiver_id" binding:"required"`
	CompanyID  uint   `json:"company_id" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

// MarkReadRequest represents request body for marking one direction of
// a thread read: messages from SenderID to ReceiverID.
type MarkReadRequest struct {
	SenderID   uint `json:"sender_id" binding:"required"`
	ReceiverID uint `json:"receiver_id" binding:"required"`
	CompanyID  uint `json:"company_id" binding:"required"`
}

// SendMessage persists a message and, when the receiver has a live
// websocket connection, pushes it immediately
// @Summary Send message
// @Tags messages
// @Accept json
// @Produce json
// @Param message body SendMessageRequest true "Message"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 403 {object} handlers.ErrorResponse
// @Router /messages [post]
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Receiver, company and content are required",
			"message": err.Error(),
		})
		return
	}

	senderID := currentUserID(c)
	if req.ReceiverID == senderID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot send a message to yourself"})
		return
	}

	if !requireMember(c, h.perms, req.CompanyID) {
		return
	}

	receiverMember, err := h.perms.IsMember(c.Request.Context(), req.ReceiverID, req.CompanyID)
	if err != nil {
		logger.Get().Error("membership lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify company membership"})
		return
	}
	if !receiverMember {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Receiver is not a member of this company"})
		return
	}

	message := models.Message{
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		CompanyID:  req.CompanyID,
		Content:    req.Content,
	}

	if err := h.db.Create(&message).Error; err != nil {
		logger.Get().Error("failed to send message", zap.Uint("company_id", req.CompanyID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	if h.hub != nil {
		h.hub.SendToUser(req.ReceiverID, &ws.Event{
			Type:      "new_message",
			Timestamp: time.Now().UTC(),
			Data:      message,
		})
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Message sent successfully",
		"data":    message,
	})
}

// GetThread returns the full conversation between two users inside one
// company, both directions, oldest first. The caller must be one of
// the participants; the pair is symmetric
// @Summary Get conversation thread
// @Tags messages
// @Produce json
// @Param company_id query int true "Company ID"
// @Param user1_id query int true "First participant"
// @Param user2_id query int true "Second participant"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 403 {object} handlers.ErrorResponse
// @Router /messages [get]
func (h *MessageHandler) GetThread(c *gin.Context) {
	companyID, companyGiven, ok := query.UintQuery(c, "company_id")
	if !companyGiven || !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Company ID is required"})
		return
	}
	user1ID, user1Given, ok := query.UintQuery(c, "user1_id")
	if !user1Given || !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Both participant IDs are required"})
		return
	}
	user2ID, user2Given, ok := query.UintQuery(c, "user2_id")
	if !user2Given || !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Both participant IDs are required"})
		return
	}

	userID := currentUserID(c)
	if userID != user1ID && userID != user2ID && !isGlobalAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Access denied",
			"message": "You can only read threads you participate in",
		})
		return
	}

	if !requireMember(c, h.perms, companyID) {
		return
	}

	var messages []models.Message
	if err := h.db.Where("company_id = ?", companyID).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			user1ID, user2ID, user2ID, user1ID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		logger.Get().Error("failed to load thread",
			zap.Uint("company_id", companyID),
			zap.Uint("user1_id", user1ID),
			zap.Uint("user2_id", user2ID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": messages})
}

// MarkRead flags one direction of a thread as read: messages from
// sender to receiver. Read state belongs to the receiver, so only the
// receiver may acknowledge. Marking an empty thread is a no-op success
// @Summary Mark thread as read
// @Tags messages
// @Accept json
// @Produce json
// @Param thread body MarkReadRequest true "Direction to acknowledge"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 403 {object} handlers.ErrorResponse
// @Router /messages/read [put]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Sender, receiver and company are required",
			"message": err.Error(),
		})
		return
	}

	if req.ReceiverID != currentUserID(c) && !isGlobalAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Access denied",
			"message": "You can only mark your own incoming messages as read",
		})
		return
	}

	if !requireMember(c, h.perms, req.CompanyID) {
		return
	}

	result := h.db.Model(&models.Message{}).
		Where("company_id = ? AND sender_id = ? AND receiver_id = ? AND is_read = ?",
			req.CompanyID, req.SenderID, req.ReceiverID, false).
		Update("is_read", true)
	if result.Error != nil {
		logger.Get().Error("failed to mark thread read",
			zap.Uint("company_id", req.CompanyID),
			zap.Uint("sender_id", req.SenderID),
			zap.Error(result.Error))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark messages as read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Messages marked as read",
		"data":    gin.H{"updated": result.RowsAffected},
	})
}
