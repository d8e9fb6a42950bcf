package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/service"
)

// MessagingHandler serves threads, messages and alert review.
type MessagingHandler struct {
	messagingService service.MessagingService
	alertService     service.AlertService
	logger           *zap.Logger
}

func NewMessagingHandler(messagingService service.MessagingService, alertService service.AlertService, logger *zap.Logger) *MessagingHandler {
	return &MessagingHandler{
		messagingService: messagingService,
		alertService:     alertService,
		logger:           logger,
	}
}

// --- DTOs ---
type SendMessageRequest struct {
	ThreadID string `json:"threadId" binding:"required"`
	Text     string `json:"text" binding:"required"`
}

type ThreadRequest struct {
	ThreadID string `json:"threadId" binding:"required"`
}

type AlertRequest struct {
	AlertID string `json:"alertId" binding:"required"`
}

// GetMyThreads lists the caller's threads with their own unread counts.
// @Router /getMyThreads [get]
func (h *MessagingHandler) GetMyThreads(c *gin.Context) {
	uid, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	threads, err := h.messagingService.GetMyThreads(c.Request.Context(), uid)
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve threads.")
		return
	}
	if threads == nil {
		threads = []domain.ThreadSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads})
}

// SendMessage posts into a thread the caller belongs to.
// @Router /sendMessage [post]
func (h *MessagingHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	uid, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	msg, err := h.messagingService.Send(c.Request.Context(), uid, req.ThreadID, req.Text)
	if err != nil {
		respondError(c, h.logger, err, "Failed to send message.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messageId": msg.ID})
}

// MarkThreadRead resets the caller's unread count.
// @Router /markThreadRead [post]
func (h *MessagingHandler) MarkThreadRead(c *gin.Context) {
	var req ThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	uid, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	if err := h.messagingService.MarkRead(c.Request.Context(), uid, req.ThreadID); err != nil {
		respondError(c, h.logger, err, "Failed to mark thread read.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// MarkAlertReviewed flags one of the PT's alerts as reviewed.
// @Router /markAlertReviewed [post]
func (h *MessagingHandler) MarkAlertReviewed(c *gin.Context) {
	var req AlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	ptID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify PT from token.")
		return
	}

	if err := h.alertService.MarkReviewed(c.Request.Context(), ptID, req.AlertID); err != nil {
		respondError(c, h.logger, err, "Failed to mark alert reviewed.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
