package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/service"
)

type AvailabilityHandler struct {
	availabilityService service.AvailabilityService
	logger              *zap.Logger
}

func NewAvailabilityHandler(availabilityService service.AvailabilityService, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{availabilityService: availabilityService, logger: logger}
}

// --- DTOs ---
type SlotRequest struct {
	Date  string `json:"date" binding:"required"`
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
	Note  string `json:"note"`
}

type DeleteSlotRequest struct {
	SlotID string `json:"slotId" binding:"required"`
}

// GetMyAvailability lists the authenticated PT's upcoming slots.
// @Router /getMyAvailability [get]
func (h *AvailabilityHandler) GetMyAvailability(c *gin.Context) {
	ptID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify PT from token.")
		return
	}

	slots, err := h.availabilityService.GetMySlots(c.Request.Context(), ptID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve availability.")
		return
	}
	respondSlots(c, slots)
}

// GetLinkedPTAvailability lists the dancer's PT's upcoming slots.
// @Router /getLinkedPtAvailability [get]
func (h *AvailabilityHandler) GetLinkedPTAvailability(c *gin.Context) {
	dancerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify dancer from token.")
		return
	}

	slots, err := h.availabilityService.GetLinkedPTSlots(c.Request.Context(), dancerID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve availability.")
		return
	}
	respondSlots(c, slots)
}

// SetMyAvailability publishes a slot.
// @Router /setMyAvailability [post]
func (h *AvailabilityHandler) SetMyAvailability(c *gin.Context) {
	var req SlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	ptID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify PT from token.")
		return
	}

	slot, err := h.availabilityService.AddSlot(c.Request.Context(), ptID, domain.AvailabilitySlot{
		Date:  req.Date,
		Start: req.Start,
		End:   req.End,
		Note:  req.Note,
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to save availability.")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"slotId": slot.ID})
}

// DeleteMyAvailability removes one of the PT's slots.
// @Router /deleteMyAvailability [post]
func (h *AvailabilityHandler) DeleteMyAvailability(c *gin.Context) {
	var req DeleteSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	ptID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify PT from token.")
		return
	}

	if err := h.availabilityService.DeleteSlot(c.Request.Context(), ptID, req.SlotID); err != nil {
		respondError(c, h.logger, err, "Failed to delete availability.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func respondSlots(c *gin.Context, slots []domain.AvailabilitySlot) {
	if slots == nil {
		slots = []domain.AvailabilitySlot{}
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}
