package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/service"
)

// RosterHandler serves linking, the PT roster, demo seeding and reports.
type RosterHandler struct {
	rosterService service.RosterService
	seedService   service.SeedService
	reportService service.ReportService
	logger        *zap.Logger
}

func NewRosterHandler(
	rosterService service.RosterService,
	seedService service.SeedService,
	reportService service.ReportService,
	logger *zap.Logger,
) *RosterHandler {
	return &RosterHandler{
		rosterService: rosterService,
		seedService:   seedService,
		reportService: reportService,
		logger:        logger,
	}
}

// --- DTOs ---
type RedeemCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

type DancerRequest struct {
	DancerID string `json:"dancerId" binding:"required"`
}

// GetMyDancers lists the authenticated PT's linked dancers.
// @Router /getMyDancers [get]
func (h *RosterHandler) GetMyDancers(c *gin.Context) {
	ptID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify PT from token.")
		return
	}

	dancers, err := h.rosterService.GetMyDancers(c.Request.Context(), ptID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve dancers.")
		return
	}
	if dancers == nil {
		dancers = []domain.DancerSummary{} // Return empty JSON array, not null
	}
	c.JSON(http.StatusOK, gin.H{"dancers": dancers})
}

// GetDancerRecentCheckins returns a linked dancer's newest check-ins.
// @Router /getDancerRecentCheckins [get]
func (h *RosterHandler) GetDancerRecentCheckins(c *gin.Context) {
	ptID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify PT from token.")
		return
	}
	dancerID := c.Query("dancerId")
	if dancerID == "" {
		abortWithError(c, http.StatusBadRequest, "dancerId is required")
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			abortWithError(c, http.StatusBadRequest, "limit must be a number")
			return
		}
	}

	items, err := h.rosterService.GetDancerRecentCheckins(c.Request.Context(), ptID, dancerID, limit)
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve check-ins.")
		return
	}
	if items == nil {
		items = []domain.CheckIn{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GeneratePTCode issues a linking code for the authenticated PT.
// @Router /generatePtCode [post]
func (h *RosterHandler) GeneratePTCode(c *gin.Context) {
	ptID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify PT from token.")
		return
	}

	code, err := h.rosterService.GenerateCode(c.Request.Context(), ptID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to generate code.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code.Code, "expiresAt": code.ExpiresAt})
}

// RedeemPTCode links the authenticated dancer to the code's PT.
// @Router /redeemPtCode [post]
func (h *RosterHandler) RedeemPTCode(c *gin.Context) {
	var req RedeemCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	dancerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify dancer from token.")
		return
	}

	ptID, threadID, err := h.rosterService.RedeemCode(c.Request.Context(), dancerID, req.Code)
	if err != nil {
		respondError(c, h.logger, err, "Failed to redeem code.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ptId": ptID, "threadId": threadID})
}

// SeedDemoData adds a demo dancer to the authenticated PT's roster.
// @Router /seedDemoData [post]
func (h *RosterHandler) SeedDemoData(c *gin.Context) {
	ptID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify PT from token.")
		return
	}

	dancerID, err := h.seedService.SeedDemoData(c.Request.Context(), ptID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to seed demo data.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"dancerId": dancerID})
}

// ExportDancerReport returns a download URL for a linked dancer's report.
// @Router /exportDancerReport [post]
func (h *RosterHandler) ExportDancerReport(c *gin.Context) {
	var req DancerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	ptID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify PT from token.")
		return
	}

	url, err := h.reportService.ExportDancerReport(c.Request.Context(), ptID, req.DancerID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to export report.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
