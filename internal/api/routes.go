package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/repository"
	"onpointe/prevention/internal/service"
)

// Services bundles what the routes dispatch to.
type Services struct {
	Auth         service.AuthService
	Roster       service.RosterService
	Availability service.AvailabilityService
	Messaging    service.MessagingService
	Alerts       service.AlertService
	Seed         service.SeedService
	Reports      service.ReportService
}

// SetupRoutes mounts every RPC under basePath, named the way clients call them.
func SetupRoutes(
	router *gin.Engine,
	basePath string,
	jwtSecret string,
	userRepo repository.UserRepository,
	services Services,
	logger *zap.Logger,
) {
	authHandler := NewAuthHandler(services.Auth, logger)
	rosterHandler := NewRosterHandler(services.Roster, services.Seed, services.Reports, logger)
	availabilityHandler := NewAvailabilityHandler(services.Availability, logger)
	messagingHandler := NewMessagingHandler(services.Messaging, services.Alerts, logger)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	root := router.Group(basePath)
	{
		authGroup := root.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := root.Group("")
	protected.Use(AuthMiddleware(jwtSecret), ProfileMiddleware(userRepo, logger))
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userID, "role": role})
		})

		// --- Either role ---
		anyRole := protected.Group("")
		anyRole.Use(RoleMiddleware(domain.RolePT, domain.RoleDancer))
		{
			anyRole.GET("/getMyThreads", messagingHandler.GetMyThreads)
			anyRole.POST("/sendMessage", messagingHandler.SendMessage)
			anyRole.POST("/markThreadRead", messagingHandler.MarkThreadRead)
		}

		// --- PT Specific Routes ---
		ptGroup := protected.Group("")
		ptGroup.Use(RoleMiddleware(domain.RolePT))
		{
			ptGroup.GET("/getMyDancers", rosterHandler.GetMyDancers)
			ptGroup.GET("/getDancerRecentCheckins", rosterHandler.GetDancerRecentCheckins)
			ptGroup.POST("/generatePtCode", rosterHandler.GeneratePTCode)
			ptGroup.POST("/seedDemoData", rosterHandler.SeedDemoData)
			ptGroup.POST("/exportDancerReport", rosterHandler.ExportDancerReport)
			ptGroup.GET("/getMyAvailability", availabilityHandler.GetMyAvailability)
			ptGroup.POST("/setMyAvailability", availabilityHandler.SetMyAvailability)
			ptGroup.POST("/deleteMyAvailability", availabilityHandler.DeleteMyAvailability)
			ptGroup.POST("/markAlertReviewed", messagingHandler.MarkAlertReviewed)
		}

		// --- Dancer Specific Routes ---
		dancerGroup := protected.Group("")
		dancerGroup.Use(RoleMiddleware(domain.RoleDancer))
		{
			dancerGroup.POST("/redeemPtCode", rosterHandler.RedeemPTCode)
			dancerGroup.GET("/getLinkedPtAvailability", availabilityHandler.GetLinkedPTAvailability)
		}
	}
}
