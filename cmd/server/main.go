package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"onpointe/prevention/internal/api"
	"onpointe/prevention/internal/config"
	"onpointe/prevention/internal/logging"
	"onpointe/prevention/internal/repository/mongo"
	"onpointe/prevention/internal/risk"
	"onpointe/prevention/internal/service"
	"onpointe/prevention/internal/storage"
)

func main() {
	configPath := flag.String("config", ".", "directory holding config.yaml")
	flag.Parse()

	// --- Configuration ---
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		// No logger yet; the config decides its shape.
		panic("could not load config: " + err.Error())
	}

	logger, err := logging.New(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("starting On Pointe server", zap.String("address", cfg.Server.Address), zap.String("basePath", cfg.Server.BasePath))
	if cfg.JWT.Secret == "" {
		logger.Fatal("jwt.secret must be set (JWT_SECRET)")
	}

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.Fatal("could not connect to MongoDB", zap.Error(err))
	}
	defer func() {
		logger.Info("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error("failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logger.Info("database connection established", zap.String("database", cfg.Database.Name))

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		mongo.EnsureIndexes(ctx, appDB, logger)
		logger.Info("index creation completed")
	}()

	// --- Initialize Storage ---
	fileStorage, err := storage.NewS3Storage(context.Background(), cfg.S3, logger)
	if err != nil {
		logger.Fatal("failed to initialize S3 storage", zap.Error(err))
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	checkInRepo := mongo.NewMongoCheckInRepository(appDB, logger)
	threadRepo := mongo.NewMongoThreadRepository(appDB)
	messageRepo := mongo.NewMongoMessageRepository(appDB)
	alertRepo := mongo.NewMongoAlertRepository(appDB)
	availabilityRepo := mongo.NewMongoAvailabilityRepository(appDB)
	linkCodeRepo := mongo.NewMongoLinkCodeRepository(appDB)

	// --- Initialize Services ---
	evaluator := risk.NewEvaluator(cfg.Risk)
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	rosterService := service.NewRosterService(userRepo, checkInRepo, threadRepo, linkCodeRepo)
	messagingService := service.NewMessagingService(threadRepo, messageRepo, userRepo, logger)
	alertService := service.NewAlertService(checkInRepo, alertRepo, userRepo, evaluator, logger)
	services := api.Services{
		Auth:         authService,
		Roster:       rosterService,
		Availability: service.NewAvailabilityService(availabilityRepo, userRepo),
		Messaging:    messagingService,
		Alerts:       alertService,
		Seed:         service.NewSeedService(userRepo, checkInRepo, rosterService, messagingService, alertService, logger),
		Reports:      service.NewReportService(userRepo, checkInRepo, fileStorage, logger),
	}

	// --- Check-in evaluation ---
	watchCtx, stopWatching := context.WithCancel(context.Background())
	defer stopWatching()
	go service.NewCheckInWatcher(checkInRepo, alertService, logger).Run(watchCtx)

	// --- Initialize Gin Engine ---
	if cfg.Log.Env != "dev" && cfg.Log.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger))
	api.SetupRoutes(router, cfg.Server.BasePath, cfg.JWT.Secret, userRepo, services, logger)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("ListenAndServe failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")
	stopWatching()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
