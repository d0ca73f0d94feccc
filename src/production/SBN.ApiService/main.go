package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gitlab.com/binsense1/sbn.bin_server/src/production/SBN.ApiService/controllers"
	broker "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Broker"
	container "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Container"
	dashboard "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Dashboard"
	ingestor "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Ingestor"
	livestore "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.LiveStore"
	implementation "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Repository/Implementation"
)

func main() {
	// Initialize dependency injection container
	ctr, err := container.NewContainer()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize container: %v", err))
	}
	defer ctr.Shutdown(context.Background())

	logger := ctr.GetLogger()
	logger.Info("Starting smart-bin telemetry server")

	// Initialize database
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ctr.InitializeDatabase(ctx); err != nil {
		logger.FatalWithError(err, "Failed to initialize database")
	}

	db, err := ctr.GetDatabase()
	if err != nil {
		logger.FatalWithError(err, "Failed to get database connection")
	}

	// Create repositories
	deviceRepo := implementation.NewPostgresDeviceRepository(db)
	readingRepo := implementation.NewPostgresReadingRepository(db)
	settingsRepo := implementation.NewPostgresSettingsRepository(db)

	config := ctr.GetConfig()

	// Live state cache: empty on every start, the dashboard falls back
	// to persisted data until messages arrive.
	liveStore := livestore.New()

	// Broker connection and ingestion pipeline
	brokerManager := broker.NewManager(config, logger)
	dispatcher := broker.NewDispatcher(brokerManager, deviceRepo, config.Bins.DefaultThreshold, logger)
	synchronizer := ingestor.NewSynchronizer(deviceRepo, readingRepo, config.Bins.AutoDeploy, config.Bins.DefaultThreshold, logger)
	router := ingestor.NewRouter(liveStore, synchronizer, dispatcher, logger)

	if err := brokerManager.Connect(); err != nil {
		// The manager keeps retrying on transport failures; only local
		// misconfiguration (e.g. a bad CA file) lands here.
		logger.FatalWithError(err, "Failed to start MQTT connection")
	}

	routerCtx, routerCancel := context.WithCancel(context.Background())
	routerDone := make(chan struct{})
	go func() {
		defer close(routerDone)
		router.Run(routerCtx, brokerManager.Messages())
	}()

	// Read-side aggregation
	aggregator := dashboard.NewAggregator(liveStore, deviceRepo, readingRepo, settingsRepo, brokerManager, logger)

	healthChecker, err := ctr.GetHealthChecker()
	if err != nil {
		logger.FatalWithError(err, "Failed to get health checker")
	}

	// Initialize Gin router
	ginRouter := gin.New()
	ginRouter.Use(gin.Logger())
	ginRouter.Use(gin.Recovery())

	// Configure CORS from config
	corsConfig := cors.Config{
		AllowOrigins:     config.CORS.AllowedOrigins,
		AllowMethods:     config.CORS.AllowedMethods,
		AllowHeaders:     config.CORS.AllowedHeaders,
		ExposeHeaders:    config.CORS.ExposedHeaders,
		AllowCredentials: config.CORS.AllowCredentials,
		MaxAge:           time.Duration(config.CORS.MaxAge) * time.Second,
	}
	ginRouter.Use(cors.New(corsConfig))

	// Create controllers and register routes
	dashboardController := controllers.NewDashboardController(aggregator, dispatcher, logger)
	deviceController := controllers.NewDeviceController(deviceRepo, readingRepo, dispatcher, config.Bins, logger)
	settingsController := controllers.NewSettingsController(settingsRepo, logger)
	healthController := controllers.NewHealthController(healthChecker, brokerManager, logger)

	dashboardController.RegisterRoutes(ginRouter)
	deviceController.RegisterRoutes(ginRouter)
	settingsController.RegisterRoutes(ginRouter)
	healthController.RegisterRoutes(ginRouter)

	// Create HTTP server with timeouts
	port := config.Server.Port
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      ginRouter,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  config.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP server starting on port " + port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithError(err, "Failed to start HTTP server")
		}
	}()

	logger.Info("Smart-bin server running... press Ctrl+C to stop")

	// Wait for shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithError(err, "Server forced to shutdown")
	}

	// Stop the ingestion pipeline: disconnecting closes the inbound
	// channel, which drains and ends the router loop.
	brokerManager.Disconnect()
	<-routerDone
	routerCancel()
}
