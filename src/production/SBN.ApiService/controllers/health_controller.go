package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gitlab.com/binsense1/sbn.bin_server/src/production/SBN.ApiService/health"
	broker "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Broker"
	logger "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Logger"
)

// HealthController handles health requests
type HealthController struct {
	healthChecker *health.HealthChecker
	broker        *broker.Manager
	logger        *logger.Logger
}

// NewHealthController creates a new health controller
func NewHealthController(healthChecker *health.HealthChecker, broker *broker.Manager, logger *logger.Logger) *HealthController {
	return &HealthController{
		healthChecker: healthChecker,
		broker:        broker,
		logger:        logger,
	}
}

// RegisterRoutes registers the health routes with Gin
func (c *HealthController) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", c.HealthReady)
	router.GET("/health/live", c.HealthLive)
	router.GET("/health/ready", c.HealthReady)
}

func (c *HealthController) HealthLive(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func (c *HealthController) HealthReady(ctx *gin.Context) {
	dbOK := true
	if err := c.healthChecker.PingPostgres(ctx); err != nil {
		dbOK = false
		c.logger.ErrorWithError(err, "Readiness database ping failed")
	}

	status := http.StatusOK
	if !dbOK {
		status = http.StatusServiceUnavailable
	}

	ctx.JSON(status, gin.H{
		"status": "ready",
		"db":     dbOK,
		"broker": c.broker.Status(),
	})
}
