package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	broker "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Broker"
	dashboard "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Dashboard"
	logger "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Logger"
)

// DashboardController serves the composed per-device view polled by
// the dashboard, plus the device ping command.
type DashboardController struct {
	aggregator *dashboard.Aggregator
	dispatcher *broker.Dispatcher
	logger     *logger.Logger
}

// NewDashboardController creates a new dashboard controller
func NewDashboardController(aggregator *dashboard.Aggregator, dispatcher *broker.Dispatcher, logger *logger.Logger) *DashboardController {
	return &DashboardController{
		aggregator: aggregator,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterRoutes registers the dashboard routes with Gin
func (c *DashboardController) RegisterRoutes(router *gin.Engine) {
	router.GET("/dashboard", c.GetDashboardData)
	router.POST("/devices/:device_id/ping", c.PingDevice)
}

func (c *DashboardController) GetDashboardData(ctx *gin.Context) {
	data, err := c.aggregator.DashboardData(ctx)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, data)
}

func (c *DashboardController) PingDevice(ctx *gin.Context) {
	deviceID := ctx.Param("device_id")

	if err := c.dispatcher.Ping(deviceID); err != nil {
		if errors.Is(err, broker.ErrNotConnected) {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}
