package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	broker "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Broker"
	config "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Config"
	logger "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Logger"
	sbnmodels "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Models"
	interfaces "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Repository/Interfaces"
)

const historyLimit = 50

// DeviceController handles device management requests
type DeviceController struct {
	deviceRepo  interfaces.DeviceRepository
	readingRepo interfaces.ReadingRepository
	dispatcher  *broker.Dispatcher
	bins        config.BinConfig
	logger      *logger.Logger
}

// NewDeviceController creates a new device controller
func NewDeviceController(deviceRepo interfaces.DeviceRepository, readingRepo interfaces.ReadingRepository, dispatcher *broker.Dispatcher, bins config.BinConfig, logger *logger.Logger) *DeviceController {
	return &DeviceController{
		deviceRepo:  deviceRepo,
		readingRepo: readingRepo,
		dispatcher:  dispatcher,
		bins:        bins,
		logger:      logger,
	}
}

// RegisterRoutes registers the device routes with Gin
func (c *DeviceController) RegisterRoutes(router *gin.Engine) {
	devices := router.Group("/devices")
	{
		devices.GET("", c.ListDevices)
		devices.PATCH("/:device_id", c.UpdateDeviceSettings)
		devices.GET("/:device_id/history", c.GetDeviceHistory)
		devices.POST("/:device_id/readings/clear", c.ClearDeviceReadings)
	}
}

func (c *DeviceController) ListDevices(ctx *gin.Context) {
	devices, err := c.deviceRepo.ListDevices(ctx)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, devices)
}

type UpdateDeviceSettingsRequest struct {
	Location  *string `json:"location,omitempty"`
	Threshold *int    `json:"threshold,omitempty"`
	Deployed  *bool   `json:"deployed,omitempty"`
}

// UpdateDeviceSettings applies an operator edit. A threshold change
// additionally pushes the new value to the device as a retained config
// message; that delivery is advisory, so a publish failure is logged
// and the persisted value stands.
func (c *DeviceController) UpdateDeviceSettings(ctx *gin.Context) {
	deviceID := ctx.Param("device_id")

	var req UpdateDeviceSettingsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Threshold != nil && (*req.Threshold < 0 || *req.Threshold > 100) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be between 0 and 100"})
		return
	}

	patch := sbnmodels.DeviceSettingsPatch{
		Location:  req.Location,
		Threshold: req.Threshold,
		Deployed:  req.Deployed,
	}
	if err := c.deviceRepo.UpdateDeviceSettings(ctx, deviceID, patch); err != nil {
		if errors.Is(err, interfaces.ErrDeviceNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if req.Threshold != nil {
		if err := c.dispatcher.PushConfig(deviceID, *req.Threshold); err != nil {
			c.logger.WithDevice(deviceID).ErrorWithError(err, "Config push failed after threshold update")
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

func (c *DeviceController) GetDeviceHistory(ctx *gin.Context) {
	deviceID := ctx.Param("device_id")

	readings, err := c.readingRepo.GetReadingHistory(ctx, deviceID, historyLimit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Repo returns newest first; the chart wants chronological order.
	for i, j := 0, len(readings)-1; i < j; i, j = i+1, j-1 {
		readings[i], readings[j] = readings[j], readings[i]
	}

	threshold := c.bins.DefaultThreshold
	device, err := c.deviceRepo.GetDevice(ctx, deviceID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if device != nil {
		threshold = device.Threshold
	}

	ctx.JSON(http.StatusOK, gin.H{
		"history":   readings,
		"threshold": threshold,
	})
}

func (c *DeviceController) ClearDeviceReadings(ctx *gin.Context) {
	deviceID := ctx.Param("device_id")

	if err := c.readingRepo.DeleteReadingsByDevice(ctx, deviceID); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}
