package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	logger "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Logger"
	sbnmodels "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Models"
	interfaces "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Repository/Interfaces"
)

// SettingsController exposes the dual-timeout liveness policy.
type SettingsController struct {
	settingsRepo interfaces.SettingsRepository
	logger       *logger.Logger
}

// NewSettingsController creates a new settings controller
func NewSettingsController(settingsRepo interfaces.SettingsRepository, logger *logger.Logger) *SettingsController {
	return &SettingsController{
		settingsRepo: settingsRepo,
		logger:       logger,
	}
}

// RegisterRoutes registers the settings routes with Gin
func (c *SettingsController) RegisterRoutes(router *gin.Engine) {
	router.GET("/settings", c.GetSystemSettings)
	router.PUT("/settings", c.UpdateSystemSettings)
}

func (c *SettingsController) GetSystemSettings(ctx *gin.Context) {
	settings := sbnmodels.SystemSettings{
		StandardTimeout: sbnmodels.DefaultStandardTimeout.Milliseconds(),
		TiltedTimeout:   sbnmodels.DefaultTiltedTimeout.Milliseconds(),
	}

	if row, err := c.settingsRepo.GetSetting(ctx, sbnmodels.SettingStandardTimeout); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	} else if row != nil && row.Value > 0 {
		settings.StandardTimeout = row.Value
	}

	if row, err := c.settingsRepo.GetSetting(ctx, sbnmodels.SettingTiltedTimeout); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	} else if row != nil && row.Value > 0 {
		settings.TiltedTimeout = row.Value
	}

	ctx.JSON(http.StatusOK, settings)
}

type UpdateSystemSettingsRequest struct {
	StandardTimeout int64 `json:"standardTimeout"`
	TiltedTimeout   int64 `json:"tiltedTimeout"`
}

// UpdateSystemSettings replaces both timeout values. Each value is
// validated against the floor before any row is written, so a rejected
// request changes nothing.
func (c *SettingsController) UpdateSystemSettings(ctx *gin.Context) {
	var req UpdateSystemSettingsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	floor := sbnmodels.MinTimeout.Milliseconds()
	if req.StandardTimeout < floor || req.TiltedTimeout < floor {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "timeout values must be at least 1000 ms"})
		return
	}

	standard := sbnmodels.SystemSetting{
		Key:         sbnmodels.SettingStandardTimeout,
		Value:       req.StandardTimeout,
		Description: "Connection timeout for upright devices",
	}
	if err := c.settingsRepo.UpsertSetting(ctx, standard); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	tilted := sbnmodels.SystemSetting{
		Key:         sbnmodels.SettingTiltedTimeout,
		Value:       req.TiltedTimeout,
		Description: "Connection timeout for tilted devices",
	}
	if err := c.settingsRepo.UpsertSetting(ctx, tilted); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}
