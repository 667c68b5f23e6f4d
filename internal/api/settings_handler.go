package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/logger"
)

// getCoordinationSettings returns the current coordination configuration.
// GET /api/v1/settings/coordination
func (r *Router) getCoordinationSettings(c *gin.Context) {
	cfg, err := r.settings.Get(c.Request.Context())
	if err != nil {
		r.logger.Error("failed to load coordination settings", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load coordination settings",
		})
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// updateCoordinationSettings validates and stores a new configuration.
// PUT /api/v1/settings/coordination
func (r *Router) updateCoordinationSettings(c *gin.Context) {
	var cfg domain.CoordinationConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return
	}

	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := r.settings.Update(c.Request.Context(), &cfg)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSettings) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		r.logger.Error("failed to update coordination settings", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update coordination settings",
		})
		return
	}

	c.JSON(http.StatusOK, updated)
}
