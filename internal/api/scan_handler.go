package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/logger"
)

// scanAllPlatforms runs one coordinated scan across every enabled platform.
// POST /api/v1/scan
func (r *Router) scanAllPlatforms(c *gin.Context) {
	result, err := r.scanner.PerformCoordinatedScan(c.Request.Context())
	if errors.Is(err, domain.ErrScanInProgress) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Scan already in progress",
		})
		return
	}
	if err != nil {
		r.logger.Error("coordinated scan failed", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": domain.SanitizeError(err),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// latestScanResult returns the most recent coordinated scan audit row.
// GET /api/v1/scan/latest
func (r *Router) latestScanResult(c *gin.Context) {
	result, err := r.scanAudit.GetLatest(c.Request.Context())
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "No scan has run yet",
		})
		return
	}
	if err != nil {
		r.logger.Error("failed to load latest scan result", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": domain.SanitizeError(err),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// scanPlatform runs a single-platform scan.
// POST /api/v1/scan/:platform
func (r *Router) scanPlatform(c *gin.Context) {
	p := domain.Platform(c.Param("platform"))
	if !p.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown platform: " + c.Param("platform"),
		})
		return
	}

	outcome, err := r.scanner.ScanPlatform(c.Request.Context(), p)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Platform not enabled: " + string(p),
		})
		return
	case errors.Is(err, domain.ErrScanInProgress):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Scan already in progress for " + string(p),
		})
		return
	case err != nil:
		r.logger.Error("platform scan failed",
			logger.String("platform", string(p)),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": domain.SanitizeError(err),
		})
		return
	}

	body := gin.H{
		"success":     outcome.Success,
		"posts_added": outcome.Approved,
		"stats":       outcome,
	}

	switch {
	case !outcome.Success:
		// The platform never produced a usable scan: connectivity
		// pre-check failure, quota exhaustion or adapter error.
		c.JSON(http.StatusBadGateway, body)
	case outcome.Approved == 0:
		body["success"] = false
		c.JSON(http.StatusBadRequest, body)
	default:
		c.JSON(http.StatusOK, body)
	}
}
