package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/logger"
)

type scheduleRequest struct {
	Date    string `json:"date"`
	Mode    string `json:"mode"`
	TwoDays bool   `json:"two_days"`
}

// generateSchedule fills slots for one day, or refills today and tomorrow.
// POST /api/v1/schedule
func (r *Router) generateSchedule(c *gin.Context) {
	ctx := c.Request.Context()

	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return
	}

	if req.Date == "" {
		req.Date = r.now().Format(domain.DateFormat)
	}
	if _, err := time.Parse(domain.DateFormat, req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid date format, expected YYYY-MM-DD: " + req.Date,
		})
		return
	}

	if req.TwoDays {
		result, err := r.scheduler.RefillTwoDays(ctx, req.Date)
		if err != nil {
			r.scheduleError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	mode := domain.ScheduleMode(req.Mode)
	if req.Mode == "" {
		mode = domain.ScheduleModeRefill
	}
	if !mode.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown schedule mode: " + req.Mode,
		})
		return
	}

	result, err := r.scheduler.GenerateSchedule(ctx, req.Date, mode)
	if err != nil {
		r.scheduleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (r *Router) scheduleError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrInvalidSettings) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r.logger.Error("schedule generation failed", logger.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": domain.SanitizeError(err),
	})
}
