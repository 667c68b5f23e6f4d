package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/logger"
)

type postContentRequest struct {
	Force bool `json:"force"`
}

// postContent publishes one content item immediately.
// POST /api/v1/content/:id/post
func (r *Router) postContent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid content ID format",
		})
		return
	}

	// The body is optional; an empty body means force=false.
	var req postContentRequest
	if c.Request.ContentLength > 0 {
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request payload",
				"details": bindErr.Error(),
			})
			return
		}
	}

	result, err := r.poster.PostContent(c.Request.Context(), id, req.Force)
	if err != nil {
		r.logger.Error("post content failed",
			logger.String("content_id", id.String()),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": domain.SanitizeError(err),
		})
		return
	}

	if !result.Success {
		c.JSON(http.StatusConflict, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// processScheduledPost publishes the next due schedule slot, if any.
// POST /api/v1/posting/process
func (r *Router) processScheduledPost(c *gin.Context) {
	result, err := r.poster.ProcessScheduledPost(c.Request.Context())
	if errors.Is(err, domain.ErrNoDueSlot) {
		c.JSON(http.StatusOK, gin.H{
			"posted":  false,
			"message": "No scheduled slot is due",
		})
		return
	}
	if err != nil {
		r.logger.Error("process scheduled post failed", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": domain.SanitizeError(err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posted": result.Success,
		"result": result,
	})
}

// queueHealth reports the approved-content backlog status.
// GET /api/v1/queue/health
func (r *Router) queueHealth(c *gin.Context) {
	health, err := r.poster.CheckQueueHealth(c.Request.Context())
	if err != nil {
		r.logger.Error("queue health check failed", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to check queue health",
		})
		return
	}

	c.JSON(http.StatusOK, health)
}
