package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/course-extract-go/internal/app"
	"github.com/yourusername/course-extract-go/internal/domain"
)

// RunHandler handles run-related HTTP requests
type RunHandler struct {
	queueMgr *app.QueueManager
	runMgr   *app.RunManager
	logger   *zap.Logger
}

// NewRunHandler creates a new run handler
func NewRunHandler(queueMgr *app.QueueManager, runMgr *app.RunManager, logger *zap.Logger) *RunHandler {
	return &RunHandler{
		queueMgr: queueMgr,
		runMgr:   runMgr,
		logger:   logger,
	}
}

// AddRunRequest represents a request to queue a course run
type AddRunRequest struct {
	CourseName string `json:"course_name" binding:"required"`
	CourseURL  string `json:"course_url" binding:"required"`
}

// RunDetail is a run together with its per-lecture outcomes
type RunDetail struct {
	*domain.Run
	Items []*domain.RunItem `json:"items"`
}

// AddRun handles POST /api/v1/runs
func (h *RunHandler) AddRun(c *gin.Context) {
	var req AddRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !domain.ValidateCourseURL(req.CourseURL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "course_url must be an http(s) URL"})
		return
	}

	run, err := h.queueMgr.AddRun(req.CourseName, req.CourseURL)
	if err != nil {
		h.logger.Error("Failed to add run", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, run)
}

// GetRun handles GET /api/v1/runs/:id
func (h *RunHandler) GetRun(c *gin.Context) {
	id := c.Param("id")

	run, err := h.queueMgr.GetRun(id)
	if err != nil {
		h.respondError(c, "Failed to get run", id, err)
		return
	}

	c.JSON(http.StatusOK, run)
}

// GetRunItems handles GET /api/v1/runs/:id/items
func (h *RunHandler) GetRunItems(c *gin.Context) {
	id := c.Param("id")

	run, err := h.queueMgr.GetRun(id)
	if err != nil {
		h.respondError(c, "Failed to get run", id, err)
		return
	}
	items, err := h.queueMgr.GetRunItems(id)
	if err != nil {
		h.respondError(c, "Failed to get run items", id, err)
		return
	}
	if items == nil {
		items = []*domain.RunItem{}
	}

	c.JSON(http.StatusOK, RunDetail{Run: run, Items: items})
}

// ListRuns handles GET /api/v1/runs
func (h *RunHandler) ListRuns(c *gin.Context) {
	filters := make(map[string]interface{})

	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if course := c.Query("course"); course != "" {
		filters["course_name"] = course
	}

	runs, err := h.queueMgr.ListRuns(filters)
	if err != nil {
		h.logger.Error("Failed to list runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []*domain.Run{}
	}

	c.JSON(http.StatusOK, runs)
}

// GetStats handles GET /api/v1/runs/stats
func (h *RunHandler) GetStats(c *gin.Context) {
	stats, err := h.queueMgr.GetStats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// CancelRun handles POST /api/v1/runs/:id/cancel
func (h *RunHandler) CancelRun(c *gin.Context) {
	id := c.Param("id")

	if err := h.runMgr.CancelRun(id); err != nil {
		h.respondError(c, "Failed to cancel run", id, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "run cancelled"})
}

// RetryRun handles POST /api/v1/runs/:id/retry
func (h *RunHandler) RetryRun(c *gin.Context) {
	id := c.Param("id")

	run, err := h.runMgr.RetryRun(id)
	if err != nil {
		h.respondError(c, "Failed to retry run", id, err)
		return
	}

	c.JSON(http.StatusOK, run)
}

// DeleteRun handles DELETE /api/v1/runs/:id
func (h *RunHandler) DeleteRun(c *gin.Context) {
	id := c.Param("id")

	if err := h.queueMgr.DeleteRun(id); err != nil {
		h.respondError(c, "Failed to delete run", id, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "run deleted"})
}

// respondError maps missing runs to 404 and state conflicts to 409
func (h *RunHandler) respondError(c *gin.Context, msg, id string, err error) {
	if errors.Is(err, domain.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	h.logger.Warn(msg, zap.String("id", id), zap.Error(err))
	status := http.StatusConflict
	if c.Request.Method == http.MethodGet {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
