package routes

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/castmap/castmap/internal/queue"
	"github.com/castmap/castmap/internal/server/middleware"
	"github.com/castmap/castmap/pkg/logger"
)

// PrecomputeBookHandler enqueues a background analysis job for a book so a
// later interactions request hits the cache. The actual work happens in the
// worker process.
func PrecomputeBookHandler(c echo.Context) error {
	type precomputeResponse struct {
		Message       string `json:"message"`
		CorrelationID string `json:"correlation_id,omitempty"`
	}

	bookID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || bookID <= 0 {
		return c.JSON(http.StatusBadRequest, precomputeResponse{
			Message: "Invalid book ID",
		})
	}

	app := c.(*middleware.AppContext).App
	if app.Queue == nil {
		return c.JSON(http.StatusServiceUnavailable, precomputeResponse{
			Message: "Background analysis is not available",
		})
	}

	correlationID, err := gonanoid.New()
	if err != nil {
		logger.Error("[Server] Failed to generate correlation ID", "err", err)
		return c.JSON(http.StatusInternalServerError, precomputeResponse{
			Message: "Internal server error",
		})
	}

	job := queue.AnalyzeJob{
		BookID:        bookID,
		CorrelationID: correlationID,
	}
	data, err := json.Marshal(job)
	if err != nil {
		logger.Error("[Server] Failed to encode analyze job", "err", err)
		return c.JSON(http.StatusInternalServerError, precomputeResponse{
			Message: "Internal server error",
		})
	}

	if err := queue.PublishFIFO(app.Queue, queue.AnalyzeQueue, data); err != nil {
		logger.Error("[Server] Failed to publish analyze job", "book_id", bookID, "err", err)
		return c.JSON(http.StatusInternalServerError, precomputeResponse{
			Message: "Internal server error",
		})
	}

	logger.Info("[Server] Queued book analysis", "book_id", bookID, "correlation_id", correlationID)
	return c.JSON(http.StatusAccepted, precomputeResponse{
		Message:       "Analysis queued",
		CorrelationID: correlationID,
	})
}
