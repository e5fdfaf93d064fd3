package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/castmap/castmap/internal/server/middleware"
	"github.com/castmap/castmap/pkg/interactions"
	"github.com/castmap/castmap/pkg/logger"
)

// AnalyzeTextHandler runs the extraction pipeline over raw text from the
// request body and returns the interaction graph.
func AnalyzeTextHandler(c echo.Context) error {
	type analyzeTextBody struct {
		Text string `json:"text" validate:"required"`
	}

	type analyzeTextResponse struct {
		Message      string                        `json:"message,omitempty"`
		Interactions interactions.InteractionGraph `json:"interactions"`
	}

	data := new(analyzeTextBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, analyzeTextResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, analyzeTextResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	pipeline := c.(*middleware.AppContext).App.Pipeline

	graph, err := pipeline.AnalyzeText(ctx, interactions.Input{Text: data.Text})
	if err != nil {
		if errors.Is(err, interactions.ErrEmptyInput) {
			return c.JSON(http.StatusBadRequest, analyzeTextResponse{
				Message: "Text must not be empty",
			})
		}
		if errors.Is(err, interactions.ErrPipelineExhausted) {
			return c.JSON(http.StatusBadGateway, analyzeTextResponse{
				Message: "Analysis failed, please try again",
			})
		}
		logger.Error("[Server] Failed to analyze text", "err", err)
		return c.JSON(http.StatusInternalServerError, analyzeTextResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, analyzeTextResponse{
		Interactions: graph,
	})
}
