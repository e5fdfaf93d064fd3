package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/castmap/castmap/internal/server/middleware"
	"github.com/castmap/castmap/pkg/gutenberg"
	"github.com/castmap/castmap/pkg/interactions"
	"github.com/castmap/castmap/pkg/logger"
)

// GetBookInteractionsHandler resolves a Gutenberg catalog number, fetches
// the book text and returns its interaction graph. Results are cached per
// catalog number, so repeat requests are served without model calls.
func GetBookInteractionsHandler(c echo.Context) error {
	type bookInteractionsResponse struct {
		Message      string                        `json:"message,omitempty"`
		BookID       int64                         `json:"book_id,omitempty"`
		Title        string                        `json:"title,omitempty"`
		Interactions interactions.InteractionGraph `json:"interactions,omitempty"`
	}

	bookID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || bookID <= 0 {
		return c.JSON(http.StatusBadRequest, bookInteractionsResponse{
			Message: "Invalid book ID",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	text, err := app.Books.FetchText(ctx, bookID)
	if err != nil {
		if errors.Is(err, gutenberg.ErrNotFound) {
			return c.JSON(http.StatusNotFound, bookInteractionsResponse{
				Message: "Book not found",
			})
		}
		logger.Error("[Server] Failed to fetch book text", "book_id", bookID, "err", err)
		return c.JSON(http.StatusBadGateway, bookInteractionsResponse{
			Message: "Failed to fetch book text",
		})
	}

	graph, err := app.Pipeline.AnalyzeText(ctx, interactions.Input{
		Identifier: strconv.FormatInt(bookID, 10),
		Text:       text,
	})
	if err != nil {
		if errors.Is(err, interactions.ErrEmptyInput) {
			return c.JSON(http.StatusBadRequest, bookInteractionsResponse{
				Message: "Book contains no text",
			})
		}
		if errors.Is(err, interactions.ErrPipelineExhausted) {
			return c.JSON(http.StatusBadGateway, bookInteractionsResponse{
				Message: "Analysis failed, please try again",
			})
		}
		logger.Error("[Server] Failed to analyze book", "book_id", bookID, "err", err)
		return c.JSON(http.StatusInternalServerError, bookInteractionsResponse{
			Message: "Internal server error",
		})
	}

	title, err := app.Books.FetchTitle(ctx, bookID)
	if err != nil {
		logger.Warn("[Server] Failed to fetch book title", "book_id", bookID, "err", err)
	}

	return c.JSON(http.StatusOK, bookInteractionsResponse{
		BookID:       bookID,
		Title:        title,
		Interactions: graph,
	})
}
