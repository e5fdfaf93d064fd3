package server

import (
	"github.com/castmap/castmap/internal/server/middleware"
	"github.com/castmap/castmap/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Analysis routes
	apiRoutes.POST("/analyze", routes.AnalyzeTextHandler)

	// Book routes
	apiRoutes.GET("/books/:id/interactions", routes.GetBookInteractionsHandler)
	apiRoutes.POST("/books/:id/precompute", routes.PrecomputeBookHandler)
}
