package middleware

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/castmap/castmap/pkg/gutenberg"
	"github.com/castmap/castmap/pkg/interactions"
)

// App bundles the process-wide dependencies handlers need. DBConn is nil
// when the in-memory cache backend is selected and Queue is nil when no
// message broker is configured.
type App struct {
	DBConn       *pgxpool.Pool
	Queue        *amqp091.Channel
	Pipeline     *interactions.Pipeline
	Books        *gutenberg.Client
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
