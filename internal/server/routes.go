package server

import (
	"github.com/labstack/echo/v4"

	"github.com/plotweave/backend/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Series hierarchy routes
	apiRoutes.GET("/series", routes.GetSeriesListHandler)
	apiRoutes.GET("/series/:uuid", routes.GetSeriesHandler)

	// Episode and character routes
	apiRoutes.GET("/episodes/:uuid/events", routes.GetEpisodeEventsHandler)
	apiRoutes.GET("/characters/:uuid/participations", routes.GetCharacterParticipationsHandler)

	// Connection routes
	apiRoutes.GET("/events/:uuid/connections", routes.GetEventConnectionsHandler)
	apiRoutes.GET("/connections", routes.GetConnectionsByTypeHandler)
	apiRoutes.GET("/connections/:uuid", routes.GetConnectionHandler)
	apiRoutes.GET("/connection-types", routes.GetConnectionTypesHandler)

	// Import routes
	apiRoutes.POST("/imports", routes.PostImportHandler)
}
