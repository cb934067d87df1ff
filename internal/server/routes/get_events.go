package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plotweave/backend/internal/server/middleware"
	"github.com/plotweave/backend/pkg/store"
)

func GetEpisodeEventsHandler(c echo.Context) error {
	type getEpisodeEventsParams struct {
		UUID string `param:"uuid" validate:"required"`
	}

	params := new(getEpisodeEventsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	ctx := c.Request().Context()
	st := c.(*middleware.AppContext).App.Store

	events, err := st.ListEpisodeEvents(ctx, params.UUID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Episode not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, events)
}
