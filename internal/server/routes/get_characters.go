package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plotweave/backend/internal/server/middleware"
	"github.com/plotweave/backend/pkg/store"
)

// GetCharacterParticipationsHandler returns every appearance of a
// character in chronological story order: season, episode, scene.
func GetCharacterParticipationsHandler(c echo.Context) error {
	type getParticipationsParams struct {
		UUID string `param:"uuid" validate:"required"`
	}

	params := new(getParticipationsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	ctx := c.Request().Context()
	st := c.(*middleware.AppContext).App.Store

	participations, err := st.ListCharacterParticipations(ctx, params.UUID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Character not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, participations)
}
