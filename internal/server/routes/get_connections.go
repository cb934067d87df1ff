package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plotweave/backend/internal/server/middleware"
	"github.com/plotweave/backend/pkg/narrative"
	"github.com/plotweave/backend/pkg/store"
)

// connectionResponse joins the stored connection with its static rendering
// style so clients never hardcode the taxonomy.
type connectionResponse struct {
	store.ConnectionView
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func withStyle(v store.ConnectionView) connectionResponse {
	style := narrative.StyleFor(narrative.ConnectionType(v.Type))
	return connectionResponse{
		ConnectionView: v,
		Color:          style.Color,
		Icon:           style.Icon,
	}
}

func withStyles(views []store.ConnectionView) []connectionResponse {
	out := make([]connectionResponse, 0, len(views))
	for _, v := range views {
		out = append(out, withStyle(v))
	}
	return out
}

func GetEventConnectionsHandler(c echo.Context) error {
	type getEventConnectionsParams struct {
		UUID string `param:"uuid" validate:"required"`
	}

	type getEventConnectionsResponse struct {
		Outgoing []connectionResponse `json:"outgoing"`
		Incoming []connectionResponse `json:"incoming"`
	}

	params := new(getEventConnectionsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	ctx := c.Request().Context()
	st := c.(*middleware.AppContext).App.Store

	connections, err := st.GetEventConnections(ctx, params.UUID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Event not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, getEventConnectionsResponse{
		Outgoing: withStyles(connections.Outgoing),
		Incoming: withStyles(connections.Incoming),
	})
}

func GetConnectionHandler(c echo.Context) error {
	type getConnectionParams struct {
		UUID string `param:"uuid" validate:"required"`
	}

	params := new(getConnectionParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	ctx := c.Request().Context()
	st := c.(*middleware.AppContext).App.Store

	connection, err := st.GetConnection(ctx, params.UUID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Connection not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, withStyle(*connection))
}

func GetConnectionsByTypeHandler(c echo.Context) error {
	type getConnectionsParams struct {
		Type string `query:"type" validate:"required"`
	}

	params := new(getConnectionsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	connectionType, err := narrative.ParseConnectionType(params.Type)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown connection type"})
	}

	ctx := c.Request().Context()
	st := c.(*middleware.AppContext).App.Store

	connections, err := st.ListConnectionsByType(ctx, connectionType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, withStyles(connections))
}

// GetConnectionTypesHandler serves the static connection taxonomy.
func GetConnectionTypesHandler(c echo.Context) error {
	type connectionType struct {
		Type  string `json:"connection_type"`
		Color string `json:"color"`
		Icon  string `json:"icon"`
	}

	types := narrative.ConnectionTypes()
	resp := make([]connectionType, 0, len(types))
	for _, t := range types {
		style := narrative.StyleFor(t)
		resp = append(resp, connectionType{
			Type:  string(t),
			Color: style.Color,
			Icon:  style.Icon,
		})
	}

	return c.JSON(http.StatusOK, resp)
}
