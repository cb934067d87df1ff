package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/plotweave/backend/internal/queue"
	"github.com/plotweave/backend/internal/server/middleware"
)

// PostImportHandler enqueues an import job for the worker. The bundle must
// already be uploaded to S3; the response only acknowledges the enqueue.
func PostImportHandler(c echo.Context) error {
	type postImportParams struct {
		Bucket string `json:"bucket"`
		Prefix string `json:"prefix" validate:"required"`
		DryRun bool   `json:"dry_run"`
	}

	type postImportResponse struct {
		Message       string `json:"message"`
		CorrelationID string `json:"correlation_id,omitempty"`
	}

	params := new(postImportParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, postImportResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, postImportResponse{
			Message: "Invalid request params",
		})
	}

	correlationID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, postImportResponse{
			Message: "Internal server error",
		})
	}

	job := queue.ImportJob{
		CorrelationID: correlationID,
		Bucket:        params.Bucket,
		Prefix:        params.Prefix,
		DryRun:        params.DryRun,
	}
	data, err := json.Marshal(job)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, postImportResponse{
			Message: "Internal server error",
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.ImportQueue, data); err != nil {
		return c.JSON(http.StatusInternalServerError, postImportResponse{
			Message: "Failed to enqueue import",
		})
	}

	return c.JSON(http.StatusAccepted, postImportResponse{
		Message:       "Import enqueued",
		CorrelationID: correlationID,
	})
}
