package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cuongbtq/jobfeed/internal/api/dto"
	"github.com/cuongbtq/jobfeed/internal/ingest"
	"github.com/gin-gonic/gin"
)

const serviceName = "jobfeed-api-service"

// Extract handles GET|POST /api/v1/extract
// Extracts job details from the text parameter and appends them to the sinks
func (h *ExtractHandler) Extract(c *gin.Context) {
	var req dto.ExtractRequest
	req.Text = c.Query("text")
	if req.Text == "" {
		// the body is optional, a bind failure just leaves Text empty
		_ = c.ShouldBind(&req)
	}

	if req.Text == "" {
		c.String(http.StatusBadRequest, "Please pass a text parameter.")
		return
	}

	if h.processor.SinkCount() == 0 {
		h.logger.Error("Extract called with no sinks available")
		c.String(http.StatusServiceUnavailable, "No sinks available.")
		return
	}

	res := h.processor.Process(c.Request.Context(), ingest.PhaseAPI, req.Text)
	if !res.Present {
		c.String(http.StatusOK, "No job details found in the message.")
		return
	}

	var errs []error
	for _, o := range res.Outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.Sink, o.Err))
		}
	}
	failed := len(errs)
	if failed > 0 && failed == len(res.Outcomes) {
		err := errors.Join(errs...)
		h.logger.Error("Job record not appended to any sink",
			slog.Int("sinks", len(res.Outcomes)),
			slog.Any("error", err),
		)
		c.String(http.StatusInternalServerError, "Error: %s", err)
		return
	}
	if failed > 0 {
		h.logger.Warn("Job record not appended to every sink",
			slog.Int("failed", failed),
			slog.Int("sinks", len(res.Outcomes)),
		)
	}

	c.String(http.StatusOK, "Job details extracted: %s", res.Record)
}

// Health handles GET /health
func (h *ExtractHandler) Health(c *gin.Context) {
	sinks := h.processor.SinkCount()

	resp := dto.HealthResponse{
		Status:  "healthy",
		Service: serviceName,
		Sinks:   sinks,
	}
	status := http.StatusOK
	if sinks == 0 {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, resp)
}
