package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/jobfeed/internal/ingest"
	"github.com/prometheus/client_golang/prometheus"
)

// Processor runs one message through extraction and the sinks
type Processor interface {
	Process(ctx context.Context, phase, text string) ingest.Result
	SinkCount() int
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *slog.Logger
	Processor Processor
	Gatherer  prometheus.Gatherer
}

// ExtractHandler handles message extraction requests
type ExtractHandler struct {
	logger    *slog.Logger
	processor Processor
}

// NewExtractHandler creates a new ExtractHandler instance
func NewExtractHandler(deps *Dependencies) *ExtractHandler {
	return &ExtractHandler{
		logger:    deps.Logger,
		processor: deps.Processor,
	}
}
