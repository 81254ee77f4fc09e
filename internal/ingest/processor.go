package ingest

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/jobfeed/internal/domain"
	"github.com/cuongbtq/jobfeed/internal/metrics"
	"github.com/cuongbtq/jobfeed/internal/sink"
)

// Extractor turns message text into a job record
type Extractor interface {
	Extract(ctx context.Context, text string) domain.JobRecord
}

// Result describes what happened to one message
type Result struct {
	Record   domain.JobRecord
	Present  bool
	Outcomes []sink.Outcome
}

// Processor runs one message through extraction and routing
type Processor struct {
	extractor Extractor
	router    *Router
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewProcessor creates a Processor. m may be nil.
func NewProcessor(ex Extractor, router *Router, logger *slog.Logger, m *metrics.Metrics) *Processor {
	return &Processor{
		extractor: ex,
		router:    router,
		logger:    logger,
		metrics:   m,
	}
}

// SinkCount returns the number of sinks behind the router
func (p *Processor) SinkCount() int {
	return p.router.SinkCount()
}

// Process extracts a record from text and routes it
func (p *Processor) Process(ctx context.Context, phase, text string) Result {
	p.metrics.MessageReceived(phase)

	p.logger.Debug("Processing message",
		slog.String("phase", phase),
		slog.Int("length", len(text)),
	)

	rec := p.extractor.Extract(ctx, text)
	present, outcomes := p.router.Route(ctx, rec)

	return Result{
		Record:   rec,
		Present:  present,
		Outcomes: outcomes,
	}
}
