package ingest

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/jobfeed/internal/domain"
	"github.com/cuongbtq/jobfeed/internal/sink"
)

// Router forwards present records to every sink configured at startup
type Router struct {
	writer *sink.Writer
	sinks  []sink.Sink
	logger *slog.Logger
}

// NewRouter creates a Router over a fixed set of sinks
func NewRouter(writer *sink.Writer, sinks []sink.Sink, logger *slog.Logger) *Router {
	return &Router{
		writer: writer,
		sinks:  append([]sink.Sink(nil), sinks...),
		logger: logger,
	}
}

// SinkCount returns the number of sinks records are written to
func (r *Router) SinkCount() int {
	return len(r.sinks)
}

// Route writes rec to all sinks when it is present and drops it otherwise
func (r *Router) Route(ctx context.Context, rec domain.JobRecord) (bool, []sink.Outcome) {
	if !domain.IsPresent(rec) {
		r.logger.Warn("No job details found in the message")
		return false, nil
	}

	return true, r.writer.Write(ctx, r.sinks, rec)
}
