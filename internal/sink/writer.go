package sink

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/cuongbtq/jobfeed/internal/domain"
	"github.com/cuongbtq/jobfeed/internal/metrics"
)

// Writer fans a record out to every sink it is given
type Writer struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewWriter creates a Writer. m may be nil.
func NewWriter(logger *slog.Logger, m *metrics.Metrics) *Writer {
	return &Writer{
		logger:  logger,
		metrics: m,
	}
}

// Write appends rec to each sink in order. A failing sink never stops the others;
// its error is logged and reported in the returned outcomes.
func (w *Writer) Write(ctx context.Context, sinks []Sink, rec domain.JobRecord) []Outcome {
	row := rec.Row()
	outcomes := make([]Outcome, 0, len(sinks))

	w.logger.Info("Appending job record",
		slog.String("record", rec.String()),
		slog.Int("sinks", len(sinks)),
	)

	for _, s := range sinks {
		err := appendRow(ctx, s, row)
		w.metrics.SinkAppend(s.Name(), err)
		outcomes = append(outcomes, Outcome{Sink: s.Name(), Err: err})

		if err != nil {
			w.logger.Error("Failed to append job record",
				slog.String("sink", s.Name()),
				slog.Any("error", err),
				slog.String("stack", string(debug.Stack())),
			)
			continue
		}

		w.logger.Info("Appended job record",
			slog.String("sink", s.Name()),
		)
	}

	return outcomes
}

// appendRow shields the caller from a sink that panics
func appendRow(ctx context.Context, s Sink, row []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()

	return s.Append(ctx, row)
}
