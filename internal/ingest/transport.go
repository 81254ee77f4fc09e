// Package ingest drives chat messages through extraction and into the sinks.
package ingest

import (
	"context"
	"iter"
	"time"

	"github.com/cuongbtq/jobfeed/internal/domain"
)

// Message phases, used as the metrics label
const (
	PhaseBacklog = "backlog"
	PhaseLive    = "live"
	PhaseAPI     = "api"
)

// Transport is the chat network the loop reads from
type Transport interface {
	// ResolveChannel turns a configured reference into a channel handle
	ResolveChannel(ctx context.Context, ref string) (domain.Channel, error)

	// History yields the messages of ch dated at or after since, oldest first.
	// A non-nil error ends the sequence.
	History(ctx context.Context, ch domain.Channel, since time.Time) iter.Seq2[domain.Message, error]

	// Subscribe delivers new messages from channels in arrival order.
	// The returned channel is closed when the transport disconnects or ctx ends.
	Subscribe(ctx context.Context, channels []domain.Channel) (<-chan domain.Message, error)
}

// StartOfDay returns midnight UTC of the day t falls on
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
