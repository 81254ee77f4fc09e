package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/cuongbtq/jobfeed/internal/domain"
	"github.com/cuongbtq/jobfeed/shared/logger"
)

// Loop drains today's backlog of every channel and then follows new messages
type Loop struct {
	transport Transport
	processor *Processor
	refs      []string
	logger    *slog.Logger
	now       func() time.Time
}

// NewLoop creates a Loop over the configured channel references
func NewLoop(transport Transport, processor *Processor, refs []string, logger *slog.Logger) *Loop {
	return &Loop{
		transport: transport,
		processor: processor,
		refs:      refs,
		logger:    logger,
		now:       time.Now,
	}
}

// Run blocks until ctx is canceled or the transport goes away.
// It returns nil on cancellation and domain.ErrTransportClosed on disconnect.
func (l *Loop) Run(ctx context.Context) error {
	if l.processor.SinkCount() == 0 {
		l.logger.Log(ctx, logger.LevelFatal, "No sinks available, nothing to write job records to")
		return domain.ErrNoSinks
	}

	channels := l.resolve(ctx)
	if len(channels) == 0 {
		l.logger.Warn("No channels could be resolved",
			slog.Any("refs", l.refs),
		)
	}

	since := StartOfDay(l.now())
	l.logger.Info("Processing backlog",
		slog.Time("since", since),
		slog.Int("channels", len(channels)),
	)

	for _, ch := range channels {
		if ctx.Err() != nil {
			return nil
		}
		l.drainBacklog(ctx, ch, since)
	}

	if ctx.Err() != nil {
		return nil
	}

	events, err := l.transport.Subscribe(ctx, channels)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to subscribe to channels: %w", err)
	}

	l.logger.Info("Listening for new messages",
		slog.Int("channels", len(channels)),
	)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping listener")
			return nil
		case msg, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				l.logger.Warn("Transport disconnected")
				return domain.ErrTransportClosed
			}
			l.handle(ctx, PhaseLive, msg)
		}
	}
}

func (l *Loop) resolve(ctx context.Context) []domain.Channel {
	channels := make([]domain.Channel, 0, len(l.refs))

	for _, ref := range l.refs {
		ch, err := l.transport.ResolveChannel(ctx, ref)
		if err != nil {
			l.logger.Error("Failed to resolve channel",
				slog.String("channel", ref),
				slog.Any("error", err),
			)
			continue
		}

		l.logger.Info("Monitoring channel",
			slog.String("channel", ch.Ref),
			slog.Int64("channel_id", ch.ID),
			slog.String("title", ch.Title),
		)
		channels = append(channels, ch)
	}

	return channels
}

func (l *Loop) drainBacklog(ctx context.Context, ch domain.Channel, since time.Time) {
	processed := 0

	for msg, err := range l.transport.History(ctx, ch, since) {
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Error("Failed to fetch channel backlog",
				slog.String("channel", ch.Ref),
				slog.Int("processed", processed),
				slog.Any("error", err),
				slog.String("stack", string(debug.Stack())),
			)
			return
		}

		if !msg.Date.IsZero() && msg.Date.Before(since) {
			continue
		}

		l.handle(ctx, PhaseBacklog, msg)
		processed++
	}

	l.logger.Info("Backlog processed",
		slog.String("channel", ch.Ref),
		slog.Int("messages", processed),
	)
}

func (l *Loop) handle(ctx context.Context, phase string, msg domain.Message) {
	if msg.Text == "" {
		l.logger.Debug("Skipping message without text",
			slog.String("channel", msg.ChannelRef),
			slog.String("phase", phase),
		)
		return
	}

	l.processor.Process(ctx, phase, msg.Text)
}
