package telegram

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/cuongbtq/jobfeed/internal/domain"
	"github.com/gotd/td/tg"
)

// DefaultHistoryPageSize is the number of messages fetched per getHistory call
const DefaultHistoryPageSize = 100

type historyClient interface {
	MessagesGetHistory(ctx context.Context, request *tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error)
}

// historyPager walks a chat forward in time starting at a cutoff date
type historyPager struct {
	api      historyClient
	peer     tg.InputPeerClass
	channel  domain.Channel
	pageSize int
}

// messages yields every message dated at or after since, oldest first
func (p *historyPager) messages(ctx context.Context, since time.Time) iter.Seq2[domain.Message, error] {
	return func(yield func(domain.Message, error) bool) {
		last, err := p.anchor(ctx, since)
		if err != nil {
			yield(domain.Message{}, err)
			return
		}

		for {
			page, err := p.page(ctx, last)
			if err != nil {
				yield(domain.Message{}, err)
				return
			}
			if len(page) == 0 {
				return
			}

			next := last
			for _, m := range page {
				if m.GetID() <= last {
					continue
				}
				next = max(next, m.GetID())

				msg, ok := m.(*tg.Message)
				if !ok {
					continue
				}
				date := time.Unix(int64(msg.Date), 0).UTC()
				if date.Before(since) {
					continue
				}

				if !yield(domain.Message{
					ChannelID:  p.channel.ID,
					ChannelRef: p.channel.Ref,
					Text:       msg.Message,
					Date:       date,
				}, nil) {
					return
				}
			}

			if next == last {
				return
			}
			last = next
		}
	}
}

// anchor returns the id of the newest message sent before since, or 0
func (p *historyPager) anchor(ctx context.Context, since time.Time) (int, error) {
	res, err := p.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:       p.peer,
		OffsetDate: int(since.Unix()),
		Limit:      1,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to locate history start: %w", err)
	}

	msgs, err := historyMessages(res)
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	return msgs[0].GetID(), nil
}

// page fetches up to pageSize messages with ids above last, in ascending order
func (p *historyPager) page(ctx context.Context, last int) ([]tg.MessageClass, error) {
	res, err := p.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:      p.peer,
		OffsetID:  last + 1,
		AddOffset: -p.pageSize,
		Limit:     p.pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history after message %d: %w", last, err)
	}

	msgs, err := historyMessages(res)
	if err != nil {
		return nil, err
	}

	// Telegram returns newest first
	msgs = slices.Clone(msgs)
	slices.SortFunc(msgs, func(a, b tg.MessageClass) int {
		return a.GetID() - b.GetID()
	})
	return msgs, nil
}

func historyMessages(res tg.MessagesMessagesClass) ([]tg.MessageClass, error) {
	switch r := res.(type) {
	case *tg.MessagesMessages:
		return r.Messages, nil
	case *tg.MessagesMessagesSlice:
		return r.Messages, nil
	case *tg.MessagesChannelMessages:
		return r.Messages, nil
	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrUnexpectedResponse, res)
	}
}
