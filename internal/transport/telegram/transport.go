// Package telegram reads channel messages through a Telegram user account.
package telegram

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cuongbtq/jobfeed/internal/domain"
	"github.com/cuongbtq/jobfeed/shared/logger"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/message/peer"
	"github.com/gotd/td/telegram/updates"
	updhook "github.com/gotd/td/telegram/updates/hook"
	"github.com/gotd/td/tg"
)

const eventBuffer = 64

// Config holds the Telegram user account settings
type Config struct {
	AppID       int
	AppHash     string
	Phone       string
	Password    string
	SessionFile string
	PageSize    int

	// CodeInput is read for the login code when no session exists. Defaults to stdin.
	CodeInput io.Reader
}

// Transport resolves channels, pages their history and streams new messages
type Transport struct {
	config Config
	logger *slog.Logger

	client *telegram.Client
	gaps   *updates.Manager
	flow   auth.Flow
	codes  *bufio.Reader

	api      historyClient
	resolver peer.Resolver

	mu     sync.RWMutex
	peers  map[int64]tg.InputPeerClass
	active map[int64]string

	events   chan domain.Message
	done     chan struct{}
	doneOnce sync.Once
}

// New creates a Transport. Nothing is dialed until Run.
func New(config Config, log *slog.Logger) *Transport {
	if config.PageSize <= 0 {
		config.PageSize = DefaultHistoryPageSize
	}
	if config.CodeInput == nil {
		config.CodeInput = os.Stdin
	}

	t := &Transport{
		config: config,
		logger: log,
		codes:  bufio.NewReader(config.CodeInput),
		peers:  make(map[int64]tg.InputPeerClass),
		active: make(map[int64]string),
		events: make(chan domain.Message, eventBuffer),
		done:   make(chan struct{}),
	}

	dispatcher := tg.NewUpdateDispatcher()
	dispatcher.OnNewChannelMessage(t.onNewChannelMessage)

	t.gaps = updates.New(updates.Config{
		Handler: dispatcher,
		Logger:  logger.NewZap(log).Named("updates"),
	})

	t.client = telegram.NewClient(config.AppID, config.AppHash, telegram.Options{
		Logger:         logger.NewZap(log).Named("telegram"),
		SessionStorage: &session.FileStorage{Path: config.SessionFile},
		UpdateHandler:  t.gaps,
		Middlewares: []telegram.Middleware{
			updhook.UpdateHook(t.gaps.Handle),
		},
	})

	t.flow = auth.NewFlow(
		auth.Constant(config.Phone, config.Password, auth.CodeAuthenticatorFunc(t.readCode)),
		auth.SendCodeOptions{},
	)

	return t
}

// Run connects, logs in when the session is missing and calls fn while connected.
// The context passed to fn ends when the connection or the update stream is lost.
func (t *Transport) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	defer t.disconnect()

	return t.client.Run(ctx, func(ctx context.Context) error {
		if err := t.client.Auth().IfNecessary(ctx, t.flow); err != nil {
			return fmt.Errorf("telegram auth failed: %w", err)
		}

		self, err := t.client.Self(ctx)
		if err != nil {
			return fmt.Errorf("failed to get current user: %w", err)
		}

		t.logger.Info("Connected to Telegram",
			slog.Int64("user_id", self.ID),
			slog.String("username", self.Username),
		)

		api := t.client.API()
		t.api = api
		t.resolver = peer.DefaultResolver(api)

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		gapsDone := make(chan struct{})
		go func() {
			defer close(gapsDone)
			defer t.disconnect()

			err := t.gaps.Run(ctx, api, self.ID, updates.AuthOptions{
				OnStart: func(ctx context.Context) {
					t.logger.Debug("Update manager started")
				},
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				t.logger.Error("Update manager stopped",
					slog.Any("error", err),
				)
			}
		}()

		err = fn(ctx)
		cancel()
		<-gapsDone

		return err
	})
}

// ResolveChannel turns a public channel reference into a handle
func (t *Transport) ResolveChannel(ctx context.Context, ref string) (domain.Channel, error) {
	username, err := ParseChannelRef(ref)
	if err != nil {
		return domain.Channel{}, err
	}
	if t.resolver == nil {
		return domain.Channel{}, domain.ErrTransportClosed
	}

	inputPeer, err := t.resolver.ResolveDomain(ctx, username)
	if err != nil {
		return domain.Channel{}, fmt.Errorf("failed to resolve %s: %w", username, err)
	}

	ch, ok := inputPeer.(*tg.InputPeerChannel)
	if !ok {
		return domain.Channel{}, fmt.Errorf("%w: %s is not a channel", domain.ErrInvalidChannelRef, username)
	}

	t.mu.Lock()
	t.peers[ch.ChannelID] = ch
	t.mu.Unlock()

	return domain.Channel{
		ID:    ch.ChannelID,
		Ref:   username,
		Title: username,
	}, nil
}

// History pages the channel forward from since, oldest message first
func (t *Transport) History(ctx context.Context, ch domain.Channel, since time.Time) iter.Seq2[domain.Message, error] {
	t.mu.RLock()
	inputPeer, ok := t.peers[ch.ID]
	t.mu.RUnlock()

	if !ok || t.api == nil {
		return func(yield func(domain.Message, error) bool) {
			yield(domain.Message{}, fmt.Errorf("channel %s was not resolved", ch.Ref))
		}
	}

	pager := &historyPager{
		api:      t.api,
		peer:     inputPeer,
		channel:  ch,
		pageSize: t.config.PageSize,
	}
	return pager.messages(ctx, since)
}

// Subscribe starts delivering new messages from channels. Messages that arrive
// before Subscribe, or from other chats, are dropped.
func (t *Transport) Subscribe(ctx context.Context, channels []domain.Channel) (<-chan domain.Message, error) {
	select {
	case <-t.done:
		return nil, domain.ErrTransportClosed
	default:
	}

	t.mu.Lock()
	for _, ch := range channels {
		t.active[ch.ID] = ch.Ref
	}
	t.mu.Unlock()

	out := make(chan domain.Message)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.done:
				return
			case msg := <-t.events:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				case <-t.done:
					return
				}
			}
		}
	}()

	return out, nil
}

func (t *Transport) onNewChannelMessage(ctx context.Context, _ tg.Entities, update *tg.UpdateNewChannelMessage) error {
	msg, ok := update.Message.(*tg.Message)
	if !ok {
		return nil
	}
	channelPeer, ok := msg.PeerID.(*tg.PeerChannel)
	if !ok {
		return nil
	}

	t.mu.RLock()
	ref, ok := t.active[channelPeer.ChannelID]
	t.mu.RUnlock()
	if !ok {
		return nil
	}

	event := domain.Message{
		ChannelID:  channelPeer.ChannelID,
		ChannelRef: ref,
		Text:       msg.Message,
		Date:       time.Unix(int64(msg.Date), 0).UTC(),
	}

	select {
	case t.events <- event:
	case <-ctx.Done():
	case <-t.done:
	}
	return nil
}

func (t *Transport) disconnect() {
	t.doneOnce.Do(func() {
		close(t.done)
	})
}

func (t *Transport) readCode(ctx context.Context, _ *tg.AuthSentCode) (string, error) {
	fmt.Fprint(os.Stderr, "Enter the Telegram login code: ")

	line, err := t.codes.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", fmt.Errorf("failed to read login code: %w", err)
	}

	return strings.TrimSpace(line), nil
}
