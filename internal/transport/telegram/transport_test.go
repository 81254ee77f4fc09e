package telegram

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cuongbtq/jobfeed/internal/domain"
	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransport(t *testing.T) *Transport {
	t.Helper()
	log := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	return New(Config{
		AppID:       1,
		AppHash:     "hash",
		Phone:       "+10000000000",
		SessionFile: filepath.Join(t.TempDir(), "session.json"),
		CodeInput:   strings.NewReader("12345\n"),
	}, log)
}

func channelUpdate(channelID int64, id int, text string) *tg.UpdateNewChannelMessage {
	return &tg.UpdateNewChannelMessage{
		Message: &tg.Message{
			ID:      id,
			PeerID:  &tg.PeerChannel{ChannelID: channelID},
			Message: text,
			Date:    int(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC).Unix()),
		},
	}
}

func receive(t *testing.T, ch <-chan domain.Message) domain.Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
		return domain.Message{}
	}
}

func TestTransport_Subscribe(t *testing.T) {
	tr := newTestTransport(t)
	ctx := context.Background()

	// not subscribed yet
	require.NoError(t, tr.onNewChannelMessage(ctx, tg.Entities{}, channelUpdate(10, 1, "early")))

	out, err := tr.Subscribe(ctx, []domain.Channel{{ID: 10, Ref: "jobs"}})
	require.NoError(t, err)

	require.NoError(t, tr.onNewChannelMessage(ctx, tg.Entities{}, channelUpdate(11, 2, "other chat")))
	require.NoError(t, tr.onNewChannelMessage(ctx, tg.Entities{}, &tg.UpdateNewChannelMessage{
		Message: &tg.MessageService{ID: 3, PeerID: &tg.PeerChannel{ChannelID: 10}},
	}))
	require.NoError(t, tr.onNewChannelMessage(ctx, tg.Entities{}, channelUpdate(10, 4, "first")))
	require.NoError(t, tr.onNewChannelMessage(ctx, tg.Entities{}, channelUpdate(10, 5, "second")))

	first := receive(t, out)
	assert.Equal(t, "first", first.Text)
	assert.Equal(t, "jobs", first.ChannelRef)
	assert.Equal(t, int64(10), first.ChannelID)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), first.Date)

	assert.Equal(t, "second", receive(t, out).Text)

	tr.disconnect()

	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after disconnect")
	}

	_, err = tr.Subscribe(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrTransportClosed)
}

func TestTransport_Subscribe_ContextCanceled(t *testing.T) {
	tr := newTestTransport(t)
	ctx, cancel := context.WithCancel(context.Background())

	out, err := tr.Subscribe(ctx, []domain.Channel{{ID: 10, Ref: "jobs"}})
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestTransport_ResolveChannel_NotConnected(t *testing.T) {
	tr := newTestTransport(t)

	_, err := tr.ResolveChannel(context.Background(), "https://t.me/+invite")
	assert.ErrorIs(t, err, domain.ErrInvalidChannelRef)

	_, err = tr.ResolveChannel(context.Background(), "@remote_jobs")
	assert.ErrorIs(t, err, domain.ErrTransportClosed)
}

func TestTransport_History_Unresolved(t *testing.T) {
	tr := newTestTransport(t)

	var gotErr error
	for _, err := range tr.History(context.Background(), domain.Channel{ID: 99, Ref: "ghost"}, time.Now()) {
		gotErr = err
	}

	require.Error(t, gotErr)
	assert.Contains(t, gotErr.Error(), "ghost")
}

func TestTransport_ReadCode(t *testing.T) {
	tr := newTestTransport(t)

	code, err := tr.readCode(context.Background(), &tg.AuthSentCode{})
	require.NoError(t, err)
	assert.Equal(t, "12345", code)
}

func TestTransport_ReadCode_Reprompt(t *testing.T) {
	log := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	tr := New(Config{
		AppID:       1,
		AppHash:     "hash",
		Phone:       "+10000000000",
		SessionFile: filepath.Join(t.TempDir(), "telegram.session"),
		CodeInput:   strings.NewReader("11111\n22222\n"),
	}, log)

	first, err := tr.readCode(context.Background(), &tg.AuthSentCode{})
	require.NoError(t, err)
	assert.Equal(t, "11111", first)

	second, err := tr.readCode(context.Background(), &tg.AuthSentCode{})
	require.NoError(t, err)
	assert.Equal(t, "22222", second)
}
