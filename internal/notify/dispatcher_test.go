package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suspectuso/mc-currency/internal/domain/models"
)

type buyerStub struct {
	chatID, text string
	err          error
}

func (b *buyerStub) SendMessage(_ context.Context, chatID, text string) error {
	b.chatID, b.text = chatID, text
	return b.err
}

type adminStub struct {
	calls  int
	chatID int64
	text   string
}

func (a *adminStub) SendNotification(_ context.Context, chatID int64, text string) error {
	a.calls++
	a.chatID, a.text = chatID, text
	return nil
}

type staticSettings models.Settings

func (s staticSettings) Get() models.Settings { return models.Settings(s) }

func newDispatcher(s models.Settings) (*Dispatcher, *buyerStub, *adminStub) {
	b, a := &buyerStub{}, &adminStub{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(b, a, staticSettings(s), log), b, a
}

func TestNotifyBuyer(t *testing.T) {
	d, b, _ := newDispatcher(models.DefaultSettings())

	require.NoError(t, d.NotifyBuyer(context.Background(), "c1", "hello"))
	assert.Equal(t, "c1", b.chatID)
	assert.Equal(t, "hello", b.text)

	assert.Error(t, d.NotifyBuyer(context.Background(), "", "hello"))

	b.err = errors.New("boom")
	assert.ErrorIs(t, d.NotifyBuyer(context.Background(), "c1", "x"), b.err)
}

func TestNotifyAdmin(t *testing.T) {
	s := models.DefaultSettings()
	s.NotificationChatID = 777

	d, _, a := newDispatcher(s)
	require.NoError(t, d.NotifyAdmin(context.Background(), "alert"))
	assert.Equal(t, int64(777), a.chatID)
	assert.Equal(t, "alert", a.text)
}

func TestNotifyAdmin_Skipped(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		chatID  int64
	}{
		{"disabled", false, 777},
		{"no chat", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := models.DefaultSettings()
			s.AdminNotifications = tt.enabled
			s.NotificationChatID = tt.chatID

			d, _, a := newDispatcher(s)
			require.NoError(t, d.NotifyAdmin(context.Background(), "alert"))
			assert.Zero(t, a.calls)
		})
	}
}
