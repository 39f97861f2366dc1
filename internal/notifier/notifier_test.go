package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"example.com/coldchain/config"
	"example.com/coldchain/internal/models"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock senders for testing
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendEmail(ctx context.Context, subject, body string, recipients []string) error {
	args := m.Called(ctx, subject, body, recipients)
	return args.Error(0)
}

type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) SendMessage(ctx context.Context, body string) error {
	args := m.Called(ctx, body)
	return args.Error(0)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestDispatchSelectedChannelsOnly(t *testing.T) {
	email := new(MockEmailSender)
	telegram := new(MockMessageSender)
	whatsapp := new(MockMessageSender)

	email.On("SendEmail", mock.Anything, "subject", "body", []string{"ops@example.com"}).Return(nil)
	telegram.On("SendMessage", mock.Anything, "body").Return(nil)

	d := NewDispatcher(email, telegram, whatsapp, quietLogger())
	d.Dispatch(context.Background(), Notification{Subject: "subject", Body: "body"},
		[]string{models.ChannelEmail, models.ChannelTelegram},
		[]string{"ops@example.com"})

	email.AssertExpectations(t)
	telegram.AssertExpectations(t)
	whatsapp.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestDispatchSwallowsTransportErrors(t *testing.T) {
	email := new(MockEmailSender)
	telegram := new(MockMessageSender)
	whatsapp := new(MockMessageSender)

	email.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp down"))
	telegram.On("SendMessage", mock.Anything, mock.Anything).Return(nil)

	d := NewDispatcher(email, telegram, whatsapp, quietLogger())

	// A failing channel must not prevent delivery on the others
	require.NotPanics(t, func() {
		d.Dispatch(context.Background(), Notification{Subject: "s", Body: "b"},
			[]string{models.ChannelEmail, models.ChannelTelegram}, nil)
	})
	telegram.AssertExpectations(t)
}

// panickingSender stands in for a transport with a broken implementation
type panickingSender struct{}

func (p *panickingSender) SendMessage(ctx context.Context, body string) error {
	panic("broken transport")
}

func TestDispatchAbsorbsPanics(t *testing.T) {
	email := new(MockEmailSender)
	whatsapp := new(MockMessageSender)
	whatsapp.On("SendMessage", mock.Anything, mock.Anything).Return(nil)

	d := NewDispatcher(email, &panickingSender{}, whatsapp, quietLogger())

	require.NotPanics(t, func() {
		d.Dispatch(context.Background(), Notification{Subject: "s", Body: "b"},
			[]string{models.ChannelTelegram, models.ChannelWhatsApp}, nil)
	})
	whatsapp.AssertExpectations(t)
}

func TestDispatchIgnoresUnknownChannel(t *testing.T) {
	email := new(MockEmailSender)
	telegram := new(MockMessageSender)
	whatsapp := new(MockMessageSender)

	d := NewDispatcher(email, telegram, whatsapp, quietLogger())

	require.NotPanics(t, func() {
		d.Dispatch(context.Background(), Notification{Subject: "s", Body: "b"},
			[]string{"pager", ""}, nil)
	})
	email.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTelegramSenderPostsToChat(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := &telegramSender{
		cfg:     config.TelegramConfig{BotToken: "test-token", ChatID: "42"},
		baseURL: server.URL,
		client:  server.Client(),
	}

	require.NoError(t, sender.SendMessage(context.Background(), "fridge too warm"))
	require.Equal(t, "42", received["chat_id"])
	require.Equal(t, "fridge too warm", received["text"])
}

func TestTelegramSenderErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sender := &telegramSender{
		cfg:     config.TelegramConfig{BotToken: "test-token", ChatID: "42"},
		baseURL: server.URL,
		client:  server.Client(),
	}

	require.Error(t, sender.SendMessage(context.Background(), "body"))
}

func TestTelegramSenderUnconfiguredIsNoop(t *testing.T) {
	sender := NewTelegramSender(config.TelegramConfig{})
	require.NoError(t, sender.SendMessage(context.Background(), "body"))
}
