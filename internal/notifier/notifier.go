package notifier

import (
	"context"

	"github.com/sirupsen/logrus"

	"example.com/coldchain/internal/models"
)

// Notification is the subject/body pair delivered to every channel
type Notification struct {
	Subject string
	Body    string
}

// EmailSender delivers a notification to a list of addresses
type EmailSender interface {
	SendEmail(ctx context.Context, subject, body string, recipients []string) error
}

// MessageSender delivers a notification to a single preconfigured target
type MessageSender interface {
	SendMessage(ctx context.Context, body string) error
}

// Dispatcher fans a notification out to the selected channels. Delivery is
// best effort: transport failures are logged and swallowed, never returned,
// so alerting correctness cannot depend on third-party availability.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification, channels []string, emailRecipients []string)
}

type dispatcher struct {
	email    EmailSender
	telegram MessageSender
	whatsapp MessageSender
	log      *logrus.Logger
}

// NewDispatcher creates a new notification dispatcher
func NewDispatcher(email EmailSender, telegram, whatsapp MessageSender, log *logrus.Logger) Dispatcher {
	return &dispatcher{
		email:    email,
		telegram: telegram,
		whatsapp: whatsapp,
		log:      log,
	}
}

// Dispatch attempts delivery on each selected channel independently.
// Unrecognized channel identifiers are ignored.
func (d *dispatcher) Dispatch(ctx context.Context, n Notification, channels []string, emailRecipients []string) {
	for _, channel := range channels {
		switch channel {
		case models.ChannelEmail:
			d.deliver(channel, func() error {
				return d.email.SendEmail(ctx, n.Subject, n.Body, emailRecipients)
			})
		case models.ChannelTelegram:
			d.deliver(channel, func() error {
				return d.telegram.SendMessage(ctx, n.Body)
			})
		case models.ChannelWhatsApp:
			d.deliver(channel, func() error {
				return d.whatsapp.SendMessage(ctx, n.Body)
			})
		default:
			d.log.WithField("channel", channel).Debug("Ignoring unrecognized notification channel")
		}
	}
}

// deliver runs one transport call and absorbs any failure, including panics,
// so one broken channel cannot affect the others or the caller.
func (d *dispatcher) deliver(channel string, send func() error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.WithField("channel", channel).Errorf("Notification transport panicked: %v", r)
		}
	}()
	if err := send(); err != nil {
		d.log.WithError(err).WithField("channel", channel).Error("Failed to send notification")
	}
}
