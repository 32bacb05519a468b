package mailer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Message is a fully rendered email.
type Message struct {
	Type    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// Transport hands a rendered message to whatever actually delivers mail.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// DeliveryError reports that the transport failed to accept a message.
type DeliveryError struct {
	Type string
	To   string
	Err  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s email to %s: %v", e.Type, e.To, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// JSONPublisher is implemented by helpers.RabbitPublisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueTransport enqueues messages for cmd/email_worker.
type QueueTransport struct {
	Pub JSONPublisher
}

func (t QueueTransport) Send(ctx context.Context, msg Message) error {
	return t.Pub.PublishJSON(ctx, jobFromMessage(msg))
}

// LogTransport logs messages instead of sending them (MAIL_SEND_ENABLED=false).
type LogTransport struct {
	Logger logrus.FieldLogger
}

func (t LogTransport) Send(_ context.Context, msg Message) error {
	if t.Logger == nil {
		return nil
	}
	t.Logger.WithFields(logrus.Fields{
		"type":    msg.Type,
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("mail sending disabled; message not sent")
	t.Logger.WithField("to", msg.To).Debug(msg.Text)
	return nil
}
