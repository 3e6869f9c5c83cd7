package email

import (
	"context"
	"fmt"

	"github.com/LhacenMed/admin-dashboard/internal/kafka"
	"github.com/LhacenMed/admin-dashboard/pkg/logger"
)

// Message is a rendered notification.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender logs notifications instead of delivering them.
type Sender struct {
	log logger.Logger
}

func NewSender(log logger.Logger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.Event) error {
	msg, ok := Render(event)
	if !ok {
		return nil
	}
	s.log.Info("send email", "to", msg.To, "subject", msg.Subject, "event_id", event.ID)
	return nil
}

// Render builds the message for an account event. Events without a recipient are skipped.
func Render(event kafka.Event) (Message, bool) {
	if event.Email == "" {
		return Message{}, false
	}
	name := event.Name
	if name == "" {
		name = "there"
	}

	switch event.Type {
	case kafka.EventAccountRegistered:
		return Message{
			To:      event.Email,
			Subject: "Your company registration was received",
			Body:    fmt.Sprintf("Hello %s, your account is pending review. We will email you once it has been reviewed.", name),
		}, true
	case kafka.EventAccountStatusChanged:
		return Message{
			To:      event.Email,
			Subject: fmt.Sprintf("Your company account was %s", event.Status),
			Body:    fmt.Sprintf("Hello %s, a reviewer has marked your account as %s.", name, event.Status),
		}, true
	}
	return Message{}, false
}
