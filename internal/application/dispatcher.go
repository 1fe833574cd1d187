package application

import (
	"context"
	"errors"
	"strings"

	"github.com/ericfisherdev/secretwatch/internal/domain/model"
	"github.com/ericfisherdev/secretwatch/internal/domain/port/driven"
)

// ParseRecipients splits a comma-separated address list, trimming whitespace
// and dropping empty entries.
func ParseRecipients(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// NotificationDispatcher sends the rendered report as one message.
type NotificationDispatcher struct {
	mailer  driven.Mailer
	subject string
}

// NewNotificationDispatcher creates a dispatcher that sends through mailer.
func NewNotificationDispatcher(mailer driven.Mailer, subject string) *NotificationDispatcher {
	return &NotificationDispatcher{mailer: mailer, subject: subject}
}

// Send delivers body to every recipient in a single message. Failures are
// returned as *model.DeliveryError; the caller decides whether to escalate.
func (d *NotificationDispatcher) Send(ctx context.Context, body string, recipients []string) error {
	if len(recipients) == 0 {
		return &model.DeliveryError{Err: errors.New("no recipients")}
	}

	msg := model.MailMessage{
		Subject:         d.subject,
		HTMLBody:        body,
		To:              recipients,
		SaveToSentItems: false,
	}
	if err := d.mailer.SendMail(ctx, msg); err != nil {
		return &model.DeliveryError{Recipients: len(recipients), Err: err}
	}
	return nil
}
