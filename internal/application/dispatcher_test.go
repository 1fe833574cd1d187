package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/secretwatch/internal/application"
	"github.com/ericfisherdev/secretwatch/internal/domain/model"
)

func TestParseRecipients(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"a@example.com", []string{"a@example.com"}},
		{"a@example.com, b@example.com", []string{"a@example.com", "b@example.com"}},
		{" a@example.com ,,b@example.com, ", []string{"a@example.com", "b@example.com"}},
		{"", nil},
		{" , ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, application.ParseRecipients(tt.raw))
		})
	}
}

func TestNotificationDispatcher_SendsOneMessage(t *testing.T) {
	mailer := &mockMailer{}
	d := application.NewNotificationDispatcher(mailer, "Client secret expiry notification report")

	err := d.Send(context.Background(), "<p>body</p>", []string{"a@example.com", "b@example.com"})

	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "Client secret expiry notification report", msg.Subject)
	assert.Equal(t, "<p>body</p>", msg.HTMLBody)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, msg.To)
	assert.False(t, msg.SaveToSentItems)
}

func TestNotificationDispatcher_DeliveryError(t *testing.T) {
	mailer := &mockMailer{err: errors.New("mailbox unavailable")}
	d := application.NewNotificationDispatcher(mailer, "s")

	err := d.Send(context.Background(), "body", []string{"a@example.com", "b@example.com"})

	var deliveryErr *model.DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Equal(t, 2, deliveryErr.Recipients)
	assert.Contains(t, err.Error(), "mailbox unavailable")
}

func TestNotificationDispatcher_NoRecipients(t *testing.T) {
	mailer := &mockMailer{}
	d := application.NewNotificationDispatcher(mailer, "s")

	err := d.Send(context.Background(), "body", nil)

	var deliveryErr *model.DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Zero(t, mailer.count())
}
