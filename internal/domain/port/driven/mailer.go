package driven

import (
	"context"

	"github.com/ericfisherdev/secretwatch/internal/domain/model"
)

// Mailer sends one message to all of its recipients as a single atomic
// operation.
type Mailer interface {
	SendMail(ctx context.Context, msg model.MailMessage) error
}
