package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ericfisherdev/secretwatch/internal/domain/model"
	"github.com/ericfisherdev/secretwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Mailer = (*MailClient)(nil)

// MailClient sends mail as a single user through /users/{id}/sendMail.
type MailClient struct {
	http    *http.Client
	baseURL string
	userID  string
}

// NewMailClient creates a mail client that sends as userID. The http.Client
// must carry the mail-sending identity's bearer tokens.
func NewMailClient(httpClient *http.Client, baseURL, userID string) *MailClient {
	return &MailClient{http: httpClient, baseURL: strings.TrimRight(baseURL, "/"), userID: userID}
}

type sendMailRequest struct {
	Message         mailMessage `json:"message"`
	SaveToSentItems bool        `json:"saveToSentItems"`
}

type mailMessage struct {
	Subject      string      `json:"subject"`
	Body         itemBody    `json:"body"`
	ToRecipients []recipient `json:"toRecipients"`
}

type itemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type recipient struct {
	EmailAddress emailAddress `json:"emailAddress"`
}

type emailAddress struct {
	Address string `json:"address"`
}

// SendMail submits msg as one HTML message with every recipient in To.
func (c *MailClient) SendMail(ctx context.Context, msg model.MailMessage) error {
	if len(msg.To) == 0 {
		return errors.New("send mail: no recipients")
	}

	payload := sendMailRequest{
		Message: mailMessage{
			Subject: msg.Subject,
			Body:    itemBody{ContentType: "HTML", Content: msg.HTMLBody},
		},
		SaveToSentItems: msg.SaveToSentItems,
	}
	for _, addr := range msg.To {
		payload.Message.ToRecipients = append(payload.Message.ToRecipients, recipient{EmailAddress: emailAddress{Address: addr}})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/users/%s/sendMail", c.baseURL, url.PathEscape(c.userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("send mail: %w", responseError(resp))
	}
	return nil
}
