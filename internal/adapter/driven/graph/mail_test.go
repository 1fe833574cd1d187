package graph_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/secretwatch/internal/adapter/driven/graph"
	"github.com/ericfisherdev/secretwatch/internal/domain/model"
)

func TestSendMail_PostsSingleMessage(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users/mailer-object-id/sendMail", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		assert.Equal(t, false, body["saveToSentItems"])
		msg := body["message"].(map[string]any)
		assert.Equal(t, "Client secret expiry notification report", msg["subject"])
		assert.Equal(t, map[string]any{"contentType": "HTML", "content": "<p>report</p>"}, msg["body"])
		assert.Equal(t, []any{
			map[string]any{"emailAddress": map[string]any{"address": "a@example.com"}},
			map[string]any{"emailAddress": map[string]any{"address": "b@example.com"}},
		}, msg["toRecipients"])

		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := graph.NewMailClient(server.Client(), server.URL, "mailer-object-id")
	err := client.SendMail(context.Background(), model.MailMessage{
		Subject:  "Client secret expiry notification report",
		HTMLBody: "<p>report</p>",
		To:       []string{"a@example.com", "b@example.com"},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestSendMail_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"ErrorInvalidRecipients","message":"bad address"}}`))
	}))
	defer server.Close()

	client := graph.NewMailClient(server.Client(), server.URL, "mailer")
	err := client.SendMail(context.Background(), model.MailMessage{To: []string{"nope"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ErrorInvalidRecipients")
}

func TestSendMail_NoRecipients(t *testing.T) {
	client := graph.NewMailClient(http.DefaultClient, "http://unused", "mailer")

	err := client.SendMail(context.Background(), model.MailMessage{Subject: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recipients")
}
