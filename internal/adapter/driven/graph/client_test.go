package graph_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/secretwatch/internal/adapter/driven/graph"
)

func TestFetchApplicationsPage_FirstPage(t *testing.T) {
	var nextLink string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1.0/applications", r.URL.Path)
		assert.Equal(t, "id,displayName,passwordCredentials", r.URL.Query().Get("$select"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"@odata.nextLink": nextLink,
			"value": []any{
				map[string]any{
					"id":          "app-1",
					"displayName": "Payroll",
					"passwordCredentials": []any{
						map[string]any{"displayName": "prod", "endDateTime": "2026-04-01T10:00:00Z"},
						map[string]any{"displayName": nil, "endDateTime": "2026-05-01T12:30:00.1234567+02:00"},
					},
				},
				map[string]any{
					"id":                  "app-2",
					"displayName":         "No Secrets",
					"passwordCredentials": []any{},
				},
			},
		})
	}))
	defer server.Close()
	nextLink = server.URL + "/v1.0/applications?$skiptoken=page2"

	client := graph.NewClient(server.Client(), server.URL+"/v1.0/")
	page, err := client.FetchApplicationsPage(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, nextLink, page.NextLink)
	require.Len(t, page.Applications, 2)

	app := page.Applications[0]
	assert.Equal(t, "app-1", app.ID)
	assert.Equal(t, "Payroll", app.DisplayName)
	require.Len(t, app.Credentials, 2)
	assert.Equal(t, "prod", app.Credentials[0].DisplayName)
	assert.Equal(t, time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC), app.Credentials[0].ExpiresAt)
	assert.Equal(t, "", app.Credentials[1].DisplayName)
	assert.Equal(t, time.UTC, app.Credentials[1].ExpiresAt.Location())
	assert.Equal(t, 10, app.Credentials[1].ExpiresAt.Hour())

	assert.Empty(t, page.Applications[1].Credentials)
}

func TestFetchApplicationsPage_FollowsGivenLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "page2", r.URL.Query().Get("$skiptoken"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":[]}`))
	}))
	defer server.Close()

	client := graph.NewClient(server.Client(), server.URL)
	page, err := client.FetchApplicationsPage(context.Background(), server.URL+"/applications?$skiptoken=page2")
	require.NoError(t, err)

	assert.Empty(t, page.Applications)
	assert.Empty(t, page.NextLink)
}

func TestFetchApplicationsPage_RejectsMalformedRecords(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "missing value", body: `{"@odata.context":"x"}`, wantMsg: "no value array"},
		{name: "missing id", body: `{"value":[{"displayName":"A","passwordCredentials":[]}]}`, wantMsg: "missing id"},
		{name: "missing endDateTime", body: `{"value":[{"id":"a","passwordCredentials":[{"displayName":"s"}]}]}`, wantMsg: "missing endDateTime"},
		{name: "bad endDateTime", body: `{"value":[{"id":"a","passwordCredentials":[{"displayName":"s","endDateTime":"next tuesday"}]}]}`, wantMsg: "parse endDateTime"},
		{name: "wrong shape", body: `{"value":[{"id":42}]}`, wantMsg: "decode applications"},
		{name: "not json", body: `<html></html>`, wantMsg: "decode applications"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := graph.NewClient(server.Client(), server.URL)
			page, err := client.FetchApplicationsPage(context.Background(), "")

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Empty(t, page.Applications)
		})
	}
}

func TestFetchApplicationsPage_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":"Authorization_RequestDenied","message":"Insufficient privileges"}}`))
	}))
	defer server.Close()

	client := graph.NewClient(server.Client(), server.URL)
	_, err := client.FetchApplicationsPage(context.Background(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "Authorization_RequestDenied")
}
