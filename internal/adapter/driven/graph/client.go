// Package graph implements the directory and mail ports against the
// Microsoft Graph REST API.
package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/secretwatch/internal/domain/model"
	"github.com/ericfisherdev/secretwatch/internal/domain/port/driven"
)

// DefaultScope requests every delegated permission already consented for the client.
const DefaultScope = "https://graph.microsoft.com/.default"

// applicationsSelect lists exactly the fields read from each application.
const applicationsSelect = "id,displayName,passwordCredentials"

// maxErrorBody bounds how much of an error response is read into messages.
const maxErrorBody = 4 << 10

// Compile-time interface satisfaction check.
var _ driven.ApplicationPager = (*Client)(nil)

// Client reads the application collection. The http.Client it is given must
// already attach bearer tokens (see oauth.NewHTTPClient).
type Client struct {
	http    *http.Client
	baseURL string // "https://graph.microsoft.com/v1.0" in production; an httptest server in tests.
}

// NewClient creates a directory client rooted at baseURL.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{http: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// FetchApplicationsPage fetches one page of applications. An empty pageURL
// requests the first page. Every record is validated before it is returned;
// one malformed record fails the whole page.
func (c *Client) FetchApplicationsPage(ctx context.Context, pageURL string) (model.ApplicationPage, error) {
	if pageURL == "" {
		pageURL = c.baseURL + "/applications?$select=" + applicationsSelect
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return model.ApplicationPage{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.ApplicationPage{}, fmt.Errorf("get applications: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return model.ApplicationPage{}, responseError(resp)
	}

	var body applicationList
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.ApplicationPage{}, fmt.Errorf("decode applications: %w", err)
	}

	return body.toPage()
}

type applicationList struct {
	Value    *[]applicationRecord `json:"value"`
	NextLink string               `json:"@odata.nextLink"`
}

type applicationRecord struct {
	ID                  *string                    `json:"id"`
	DisplayName         *string                    `json:"displayName"`
	PasswordCredentials []passwordCredentialRecord `json:"passwordCredentials"`
}

type passwordCredentialRecord struct {
	DisplayName *string `json:"displayName"`
	EndDateTime *string `json:"endDateTime"`
}

func (l applicationList) toPage() (model.ApplicationPage, error) {
	if l.Value == nil {
		return model.ApplicationPage{}, errors.New("response has no value array")
	}

	apps := make([]model.Application, 0, len(*l.Value))
	for i, rec := range *l.Value {
		app, err := rec.toApplication()
		if err != nil {
			return model.ApplicationPage{}, fmt.Errorf("record %d: %w", i, err)
		}
		apps = append(apps, app)
	}

	return model.ApplicationPage{Applications: apps, NextLink: l.NextLink}, nil
}

func (r applicationRecord) toApplication() (model.Application, error) {
	if r.ID == nil || *r.ID == "" {
		return model.Application{}, errors.New("missing id")
	}

	app := model.Application{ID: *r.ID, DisplayName: deref(r.DisplayName)}
	for j, pc := range r.PasswordCredentials {
		if pc.EndDateTime == nil {
			return model.Application{}, fmt.Errorf("application %s: credential %d: missing endDateTime", app.ID, j)
		}
		end, err := time.Parse(time.RFC3339Nano, *pc.EndDateTime)
		if err != nil {
			return model.Application{}, fmt.Errorf("application %s: credential %d: parse endDateTime: %w", app.ID, j, err)
		}
		app.Credentials = append(app.Credentials, model.Credential{
			DisplayName: deref(pc.DisplayName),
			ExpiresAt:   end.UTC(),
		})
	}
	return app, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// graphError is the error envelope Graph returns on non-2xx responses.
type graphError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func responseError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var ge graphError
	if err := json.Unmarshal(data, &ge); err == nil && ge.Error.Code != "" {
		return fmt.Errorf("graph returned %d: %s: %s", resp.StatusCode, ge.Error.Code, ge.Error.Message)
	}
	return fmt.Errorf("graph returned %d", resp.StatusCode)
}
