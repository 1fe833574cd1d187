package application_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/ericfisherdev/secretwatch/internal/domain/model"
)

// --- Mock implementations ---

// mockPager serves pages keyed by the link that requests them; "" is the first page.
type mockPager struct {
	pages map[string]model.ApplicationPage
	errs  map[string]error
	links []string
}

func (m *mockPager) FetchApplicationsPage(_ context.Context, pageURL string) (model.ApplicationPage, error) {
	m.links = append(m.links, pageURL)
	if err, ok := m.errs[pageURL]; ok {
		return model.ApplicationPage{}, err
	}
	page, ok := m.pages[pageURL]
	if !ok {
		return model.ApplicationPage{}, fmt.Errorf("unexpected page %q", pageURL)
	}
	return page, nil
}

type mockMailer struct {
	mu   sync.Mutex
	sent []model.MailMessage
	err  error
}

func (m *mockMailer) SendMail(_ context.Context, msg model.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *mockMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
