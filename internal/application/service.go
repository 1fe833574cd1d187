package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/secretwatch/internal/domain/model"
	"github.com/ericfisherdev/secretwatch/internal/domain/port/driven"
	"github.com/ericfisherdev/secretwatch/internal/report"
)

// Session holds the collaborators for one run. Each is authenticated by its
// own token provider; nothing in a Session is reused by a later run.
type Session struct {
	Pager  driven.ApplicationPager
	Mailer driven.Mailer
}

// SessionFactory builds a fresh Session. Secret resolution and provider
// construction happen here, so failures are *model.AuthError.
type SessionFactory func(ctx context.Context) (*Session, error)

// RunConfig is the per-deployment content of every report.
type RunConfig struct {
	Recipients []string
	Subject    string
	Note       string // Markdown appended to the report; may be empty.
}

// ExpiryService runs the fetch, classify, render and send pipeline.
type ExpiryService struct {
	sessions SessionFactory
	cfg      RunConfig
	now      func() time.Time
}

// NewExpiryService creates an ExpiryService.
func NewExpiryService(sessions SessionFactory, cfg RunConfig) *ExpiryService {
	return &ExpiryService{sessions: sessions, cfg: cfg, now: time.Now}
}

// Run executes one pipeline run. Authentication and fetch failures abort the
// run before classification and are returned. A delivery failure is logged
// and the run still completes with RunResult.Delivered false.
func (s *ExpiryService) Run(ctx context.Context) (model.RunResult, error) {
	started := s.now().UTC()
	result := model.RunResult{StartedAt: started, Recipients: len(s.cfg.Recipients)}
	slog.Info("run started", "started_at", started)

	sess, err := s.sessions(ctx)
	if err != nil {
		logRunFailure("session", err)
		return result, fmt.Errorf("start session: %w", err)
	}

	apps, err := NewDirectoryFetcher(sess.Pager).FetchAllApplications(ctx)
	if err != nil {
		logRunFailure("fetch", err)
		return result, err
	}
	result.Applications = len(apps)
	slog.Info("applications fetched", "count", len(apps))

	risk := Classify(apps, started)
	result.Summarize(risk)

	body := report.Render(risk, s.cfg.Note)

	dispatcher := NewNotificationDispatcher(sess.Mailer, s.cfg.Subject)
	if err := dispatcher.Send(ctx, body, s.cfg.Recipients); err != nil {
		slog.Error("report delivery failed", "recipients", len(s.cfg.Recipients), "error", err)
	} else {
		result.Delivered = true
	}

	result.Duration = s.now().UTC().Sub(started)
	slog.Info("run finished",
		"finished_at", started.Add(result.Duration),
		"applications", result.Applications,
		"expired", result.Expired.Credentials,
		"critical", result.Critical.Credentials,
		"warning", result.Warning.Credentials,
		"delivered", result.Delivered,
		"duration", result.Duration.Round(time.Millisecond),
	)

	return result, nil
}

// logRunFailure logs err with its innermost cause and the type of each
// wrapped layer, outermost first.
func logRunFailure(stage string, err error) {
	slog.Error("run failed",
		"stage", stage,
		"error", err,
		"cause", rootCause(err),
		"chain", errorChain(err),
	)
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func errorChain(err error) []string {
	var chain []string
	for ; err != nil; err = errors.Unwrap(err) {
		chain = append(chain, fmt.Sprintf("%T", err))
	}
	return chain
}
