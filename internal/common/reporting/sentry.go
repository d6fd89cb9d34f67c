// Package reporting forwards hidden planning failures to Sentry.
package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/config"
)

type SentryReporter struct {
	hub *sentry.Hub
}

// NewSentry builds a reporter with its own client so the global hub is left alone.
func NewSentry(cfg config.SentryConfig, release string) (*SentryReporter, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          release,
		SampleRate:       cfg.SampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry client: %w", err)
	}
	return NewSentryFromHub(sentry.NewHub(client, sentry.NewScope())), nil
}

func NewSentryFromHub(hub *sentry.Hub) *SentryReporter {
	return &SentryReporter{hub: hub}
}

// Report captures err with the given tags on a per-call copy of the hub.
func (r *SentryReporter) Report(ctx context.Context, err error, tags map[string]string) {
	hub := r.hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
	})
	hub.CaptureException(err)
}

// Flush waits for buffered events to be sent.
func (r *SentryReporter) Flush(timeout time.Duration) bool {
	return r.hub.Flush(timeout)
}
