package obslog

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// Severity mirrors the two levels the engine reports: degraded analyses
// are warnings, fatal planning errors are errors.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Reporter sends error events to an external collector. The zero value
// (NewReporter with an empty DSN) is inert: Capture is a no-op, so the
// engine runs fully offline unless a DSN is configured.
type Reporter struct {
	enabled bool
}

// NewReporter configures Sentry when dsn is non-empty; with an empty dsn
// it returns an inert reporter.
func NewReporter(dsn string) (*Reporter, error) {
	if dsn == "" {
		return &Reporter{enabled: false}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
		return nil, err
	}
	return &Reporter{enabled: true}, nil
}

// Capture reports an error at the given severity with stage context. It
// is a no-op on an inert reporter.
func (r *Reporter) Capture(stage Stage, severity Severity, err error) {
	if r == nil || !r.enabled || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("stage", string(stage))
		switch severity {
		case SeverityWarning:
			scope.SetLevel(sentry.LevelWarning)
		default:
			scope.SetLevel(sentry.LevelError)
		}
		sentry.CaptureException(err)
	})
}

// Flush blocks until pending events are sent or the timeout elapses; a
// no-op on an inert reporter. Callers should defer this at process exit.
func (r *Reporter) Flush(timeoutMillis int) {
	if r == nil || !r.enabled {
		return
	}
	sentry.Flush(time.Duration(timeoutMillis) * time.Millisecond)
}
