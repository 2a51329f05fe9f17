// Package audit provides the best-effort audit collaborator. Every
// successful create/update/delete of a closing emits one entry; failures to
// record are logged and swallowed, never retried, and never fail the
// mutation that triggered them.
package audit

import (
	"context"

	applog "closeout/internal/log"
)

// Sink persists audit entries. The SQLite repository satisfies this.
type Sink interface {
	InsertAuditEntry(ctx context.Context, actor, action, resource, details string) error
}

// Logger writes audit entries to a sink and mirrors them to the app log.
type Logger struct {
	sink   Sink
	logger *applog.Logger
}

// New creates an audit logger. A nil sink is tolerated; entries then only
// reach the app log.
func New(sink Sink, logger *applog.Logger) *Logger {
	return &Logger{
		sink:   sink,
		logger: logger.WithComponent(applog.ComponentAudit),
	}
}

// LogAction records one audit entry. action is one of create/update/delete,
// resource is a human-readable record label, details a free-text summary.
func (l *Logger) LogAction(ctx context.Context, actor, action, resource, details string) {
	l.logger.InfoContext(ctx, "Audit entry",
		applog.FieldActor, actor,
		applog.FieldOperation, action,
		"resource", resource,
		"details", details)

	if l.sink == nil {
		return
	}
	if err := l.sink.InsertAuditEntry(ctx, actor, action, resource, details); err != nil {
		l.logger.WarnContext(ctx, "Audit entry not persisted",
			applog.FieldError, err,
			applog.FieldOperation, action,
			"resource", resource)
	}
}
