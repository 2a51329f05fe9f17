// Package services orchestrates the closing record lifecycle: validation,
// the authorization gate on historical edits, persistence, the audit trail,
// and change notification.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"closeout/internal/auth"
	"closeout/internal/closing"
	applog "closeout/internal/log"
)

var (
	// ErrNothingToSave rejects a closing whose counted and system sides are
	// both zero. Checked before any persistence is attempted.
	ErrNothingToSave = errors.New("nothing to save: both actual and system totals are zero")

	// ErrDuplicateDay flags a create for a date that already has a closing.
	// One closing per day is expected, not enforced; callers may force.
	ErrDuplicateDay = errors.New("a closing already exists for this date")
)

// ClosingStore is the persistence contract for closing records.
type ClosingStore interface {
	SaveClosing(ctx context.Context, rec closing.DailyClosing) error
	UpdateClosing(ctx context.Context, rec closing.DailyClosing) error
	DeleteClosing(ctx context.Context, id string) error
	GetClosing(ctx context.Context, id string) (closing.DailyClosing, error)
	GetClosingByDate(ctx context.Context, date closing.Date) (closing.DailyClosing, error)
	ListClosings(ctx context.Context, from, to closing.Date) ([]closing.DailyClosing, error)
}

// AuditLogger is the best-effort audit collaborator.
type AuditLogger interface {
	LogAction(ctx context.Context, actor, action, resource, details string)
}

// ChangePublisher pushes coarse change notifications after mutations.
type ChangePublisher interface {
	PublishChange(ctx context.Context, action, recordID, date string) error
}

// ClosingService owns the Draft -> Saved -> (Saved|Deleted) lifecycle of
// closing records. Edits are full-record overwrites recomputed from raw
// inputs; there is no partial patch path, so a racing concurrent edit loses
// silently and the change feed brings every view back in sync.
type ClosingService struct {
	engine    *closing.Engine
	store     ClosingStore
	audit     AuditLogger
	gate      auth.Authorizer
	publisher ChangePublisher
	logger    *applog.Logger
	now       func() time.Time
}

// NewClosingService wires the service. publisher may be nil when change
// notifications are disabled.
func NewClosingService(engine *closing.Engine, store ClosingStore, auditLog AuditLogger, gate auth.Authorizer, publisher ChangePublisher, logger *applog.Logger) *ClosingService {
	return &ClosingService{
		engine:    engine,
		store:     store,
		audit:     auditLog,
		gate:      gate,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentClosing),
		now:       time.Now,
	}
}

// Preview runs the reconciliation arithmetic without persisting anything.
func (s *ClosingService) Preview(in closing.Input) closing.Reconciliation {
	return s.engine.Reconcile(in)
}

// Config returns the injected terminal configuration for form layers.
func (s *ClosingService) Config() closing.TerminalConfig {
	return s.engine.Config()
}

// Create reconciles the raw inputs and persists a new closing for date.
// When force is false and the date already has a closing, the create is
// rejected with ErrDuplicateDay so the caller can prompt.
func (s *ClosingService) Create(ctx context.Context, actor string, date closing.Date, in closing.Input, force bool) (closing.DailyClosing, error) {
	rec := s.engine.Reconcile(in)
	if rec.Empty() {
		return closing.DailyClosing{}, ErrNothingToSave
	}

	if !force {
		if _, err := s.store.GetClosingByDate(ctx, date); err == nil {
			return closing.DailyClosing{}, ErrDuplicateDay
		}
	}

	record := rec.Record(newRecordID(), date, s.now().UTC(), in)
	if err := s.store.SaveClosing(ctx, record); err != nil {
		return closing.DailyClosing{}, fmt.Errorf("save closing: %w", err)
	}

	s.audit.LogAction(ctx, actor, applog.OpCreate, closingLabel(record), closingSummary(record))
	s.publishChange(ctx, applog.OpCreate, record.ID, record.Date.String())

	s.logger.InfoContext(ctx, "Closing created",
		applog.FieldRecordID, record.ID,
		applog.FieldDate, record.Date.String(),
		applog.FieldActor, actor,
		applog.FieldVariance, record.Variance)

	return record, nil
}

// Update recomputes and fully overwrites an existing closing. The shared
// secret must pass the gate first; a denied secret leaves the record
// untouched.
func (s *ClosingService) Update(ctx context.Context, actor, secret, id string, date closing.Date, in closing.Input) (closing.DailyClosing, error) {
	if err := s.gate.Authorize(secret); err != nil {
		return closing.DailyClosing{}, err
	}

	existing, err := s.store.GetClosing(ctx, id)
	if err != nil {
		return closing.DailyClosing{}, fmt.Errorf("load closing for update: %w", err)
	}

	rec := s.engine.Reconcile(in)
	if rec.Empty() {
		return closing.DailyClosing{}, ErrNothingToSave
	}

	// Full replace: identity survives, everything else is recomputed.
	record := rec.Record(existing.ID, date, existing.CreatedAt, in)
	if err := s.store.UpdateClosing(ctx, record); err != nil {
		return closing.DailyClosing{}, fmt.Errorf("update closing: %w", err)
	}

	s.audit.LogAction(ctx, actor, applog.OpUpdate, closingLabel(record), closingSummary(record))
	s.publishChange(ctx, applog.OpUpdate, record.ID, record.Date.String())

	s.logger.InfoContext(ctx, "Closing updated",
		applog.FieldRecordID, record.ID,
		applog.FieldDate, record.Date.String(),
		applog.FieldActor, actor)

	return record, nil
}

// Delete hard-removes a closing behind the same gate as Update. The removal
// is terminal; the record survives only in the audit trail.
func (s *ClosingService) Delete(ctx context.Context, actor, secret, id string) error {
	if err := s.gate.Authorize(secret); err != nil {
		return err
	}

	existing, err := s.store.GetClosing(ctx, id)
	if err != nil {
		return fmt.Errorf("load closing for delete: %w", err)
	}

	if err := s.store.DeleteClosing(ctx, id); err != nil {
		return fmt.Errorf("delete closing: %w", err)
	}

	s.audit.LogAction(ctx, actor, applog.OpDelete, closingLabel(existing), closingSummary(existing))
	s.publishChange(ctx, applog.OpDelete, existing.ID, existing.Date.String())

	s.logger.InfoContext(ctx, "Closing deleted",
		applog.FieldRecordID, id,
		applog.FieldDate, existing.Date.String(),
		applog.FieldActor, actor)

	return nil
}

// Get returns one closing by ID.
func (s *ClosingService) Get(ctx context.Context, id string) (closing.DailyClosing, error) {
	return s.store.GetClosing(ctx, id)
}

// GetByDate returns the closing saved for a calendar day.
func (s *ClosingService) GetByDate(ctx context.Context, date closing.Date) (closing.DailyClosing, error) {
	return s.store.GetClosingByDate(ctx, date)
}

// List returns closings with date in [from, to], ascending.
func (s *ClosingService) List(ctx context.Context, from, to closing.Date) ([]closing.DailyClosing, error) {
	return s.store.ListClosings(ctx, from, to)
}

func (s *ClosingService) publishChange(ctx context.Context, action, recordID, date string) {
	if s.publisher == nil {
		return
	}
	// The mutation already succeeded; a lost notification only delays the
	// next re-fetch, so publish failures are logged and swallowed.
	if err := s.publisher.PublishChange(ctx, action, recordID, date); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change notification",
			applog.FieldError, err,
			applog.FieldOperation, action,
			applog.FieldRecordID, recordID)
	}
}

func newRecordID() string {
	// UUIDv7 keeps IDs opaque but time-ordered.
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

func closingLabel(rec closing.DailyClosing) string {
	return "daily closing " + rec.Date.String()
}

func closingSummary(rec closing.DailyClosing) string {
	return fmt.Sprintf("total system %.2f, total counted %.2f, variance %+.2f, tips %.2f",
		rec.TotalSystem, rec.TotalActual, rec.Variance, rec.Tips)
}
