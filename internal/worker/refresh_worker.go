// Package worker keeps report snapshots fresh. It listens on the change feed
// and drops cached summaries as soon as a closing is created, edited, or
// deleted, then rewarms the month-to-date view the dashboard polls.
package worker

import (
	"context"
	"time"

	"closeout/internal/amqp"
	"closeout/internal/closing"
	applog "closeout/internal/log"
	"closeout/internal/reports"
)

// RefreshWorker bridges the AMQP change feed to the report cache.
type RefreshWorker struct {
	reports  *reports.Service
	logger   *applog.Logger
	interval time.Duration
}

func NewRefreshWorker(reportSvc *reports.Service, interval time.Duration, logger *applog.Logger) *RefreshWorker {
	return &RefreshWorker{
		reports:  reportSvc,
		logger:   logger.WithComponent(applog.ComponentWorker),
		interval: interval,
	}
}

// HandleChange is the consume callback. The payload only says that something
// changed; summaries are always recomputed from the store, so the worker
// never patches cached numbers.
func (w *RefreshWorker) HandleChange(msg *amqp.ChangeMessage) error {
	w.reports.Invalidate()
	w.logger.Info("report cache invalidated",
		applog.FieldOperation, msg.Action,
		applog.FieldRecordID, msg.RecordID,
		applog.FieldDate, msg.Date)

	w.rewarm(context.Background())
	return nil
}

// Run sweeps expired snapshots on a fixed interval. This is the fallback for
// lost notifications; consumers are then at worst one interval stale.
func (w *RefreshWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("refresh worker started", "interval", w.interval.String())
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("refresh worker stopped")
			return ctx.Err()
		case <-ticker.C:
			if n := w.reports.CleanExpired(); n > 0 {
				w.logger.Debug("expired snapshots removed", "count", n)
			}
			w.rewarm(ctx)
		}
	}
}

// Consume blocks consuming the change feed with reconnect until ctx ends.
func (w *RefreshWorker) Consume(ctx context.Context, url, exchange, queue string) error {
	return amqp.ConsumeWithReconnect(ctx, url, exchange, queue, w.HandleChange)
}

func (w *RefreshWorker) rewarm(ctx context.Context) {
	today := closing.Date{Time: time.Now().UTC().Truncate(24 * time.Hour)}
	if _, err := w.reports.MonthToDate(ctx, today); err != nil {
		w.logger.Warn("month-to-date rewarm failed", applog.FieldError, err.Error())
	}
}
