package worker_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"closeout/internal/amqp"
	"closeout/internal/closing"
	applog "closeout/internal/log"
	"closeout/internal/reports"
	"closeout/internal/worker"
)

type stubStore struct {
	closings []closing.DailyClosing
}

func (s *stubStore) ListClosings(context.Context, closing.Date, closing.Date) ([]closing.DailyClosing, error) {
	return s.closings, nil
}

func (s *stubStore) ListPurchases(context.Context, closing.Date, closing.Date) ([]reports.LedgerEntry, error) {
	return nil, nil
}

func (s *stubStore) ListExpenses(context.Context, closing.Date, closing.Date) ([]reports.LedgerEntry, error) {
	return nil, nil
}

func (s *stubStore) ListPayroll(context.Context, closing.Date, closing.Date) ([]reports.LedgerEntry, error) {
	return nil, nil
}

func TestHandleChangeDropsStaleSummaries(t *testing.T) {
	store := &stubStore{}
	logger := applog.New(applog.Config{Level: slog.LevelError})
	svc := reports.NewService(store, logger)
	w := worker.NewRefreshWorker(svc, time.Minute, logger)

	from := closing.NewDate(2025, 6, 1)
	to := closing.NewDate(2025, 6, 30)

	summary, err := svc.Range(context.Background(), from, to)
	if err != nil {
		t.Fatalf("Range() error = %v", err)
	}
	if summary.ClosingCount != 0 {
		t.Fatalf("ClosingCount = %d, want 0", summary.ClosingCount)
	}

	// A new closing lands and the change feed fires.
	store.closings = []closing.DailyClosing{{
		Date:        closing.NewDate(2025, 6, 14),
		TotalSystem: 930,
	}}
	msg := amqp.NewChangeMessage("create", "rec-1", "2025-06-14")
	if err := w.HandleChange(msg); err != nil {
		t.Fatalf("HandleChange() error = %v", err)
	}

	summary, err = svc.Range(context.Background(), from, to)
	if err != nil {
		t.Fatalf("Range() error = %v", err)
	}
	if summary.ClosingCount != 1 {
		t.Errorf("ClosingCount after change = %d, want 1", summary.ClosingCount)
	}
	if summary.TotalSystem != 930 {
		t.Errorf("TotalSystem after change = %v, want 930", summary.TotalSystem)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := &stubStore{}
	logger := applog.New(applog.Config{Level: slog.LevelError})
	svc := reports.NewService(store, logger)
	w := worker.NewRefreshWorker(svc, 10*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}
