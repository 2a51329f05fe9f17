package reports

import (
	"context"
	"fmt"
	"time"

	"closeout/internal/cache"
	"closeout/internal/closing"
	applog "closeout/internal/log"
)

// Store is the read side of the record store the aggregator consumes.
type Store interface {
	ListClosings(ctx context.Context, from, to closing.Date) ([]closing.DailyClosing, error)
	ListPurchases(ctx context.Context, from, to closing.Date) ([]LedgerEntry, error)
	ListExpenses(ctx context.Context, from, to closing.Date) ([]LedgerEntry, error)
	ListPayroll(ctx context.Context, from, to closing.Date) ([]LedgerEntry, error)
}

// Service serves range summaries with a TTL LRU snapshot cache. The cache is
// cleared whenever a change notification arrives; consumers always get a
// fresh fold after a mutation, at worst one TTL late if notifications are
// lost.
type Service struct {
	store  Store
	cache  *cache.LRUCache[Summary]
	logger *applog.Logger
}

// NewService creates a report service over the given store.
func NewService(store Store, logger *applog.Logger) *Service {
	return &Service{
		store:  store,
		cache:  cache.NewLRUCache[Summary](100, 5*time.Minute),
		logger: logger.WithComponent(applog.ComponentReports),
	}
}

// Range returns the summary for an inclusive date range, cached.
func (s *Service) Range(ctx context.Context, from, to closing.Date) (Summary, error) {
	key := from.String() + ".." + to.String()
	if snap, ok := s.cache.Get(key); ok {
		return snap, nil
	}

	closings, err := s.store.ListClosings(ctx, from, to)
	if err != nil {
		return Summary{}, fmt.Errorf("list closings: %w", err)
	}
	purchases, err := s.store.ListPurchases(ctx, from, to)
	if err != nil {
		return Summary{}, fmt.Errorf("list purchases: %w", err)
	}
	expenses, err := s.store.ListExpenses(ctx, from, to)
	if err != nil {
		return Summary{}, fmt.Errorf("list expenses: %w", err)
	}
	payroll, err := s.store.ListPayroll(ctx, from, to)
	if err != nil {
		return Summary{}, fmt.Errorf("list payroll: %w", err)
	}

	summary := Summarize(closings, purchases, expenses, payroll, from, to)
	s.cache.Set(key, summary)

	s.logger.DebugContext(ctx, "Range summary computed",
		"from", from.String(),
		"to", to.String(),
		"closings", summary.ClosingCount)

	return summary, nil
}

// MonthToDate returns the summary for the calendar month containing day.
func (s *Service) MonthToDate(ctx context.Context, day closing.Date) (Summary, error) {
	from := closing.NewDate(day.Year(), int(day.Month()), 1)
	to := closing.Date{Time: from.AddDate(0, 1, -1)}
	return s.Range(ctx, from, to)
}

// Invalidate drops every cached snapshot. Called from the change feed.
func (s *Service) Invalidate() {
	s.cache.Clear()
}

// CleanExpired lets a cache manager tick expired snapshots out.
func (s *Service) CleanExpired() int {
	return s.cache.CleanExpired()
}
