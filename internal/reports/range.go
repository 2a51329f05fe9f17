// Package reports folds persisted financial records over a date range into
// the summary statistics behind dashboards and monthly reports.
package reports

import (
	"sort"

	"closeout/internal/closing"
	"closeout/internal/money"
)

// LedgerEntry is the read-only view of a sibling financial record (purchase,
// operating expense, payroll run) consumed by range reports.
type LedgerEntry struct {
	Date   closing.Date `json:"date"`
	Label  string       `json:"label"`
	Amount float64      `json:"amount"`
}

// DayBucket carries the per-calendar-day series used for charting. Values
// are re-derived from the filtered record set, never read from a cache.
type DayBucket struct {
	Date       closing.Date `json:"date"`
	GrossSales float64      `json:"grossSales"`
	Outgoings  float64      `json:"outgoings"`
}

// Summary is the fold of every numeric closing field plus outgoings over an
// inclusive date range.
type Summary struct {
	From closing.Date `json:"from"`
	To   closing.Date `json:"to"`

	ClosingCount int `json:"closingCount"`

	GrossSales  float64 `json:"grossSales"` // pre-discount gross
	Discount    float64 `json:"discount"`
	TotalSystem float64 `json:"totalSystem"`
	Tips        float64 `json:"tips"`
	NetIncome   float64 `json:"netIncome"` // totalSystem - tips
	CashActual  float64 `json:"cashActual"`
	CardActual  float64 `json:"cardActual"`
	Variance    float64 `json:"variance"`

	Purchases float64 `json:"purchases"`
	Expenses  float64 `json:"expenses"`
	Payroll   float64 `json:"payroll"`
	Outgoings float64 `json:"outgoings"`
	NetProfit float64 `json:"netProfit"` // netIncome - outgoings

	Days []DayBucket `json:"days"`
}

// Summarize folds closings and sibling records filtered to [from, to] into a
// Summary. The fold is pure, order-independent, and idempotent: summarizing
// a pre-filtered history equals folding it in day by day.
func Summarize(closings []closing.DailyClosing, purchases, expenses, payroll []LedgerEntry, from, to closing.Date) Summary {
	s := Summary{From: from, To: to}
	days := make(map[string]*DayBucket)

	bucket := func(d closing.Date) *DayBucket {
		key := d.String()
		b, ok := days[key]
		if !ok {
			b = &DayBucket{Date: d}
			days[key] = b
		}
		return b
	}

	for _, c := range closings {
		if !inRange(c.Date, from, to) {
			continue
		}
		s.ClosingCount++
		s.GrossSales = money.Sum(s.GrossSales, c.GrossSales)
		s.Discount = money.Sum(s.Discount, c.DiscountAmount)
		s.TotalSystem = money.Sum(s.TotalSystem, c.TotalSystem)
		s.Tips = money.Sum(s.Tips, c.Tips)
		s.CashActual = money.Sum(s.CashActual, c.CashActual)
		s.CardActual = money.Sum(s.CardActual, c.CardActual)
		s.Variance = money.Sum(s.Variance, c.Variance)

		b := bucket(c.Date)
		b.GrossSales = money.Sum(b.GrossSales, c.GrossSales)
	}

	sumOutgoings := func(entries []LedgerEntry) float64 {
		total := 0.0
		for _, e := range entries {
			if !inRange(e.Date, from, to) {
				continue
			}
			total = money.Sum(total, e.Amount)

			b := bucket(e.Date)
			b.Outgoings = money.Sum(b.Outgoings, e.Amount)
		}
		return total
	}

	s.Purchases = sumOutgoings(purchases)
	s.Expenses = sumOutgoings(expenses)
	s.Payroll = sumOutgoings(payroll)

	s.NetIncome = money.Round(s.TotalSystem - s.Tips)
	s.Outgoings = money.Sum(s.Purchases, s.Expenses, s.Payroll)
	s.NetProfit = money.Round(s.NetIncome - s.Outgoings)

	s.Days = make([]DayBucket, 0, len(days))
	for _, b := range days {
		s.Days = append(s.Days, *b)
	}
	sort.Slice(s.Days, func(i, j int) bool {
		return s.Days[i].Date.Before(s.Days[j].Date)
	})

	return s
}

func inRange(d, from, to closing.Date) bool {
	return !d.Before(from) && !d.After(to)
}
