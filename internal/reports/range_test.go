package reports_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"closeout/internal/closing"
	"closeout/internal/reports"
)

func day(d int) closing.Date {
	return closing.NewDate(2025, 3, d)
}

func closingFor(d int, gross, discount, system, tips, cash, card, variance float64) closing.DailyClosing {
	return closing.DailyClosing{
		ID:             "c-" + day(d).String(),
		Date:           day(d),
		GrossSales:     gross,
		DiscountAmount: discount,
		TotalSystem:    system,
		Tips:           tips,
		CashActual:     cash,
		CardActual:     card,
		Variance:       variance,
	}
}

func TestSummarize_SumsEveryNumericField(t *testing.T) {
	closings := []closing.DailyClosing{
		closingFor(1, 980, 50, 930, 20, 600, 400, 70),
		closingFor(2, 1150, 150, 1000, 40, 500, 460, -40),
	}
	purchases := []reports.LedgerEntry{{Date: day(1), Label: "produce", Amount: 300}}
	expenses := []reports.LedgerEntry{{Date: day(2), Label: "utilities", Amount: 120.50}}
	payroll := []reports.LedgerEntry{{Date: day(2), Label: "weekly run", Amount: 800}}

	s := reports.Summarize(closings, purchases, expenses, payroll, day(1), day(31))

	assert.Equal(t, 2, s.ClosingCount)
	assert.Equal(t, 2130.0, s.GrossSales)
	assert.Equal(t, 200.0, s.Discount)
	assert.Equal(t, 1930.0, s.TotalSystem)
	assert.Equal(t, 60.0, s.Tips)
	assert.Equal(t, 1870.0, s.NetIncome)
	assert.Equal(t, 1100.0, s.CashActual)
	assert.Equal(t, 860.0, s.CardActual)
	assert.Equal(t, 30.0, s.Variance)

	assert.Equal(t, 300.0, s.Purchases)
	assert.Equal(t, 120.5, s.Expenses)
	assert.Equal(t, 800.0, s.Payroll)
	assert.Equal(t, 1220.5, s.Outgoings)
	assert.Equal(t, 649.5, s.NetProfit)
}

func TestSummarize_InclusiveDateFilter(t *testing.T) {
	closings := []closing.DailyClosing{
		closingFor(1, 100, 0, 100, 0, 100, 0, 0),
		closingFor(5, 200, 0, 200, 0, 200, 0, 0),
		closingFor(9, 400, 0, 400, 0, 400, 0, 0),
	}

	s := reports.Summarize(closings, nil, nil, nil, day(1), day(5))

	// Both endpoints are in range; day 9 is not.
	assert.Equal(t, 2, s.ClosingCount)
	assert.Equal(t, 300.0, s.GrossSales)
}

func TestSummarize_DayBucketsAscending(t *testing.T) {
	closings := []closing.DailyClosing{
		closingFor(7, 700, 0, 700, 0, 0, 0, 0),
		closingFor(3, 300, 0, 300, 0, 0, 0, 0),
	}
	expenses := []reports.LedgerEntry{
		{Date: day(3), Label: "gas", Amount: 45},
		{Date: day(5), Label: "repairs", Amount: 60},
	}

	s := reports.Summarize(closings, nil, expenses, nil, day(1), day(31))

	require.Len(t, s.Days, 3)
	assert.Equal(t, "2025-03-03", s.Days[0].Date.String())
	assert.Equal(t, 300.0, s.Days[0].GrossSales)
	assert.Equal(t, 45.0, s.Days[0].Outgoings)
	assert.Equal(t, "2025-03-05", s.Days[1].Date.String())
	assert.Equal(t, 0.0, s.Days[1].GrossSales)
	assert.Equal(t, 60.0, s.Days[1].Outgoings)
	assert.Equal(t, "2025-03-07", s.Days[2].Date.String())
	assert.Equal(t, 700.0, s.Days[2].GrossSales)
}

// The fold must commute: batch over three days equals summarizing day one
// and folding days two and three in incrementally.
func TestSummarize_OrderIndependentAndIncremental(t *testing.T) {
	c1 := closingFor(1, 100.10, 10, 90.10, 1, 50, 40.10, 0.10)
	c2 := closingFor(2, 200.20, 20, 180.20, 2, 100, 80.20, -0.20)
	c3 := closingFor(3, 300.30, 30, 270.30, 3, 150, 120.30, 0.30)

	batch := reports.Summarize([]closing.DailyClosing{c1, c2, c3}, nil, nil, nil, day(1), day(3))
	reversed := reports.Summarize([]closing.DailyClosing{c3, c1, c2}, nil, nil, nil, day(1), day(3))
	assert.Equal(t, batch, reversed)

	incremental := reports.Summary{}
	total := 0.0
	variance := 0.0
	for _, c := range []closing.DailyClosing{c1, c2, c3} {
		day1 := reports.Summarize([]closing.DailyClosing{c}, nil, nil, nil, c.Date, c.Date)
		total += day1.GrossSales
		variance += day1.Variance
		incremental.ClosingCount += day1.ClosingCount
	}
	assert.Equal(t, batch.ClosingCount, incremental.ClosingCount)
	assert.InDelta(t, batch.GrossSales, total, 0.001)
	assert.InDelta(t, batch.Variance, variance, 0.001)
}

func TestSummarize_EmptyRange(t *testing.T) {
	s := reports.Summarize(nil, nil, nil, nil, day(1), day(31))
	assert.Equal(t, 0, s.ClosingCount)
	assert.Empty(t, s.Days)
	assert.Equal(t, 0.0, s.NetProfit)
}
