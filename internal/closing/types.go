// Package closing holds the daily POS closing domain: the raw count inputs,
// the reconciliation arithmetic, and the persisted closing record.
package closing

import (
	"errors"
	"fmt"
	"time"
)

// Card network keys, in the fixed presentation order used on closing forms
// and reconciliation tables.
const (
	NetworkMada   = "mada"
	NetworkVisa   = "visa"
	NetworkMaster = "master"
	NetworkAmex   = "amex"
	NetworkGCCI   = "gcci"
)

// denominations is the fixed SAR note/coin set, descending.
var denominations = []int{500, 200, 100, 50, 20, 10, 5, 1}

// Denominations returns the fixed denomination set in descending order.
// Callers must not mutate the returned slice.
func Denominations() []int {
	return denominations
}

type (
	// Date is a calendar day. It marshals as YYYY-MM-DD, matching the
	// persistence contract.
	Date struct {
		time.Time
	}

	// DenominationCount maps a denomination to the number of notes/coins
	// counted. A missing key means zero.
	DenominationCount map[int]int

	// TerminalBreakdown maps a physical terminal ID to per-network amounts.
	// Terminal IDs outside the configured set are never aggregated.
	TerminalBreakdown map[string]map[string]float64

	// POSFigures are the terminal operator's self-reported Z-report values.
	// Absent figures default to zero.
	POSFigures struct {
		Cash     float64 `json:"cash"`
		Mada     float64 `json:"mada"`
		Visa     float64 `json:"visa"`
		Master   float64 `json:"master"`
		Amex     float64 `json:"amex"`
		GCCI     float64 `json:"gcci"`
		Discount float64 `json:"discount"`
		Tips     float64 `json:"tips"`
	}

	// Details retains the full raw inputs of a closing so the record can be
	// audited, recomputed, and rendered as a printable breakdown.
	Details struct {
		CashDenominations DenominationCount  `json:"cashDenominations"`
		CardReconcile     map[string]float64 `json:"cardReconcile"`
		POSInputs         POSFigures         `json:"posInputs"`
		TerminalDetails   TerminalBreakdown  `json:"terminalDetails,omitempty"`
	}

	// DailyClosing is the persisted, immutable-style closing record. Edits
	// replace the whole record; there are no partial patches.
	DailyClosing struct {
		ID        string    `json:"id"`
		Date      Date      `json:"date"`
		CreatedAt time.Time `json:"createdAt"`

		// Counted side.
		CashActual  float64 `json:"cashActual"`
		CardActual  float64 `json:"cardActual"`
		TotalActual float64 `json:"totalActual"`

		// POS-reported side (already net of discount).
		CashSystem  float64 `json:"cashSystem"`
		CardSystem  float64 `json:"cardSystem"`
		TotalSystem float64 `json:"totalSystem"`

		// Derived financials.
		Variance       float64 `json:"variance"`
		NetSales       float64 `json:"netSales"`
		VATAmount      float64 `json:"vatAmount"`
		DiscountAmount float64 `json:"discountAmount"`
		GrossSales     float64 `json:"grossSales"`
		Tips           float64 `json:"tips"`

		Details Details `json:"details"`
	}

	// Input bundles the raw closing-form inputs for one business day.
	Input struct {
		Denominations DenominationCount `json:"cashDenominations"`
		Terminals     TerminalBreakdown `json:"terminalDetails"`
		POS           POSFigures        `json:"posInputs"`
	}
)

var (
	ErrInvalidDate = errors.New("invalid date")
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day (UTC midnight).
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrInvalidDate, data)
	}
	parsed, err := ParseDate(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Before reports whether d falls on an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d falls on a later calendar day than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// Network returns the self-reported amount for a card-network key, zero for
// unknown keys.
func (p POSFigures) Network(key string) float64 {
	switch key {
	case NetworkMada:
		return p.Mada
	case NetworkVisa:
		return p.Visa
	case NetworkMaster:
		return p.Master
	case NetworkAmex:
		return p.Amex
	case NetworkGCCI:
		return p.GCCI
	}
	return 0
}
