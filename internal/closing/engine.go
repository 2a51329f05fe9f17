package closing

import (
	"time"

	"closeout/internal/money"
)

// Engine cross-checks counted cash/card totals against POS-reported figures
// and decomposes gross revenue into net sales, VAT, discount and tips.
//
// The arithmetic is pure and total: every input produces a valid
// Reconciliation, including all-zero days. Whether a zero record is worth
// saving is the caller's decision.
type Engine struct {
	cfg     TerminalConfig
	vatRate float64
}

// NewEngine creates an engine with the default VAT rate.
func NewEngine(cfg TerminalConfig) *Engine {
	return NewEngineWithRate(cfg, money.DefaultVATRate)
}

// NewEngineWithRate creates an engine with an explicit VAT rate.
// The rate is fixed at construction and never zero-divides (the divisor is
// 1+rate).
func NewEngineWithRate(cfg TerminalConfig, vatRate float64) *Engine {
	return &Engine{cfg: cfg, vatRate: vatRate}
}

// Config returns the injected terminal configuration.
func (e *Engine) Config() TerminalConfig {
	return e.cfg
}

// Reconciliation holds every figure derived from one day's closing inputs.
type Reconciliation struct {
	// Counted side.
	CashActual  float64 `json:"cashActual"`
	CardActual  float64 `json:"cardActual"`
	TotalActual float64 `json:"totalActual"`

	// POS-reported side. TotalSystemNet is the settled amount: the terminal
	// has already netted the discount out of it.
	TotalPosCash    float64 `json:"cashSystem"`
	TotalPosCredits float64 `json:"cardSystem"`
	TotalSystemNet  float64 `json:"totalSystem"`

	// Revenue decomposition. VAT is levied on the pre-discount gross in this
	// jurisdiction's invoicing convention, so NetSales and VATAmount come
	// from GrossBeforeDiscount, not from the settled amount.
	GrossBeforeDiscount float64 `json:"grossSales"`
	NetSales            float64 `json:"netSales"`
	VATAmount           float64 `json:"vatAmount"`
	Discount            float64 `json:"discountAmount"`
	Tips                float64 `json:"tips"`
	// NetRevenueFinal carves tips out of settled revenue.
	NetRevenueFinal float64 `json:"netRevenueFinal"`

	// Signed variance: positive means the counted total exceeds what the
	// system reports (overage), negative means shortage.
	Variance float64 `json:"variance"`

	// Per-instrument variances are presentational only. They are returned to
	// callers for the reconciliation table and never persisted.
	CashVariance    float64            `json:"cashVariance"`
	NetworkVariance map[string]float64 `json:"networkVariance"`

	// Terminal subtotals for display.
	Terminals TerminalTotals `json:"terminals"`
}

// Empty reports whether both the counted and the system side are zero,
// i.e. there is nothing meaningful to save.
func (r Reconciliation) Empty() bool {
	return r.TotalActual == 0 && r.TotalSystemNet == 0
}

// Reconcile runs the full closing arithmetic over one day's raw inputs.
func (e *Engine) Reconcile(in Input) Reconciliation {
	cashActual := TallyCash(in.Denominations)
	terminals := AggregateTerminals(e.cfg, in.Terminals)

	totalPosCash := in.POS.Cash
	var credits []float64
	for _, network := range e.cfg.Networks {
		credits = append(credits, in.POS.Network(network))
	}
	totalPosCredits := money.Sum(credits...)
	totalSystemNet := money.Sum(totalPosCash, totalPosCredits)

	// Reconstruct the pre-discount gross by adding the reported discount
	// back onto the settled amount.
	grossBeforeDiscount := money.Sum(totalSystemNet, in.POS.Discount)
	netSales := money.NetFromGrossAt(grossBeforeDiscount, e.vatRate)
	vatAmount := money.Round(grossBeforeDiscount - netSales)

	totalActual := money.Sum(cashActual, terminals.CardActual)

	networkVariance := make(map[string]float64, len(e.cfg.Networks))
	for _, network := range e.cfg.Networks {
		networkVariance[network] = money.Round(terminals.ByNetwork[network] - in.POS.Network(network))
	}

	return Reconciliation{
		CashActual:  cashActual,
		CardActual:  terminals.CardActual,
		TotalActual: totalActual,

		TotalPosCash:    totalPosCash,
		TotalPosCredits: totalPosCredits,
		TotalSystemNet:  totalSystemNet,

		GrossBeforeDiscount: grossBeforeDiscount,
		NetSales:            netSales,
		VATAmount:           vatAmount,
		Discount:            in.POS.Discount,
		Tips:                in.POS.Tips,
		NetRevenueFinal:     money.Round(totalSystemNet - in.POS.Tips),

		Variance:        money.Round(totalActual - totalSystemNet),
		CashVariance:    money.Round(cashActual - totalPosCash),
		NetworkVariance: networkVariance,

		Terminals: terminals,
	}
}

// Record materializes a persisted DailyClosing from a reconciliation and the
// raw inputs it was computed from.
func (r Reconciliation) Record(id string, date Date, createdAt time.Time, in Input) DailyClosing {
	return DailyClosing{
		ID:        id,
		Date:      date,
		CreatedAt: createdAt,

		CashActual:  r.CashActual,
		CardActual:  r.CardActual,
		TotalActual: r.TotalActual,

		CashSystem:  r.TotalPosCash,
		CardSystem:  r.TotalPosCredits,
		TotalSystem: r.TotalSystemNet,

		Variance:       r.Variance,
		NetSales:       r.NetSales,
		VATAmount:      r.VATAmount,
		DiscountAmount: r.Discount,
		GrossSales:     r.GrossBeforeDiscount,
		Tips:           r.Tips,

		Details: Details{
			CashDenominations: in.Denominations,
			CardReconcile:     r.Terminals.ByNetwork,
			POSInputs:         in.POS,
			TerminalDetails:   in.Terminals,
		},
	}
}
