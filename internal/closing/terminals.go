package closing

import (
	"closeout/internal/money"
)

// TerminalConfig is the externally supplied hardware configuration: the
// ordered list of physical terminal IDs and the ordered list of card-network
// keys. Both are configuration, not data; deployments with different
// hardware reconfigure without code changes.
type TerminalConfig struct {
	Terminals []string
	Networks  []string
}

// DefaultNetworks returns the card-network keys of the reference deployment.
func DefaultNetworks() []string {
	return []string{NetworkMada, NetworkVisa, NetworkMaster, NetworkAmex, NetworkGCCI}
}

// TerminalTotals is the output of aggregating a terminal breakdown.
type TerminalTotals struct {
	// CardActual is the physical card total across all known terminals and
	// networks.
	CardActual float64 `json:"cardActual"`
	// ByNetwork holds per-network subtotals for the reconciliation table.
	ByNetwork map[string]float64 `json:"byNetwork"`
	// ByTerminal holds per-terminal row subtotals for display. Rows summing
	// to zero stay here; hiding them is a presentation concern and they are
	// never dropped from CardActual.
	ByTerminal map[string]float64 `json:"byTerminal"`
}

// AggregateTerminals sums per-terminal per-network amounts into the physical
// card total. Terminal IDs not present in cfg are silently ignored, keeping
// the hardware set closed.
func AggregateTerminals(cfg TerminalConfig, breakdown TerminalBreakdown) TerminalTotals {
	totals := TerminalTotals{
		ByNetwork:  make(map[string]float64, len(cfg.Networks)),
		ByTerminal: make(map[string]float64, len(cfg.Terminals)),
	}
	for _, network := range cfg.Networks {
		totals.ByNetwork[network] = 0
	}

	var all []float64
	for _, terminal := range cfg.Terminals {
		amounts := breakdown[terminal]
		var row []float64
		for _, network := range cfg.Networks {
			amount := amounts[network]
			totals.ByNetwork[network] = money.Sum(totals.ByNetwork[network], amount)
			row = append(row, amount)
			all = append(all, amount)
		}
		totals.ByTerminal[terminal] = money.Sum(row...)
	}

	totals.CardActual = money.Sum(all...)
	return totals
}
