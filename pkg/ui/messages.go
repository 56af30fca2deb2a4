// Package ui provides the Bubble Tea TUI for the arbitrage strategy.
package ui

import "time"

// StrategyInfoMsg describes the markets being watched.
type StrategyInfoMsg struct {
	CEX              string
	DEX              string
	MinProfitability string
	MaxOrderAmount   string
}

// ScanMsg carries the diagnostics of one evaluation cycle. Percent fields are
// pre-formatted and hold "N/A" when unavailable.
type ScanMsg struct {
	At             time.Time
	Duration       time.Duration
	Halt           string
	SizesEvaluated int
	CEXBuyPct      string
	CEXSellPct     string
	MaxSeenPct     string
	MaxSeenAmount  string
	Found          bool
}

// OpportunityMsg is sent when an execution action is queued.
type OpportunityMsg struct {
	ID        string
	At        time.Time
	Amount    string
	ProfitPct string
	Buying    string
	Selling   string
}

// ConnectionStatusMsg is sent when a venue's health changes.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

// ErrorMsg is sent when an evaluation cycle fails.
type ErrorMsg struct {
	Error error
}

// LogMsg is sent to display a log line.
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to refresh relative timestamps.
type TickMsg struct{}
