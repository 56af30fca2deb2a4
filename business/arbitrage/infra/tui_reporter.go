package infra

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/dynamic-arb/business/arbitrage/app"
	"github.com/fd1az/dynamic-arb/business/arbitrage/domain"
	"github.com/fd1az/dynamic-arb/pkg/ui"
)

var _ app.Reporter = (*TUIReporter)(nil)

// Sender delivers messages to a running Bubble Tea program.
type Sender interface {
	Send(msg tea.Msg)
}

// TUIReporter forwards evaluation cycles to the dashboard.
type TUIReporter struct {
	sender Sender
}

// NewTUIReporter creates a TUIReporter and announces cfg's markets.
func NewTUIReporter(sender Sender, cfg domain.StrategyConfig) *TUIReporter {
	sender.Send(ui.StrategyInfoMsg{
		CEX:              cfg.CEXConnector + " " + cfg.CEXPair.String(),
		DEX:              cfg.DEXConnector + " " + cfg.DEXPair.String(),
		MinProfitability: domain.FormatPercent(&cfg.MinProfitability),
		MaxOrderAmount:   cfg.MaxOrderAmount.String() + " " + cfg.CEXPair.Base,
	})
	return &TUIReporter{sender: sender}
}

// ReportCycle implements app.Reporter.
func (r *TUIReporter) ReportCycle(_ context.Context, rep app.CycleReport) {
	if rep.Err != nil {
		r.sender.Send(ui.ErrorMsg{Error: rep.Err})
		return
	}

	res := rep.Result
	r.sender.Send(ui.ScanMsg{
		At:             rep.At,
		Duration:       rep.Duration,
		Halt:           string(res.Halt),
		SizesEvaluated: res.SizesEvaluated,
		CEXBuyPct:      domain.FormatPercent(res.CEXBuyProfit),
		CEXSellPct:     domain.FormatPercent(res.CEXSellProfit),
		MaxSeenPct:     domain.FormatPercent(res.MaxSeenProfit),
		MaxSeenAmount:  domain.FormatDecimal(res.MaxSeenAmount),
		Found:          rep.Action != nil,
	})

	if a := rep.Action; a != nil {
		r.sender.Send(ui.OpportunityMsg{
			ID:        a.ID,
			At:        a.CreatedAt,
			Amount:    a.OrderAmount.String(),
			ProfitPct: domain.FormatPercent(&res.BestProfit),
			Buying:    a.Buying.Connector,
			Selling:   a.Selling.Connector,
		})
	}
}
