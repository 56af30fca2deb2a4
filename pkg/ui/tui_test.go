package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModel_ScanAndOpportunity(t *testing.T) {
	m := New()
	m = update(t, m, StrategyInfoMsg{CEX: "binance VIRTUAL-USDT", DEX: "uniswap VIRTUAL-USDC", MinProfitability: "0.1%", MaxOrderAmount: "100"})
	m = update(t, m, ScanMsg{CEXBuyPct: "0.35%", CEXSellPct: "-0.4%", MaxSeenPct: "0.35%", MaxSeenAmount: "3", Halt: "max_amount", SizesEvaluated: 5, Found: true})
	m = update(t, m, OpportunityMsg{ID: "0a1b2c3d-aaaa", At: time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC), Amount: "3", ProfitPct: "0.35%", Buying: "binance", Selling: "uniswap"})

	view := m.View()
	for _, want := range []string{"binance VIRTUAL-USDT", "0.35%", "max_amount", "0a1b2c3d", "09:30:00", "OPPORTUNITY QUEUED"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if got := m.stats.Stats(); got.Cycles != 1 || got.Opportunities != 1 {
		t.Errorf("stats = %+v", got)
	}
}

func TestModel_PauseFreezesPanels(t *testing.T) {
	m := New()
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	if !m.paused {
		t.Fatal("expected paused")
	}

	m = update(t, m, ScanMsg{SizesEvaluated: 3, Halt: "quote_balance"})
	m = update(t, m, OpportunityMsg{ID: "x", Amount: "1"})

	if m.opportunities.Len() != 0 {
		t.Error("opportunities should not change while paused")
	}
	if strings.Contains(m.View(), "quote_balance") {
		t.Error("scan panel should not change while paused")
	}
	if m.stats.Stats().Cycles != 1 {
		t.Error("counters should keep running while paused")
	}
}

func TestModel_ErrorsAreCapped(t *testing.T) {
	m := New()
	for i := 0; i < 5; i++ {
		m = update(t, m, ErrorMsg{Error: errors.New("boom")})
	}
	if len(m.errors) != maxErrors {
		t.Fatalf("errors = %d, want %d", len(m.errors), maxErrors)
	}
	if m.stats.Stats().Errors != 5 {
		t.Errorf("error count = %d", m.stats.Stats().Errors)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	if len(m.errors) != 0 {
		t.Error("errors should be cleared")
	}
}

func TestModel_Quit(t *testing.T) {
	m := New()
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !next.(Model).quitting || cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
}
