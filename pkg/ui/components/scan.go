// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ScanView is the last evaluation cycle as shown on screen.
type ScanView struct {
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

// ScanComponent renders the latest scan and the strategy parameters.
type ScanComponent struct {
	cex, dex         string
	minProfitability string
	maxOrderAmount   string
	last             *ScanView
}

// NewScanComponent creates a new scan component.
func NewScanComponent() *ScanComponent {
	return &ScanComponent{}
}

// SetMarkets sets the strategy description shown in the header.
func (s *ScanComponent) SetMarkets(cex, dex, minProfitability, maxOrderAmount string) {
	s.cex, s.dex = cex, dex
	s.minProfitability = minProfitability
	s.maxOrderAmount = maxOrderAmount
}

// Update replaces the displayed scan.
func (s *ScanComponent) Update(v ScanView) {
	s.last = &v
}

// View renders the scan component.
func (s *ScanComponent) View() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	good := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	bad := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	var b strings.Builder
	b.WriteString(header.Render(fmt.Sprintf("SCAN  %s ⇄ %s", s.cex, s.dex)))
	b.WriteString("\n")
	b.WriteString(dim.Render(fmt.Sprintf("min profit %s  │  max order %s", s.minProfitability, s.maxOrderAmount)))
	b.WriteString("\n\n")

	if s.last == nil {
		b.WriteString(dim.Render("Waiting for first evaluation..."))
		return b.String()
	}

	v := s.last
	pct := func(p string) string {
		if strings.HasPrefix(p, "-") {
			return bad.Render(p)
		}
		if p == "N/A" {
			return dim.Render(p)
		}
		return good.Render(p)
	}

	fmt.Fprintf(&b, "  %-22s %s\n", "Buy CEX / sell DEX:", pct(v.CEXBuyPct))
	fmt.Fprintf(&b, "  %-22s %s\n", "Buy DEX / sell CEX:", pct(v.CEXSellPct))
	fmt.Fprintf(&b, "  %-22s %s at %s\n", "Best seen:", pct(v.MaxSeenPct), v.MaxSeenAmount)
	b.WriteString(dim.Render("  " + strings.Repeat("─", 44)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %-22s %d\n", "Sizes priced:", v.SizesEvaluated)
	fmt.Fprintf(&b, "  %-22s %s\n", "Stopped on:", v.Halt)
	fmt.Fprintf(&b, "  %-22s %s\n", "Took:", v.Duration.Round(time.Millisecond))

	if v.Found {
		b.WriteString("\n")
		b.WriteString(good.Bold(true).Render("  OPPORTUNITY QUEUED"))
	}

	return b.String()
}
