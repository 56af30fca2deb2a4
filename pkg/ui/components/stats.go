package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds session counters.
type Stats struct {
	Cycles        int64
	Opportunities int64
	Errors        int64
	AvgDuration   float64
}

// StatsComponent renders session counters.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// RecordCycle folds one evaluation cycle into the counters.
func (s *StatsComponent) RecordCycle(durationMs float64, found, failed bool) {
	s.stats.Cycles++
	s.stats.AvgDuration += (durationMs - s.stats.AvgDuration) / float64(s.stats.Cycles)
	if found {
		s.stats.Opportunities++
	}
	if failed {
		s.stats.Errors++
	}
}

// Stats returns the current counters.
func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errStyle := value
	if s.stats.Errors > 0 {
		errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	}

	return label.Render("STATS  ") +
		fmt.Sprintf("Cycles: %s  │  Opportunities: %s  │  Errors: %s  │  Avg cycle: %s",
			value.Render(fmt.Sprintf("%d", s.stats.Cycles)),
			value.Render(fmt.Sprintf("%d", s.stats.Opportunities)),
			errStyle.Render(fmt.Sprintf("%d", s.stats.Errors)),
			value.Render(fmt.Sprintf("%.0fms", s.stats.AvgDuration)),
		)
}
