package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// OpportunityRow is one queued execution action.
type OpportunityRow struct {
	Time      string
	ID        string
	Amount    string
	ProfitPct string
	Route     string
}

// OpportunitiesComponent renders the most recent queued actions, newest first.
type OpportunitiesComponent struct {
	rows    []OpportunityRow
	maxRows int
}

// NewOpportunitiesComponent creates a new opportunities component.
func NewOpportunitiesComponent(maxRows int) *OpportunitiesComponent {
	return &OpportunitiesComponent{maxRows: maxRows}
}

// Add prepends a row, dropping the oldest beyond maxRows.
func (o *OpportunitiesComponent) Add(row OpportunityRow) {
	o.rows = append([]OpportunityRow{row}, o.rows...)
	if len(o.rows) > o.maxRows {
		o.rows = o.rows[:o.maxRows]
	}
}

// Clear removes all rows.
func (o *OpportunitiesComponent) Clear() {
	o.rows = nil
}

// Len returns the number of rows held.
func (o *OpportunitiesComponent) Len() int {
	return len(o.rows)
}

// View renders the opportunities component.
func (o *OpportunitiesComponent) View() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	profit := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var b strings.Builder
	b.WriteString(header.Render(fmt.Sprintf("EXECUTIONS QUEUED (last %d)", o.maxRows)))
	b.WriteString("\n\n")

	if len(o.rows) == 0 {
		b.WriteString(dim.Render("No opportunities yet..."))
		return b.String()
	}

	fmt.Fprintf(&b, "  %-8s  %-8s  %12s  %10s  %s\n", "Time", "ID", "Amount", "Profit", "Route")
	for _, r := range o.rows {
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(&b, "  %-8s  %-8s  %12s  %10s  %s\n",
			r.Time, id, r.Amount, profit.Render(r.ProfitPct), dim.Render(r.Route))
	}
	return b.String()
}
