package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/dynamic-arb/pkg/ui/components"
)

const (
	maxErrors = 3
	maxLogs   = 5
)

// ErrorEntry is an error with the time it was received.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the Bubble Tea model for the strategy dashboard.
type Model struct {
	keys          KeyMap
	scan          *components.ScanComponent
	opportunities *components.OpportunitiesComponent
	stats         *components.StatsComponent
	status        *components.StatusComponent

	width    int
	quitting bool
	paused   bool

	lastUpdate time.Time
	errors     []ErrorEntry
	logs       []string
	now        func() time.Time
}

// New creates a new TUI model.
func New() Model {
	return Model{
		keys:          DefaultKeyMap(),
		scan:          components.NewScanComponent(),
		opportunities: components.NewOpportunitiesComponent(10),
		stats:         components.NewStatsComponent(),
		status:        components.NewStatusComponent(),
		now:           time.Now,
	}
}

// Init starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Clear):
			m.opportunities.Clear()
		case key.Matches(msg, m.keys.ClearErrors):
			m.errors = nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case TickMsg:
		return m, tickCmd()

	case StrategyInfoMsg:
		m.scan.SetMarkets(msg.CEX, msg.DEX, msg.MinProfitability, msg.MaxOrderAmount)

	case ScanMsg:
		// Counters keep running while paused; only the panels freeze.
		m.stats.RecordCycle(float64(msg.Duration.Milliseconds()), msg.Found, false)
		if m.paused {
			return m, nil
		}
		m.scan.Update(components.ScanView(msg))
		m.lastUpdate = m.now()

	case OpportunityMsg:
		if m.paused {
			return m, nil
		}
		m.opportunities.Add(components.OpportunityRow{
			Time:      msg.At.Format("15:04:05"),
			ID:        msg.ID,
			Amount:    msg.Amount,
			ProfitPct: msg.ProfitPct,
			Route:     msg.Buying + " → " + msg.Selling,
		})

	case ConnectionStatusMsg:
		m.status.Update(components.ConnectionStatus{
			Name:      msg.Name,
			Connected: msg.Connected,
			Latency:   msg.Latency,
		})

	case ErrorMsg:
		m.stats.RecordCycle(0, false, true)
		m.errors = append(m.errors, ErrorEntry{Message: msg.Error.Error(), Timestamp: m.now()})
		if len(m.errors) > maxErrors {
			m.errors = m.errors[len(m.errors)-maxErrors:]
		}

	case LogMsg:
		line := fmt.Sprintf("[%s] %s: %s", m.now().Format("15:04:05"), msg.Level, msg.Message)
		m.logs = append(m.logs, line)
		if len(m.logs) > maxLogs {
			m.logs = m.logs[len(m.logs)-maxLogs:]
		}
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(" CEX/DEX Dynamic Arbitrage "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	left := m.scan.View()
	right := m.opportunities.View()
	if m.width > 100 {
		half := m.width/2 - 2
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			BoxStyle.Width(half).Render(left),
			BoxStyle.Width(half).Render(right)))
	} else {
		b.WriteString(BoxStyle.Render(left))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Render(right))
	}
	b.WriteString("\n\n")
	b.WriteString(m.stats.View())
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		b.WriteString(ErrorStyle.Bold(true).Render("ERRORS"))
		b.WriteString("\n")
		for _, e := range m.errors {
			ago := m.now().Sub(e.Timestamp).Round(time.Second)
			b.WriteString(ErrorStyle.Render("  • " + e.Message))
			b.WriteString(MutedValue.Render(fmt.Sprintf(" (%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	for _, l := range m.logs {
		b.WriteString(MutedValue.Render(l))
		b.WriteString("\n")
	}

	if m.paused {
		b.WriteString(PausedStyle.Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(HelpStyle.Render("q: quit • p: pause • c: clear • e: clear errors"))

	return b.String()
}

func (m Model) renderStatusBar() string {
	parts := make([]string, 0, 3)
	if s := m.status.View(); s != "" {
		parts = append(parts, s)
	}
	if !m.lastUpdate.IsZero() {
		ago := m.now().Sub(m.lastUpdate).Round(time.Second)
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}
	if len(parts) == 0 {
		return MutedValue.Render("Starting...")
	}
	return strings.Join(parts, "  │  ")
}

// Program wraps a running Bubble Tea program.
type Program struct {
	program *tea.Program
}

// NewProgram creates the dashboard program on the alternate screen.
func NewProgram() *Program {
	return &Program{program: tea.NewProgram(New(), tea.WithAltScreen())}
}

// Run blocks until the user quits or Quit is called.
func (p *Program) Run() error {
	_, err := p.program.Run()
	return err
}

// Send delivers msg to the program. Safe for concurrent use.
func (p *Program) Send(msg tea.Msg) {
	p.program.Send(msg)
}

// Quit asks the program to exit.
func (p *Program) Quit() {
	p.program.Quit()
}
