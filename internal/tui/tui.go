// Package tui is the terminal front end of a replay session.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rustyeddy/fxreplay/chart"
	"github.com/rustyeddy/fxreplay/ledger"
	"github.com/rustyeddy/fxreplay/sim"
	"github.com/rustyeddy/fxreplay/simulation"
)

var (
	primaryColor   = lipgloss.Color("#0077cc")
	secondaryColor = lipgloss.Color("#333333")
	errorColor     = lipgloss.Color("#cc3300")
	successColor   = lipgloss.Color("#33cc33")
	warningColor   = lipgloss.Color("#cccc00")

	appStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor)
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(primaryColor).
			Padding(0, 1)
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(secondaryColor).
			Padding(0, 1)
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondaryColor).
			Padding(0, 1)
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999")).
			Padding(0, 1)
	profitStyle = lipgloss.NewStyle().Foreground(successColor)
	lossStyle   = lipgloss.NewStyle().Foreground(errorColor)
	warnStyle   = lipgloss.NewStyle().Foreground(warningColor)
)

const (
	defaultWidth = 80
	maxNotes     = 5
)

// UI holds what the terminal shows besides the controller snapshot.
type UI struct {
	canvas *chart.Canvas

	notesMu sync.Mutex
	notes   []simulation.Notify

	ctl    *simulation.Controller
	status string
	width  int
	height int
}

// New returns a UI reading the chart from canvas.
func New(canvas *chart.Canvas) *UI {
	return &UI{canvas: canvas, width: defaultWidth}
}

// Notify collects controller messages. Pass it to simulation.WithNotifier.
func (u *UI) Notify(n simulation.Notify) {
	u.notesMu.Lock()
	defer u.notesMu.Unlock()
	u.notes = append(u.notes, n)
	if len(u.notes) > maxNotes {
		u.notes = u.notes[len(u.notes)-maxNotes:]
	}
}

// Model returns the bubbletea model driving ctl.
func (u *UI) Model(ctl *simulation.Controller) tea.Model {
	u.ctl = ctl
	return bubbleModel{ui: u}
}

// Run blocks until the user quits or ctx is done.
func (u *UI) Run(ctx context.Context, ctl *simulation.Controller) error {
	p := tea.NewProgram(u.Model(ctl), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

type bubbleModel struct {
	ui *UI
}

func (m bubbleModel) Init() tea.Cmd {
	return nil
}

func (m bubbleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		var cmd simulation.Command
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter", " ":
			cmd = simulation.Start{}
		case "n", "right":
			cmd = simulation.Advance{}
		case "b":
			cmd = simulation.OpenPosition{Side: sim.Buy}
		case "s":
			cmd = simulation.OpenPosition{Side: sim.Sell}
		case "c":
			cmd = simulation.ClosePosition{}
		case "r":
			cmd = simulation.Restart{}
		}
		if cmd != nil {
			m.ui.execute(cmd)
		}

	case tea.WindowSizeMsg:
		m.ui.width = msg.Width
		m.ui.height = msg.Height
	}
	return m, nil
}

func (u *UI) execute(cmd simulation.Command) {
	if u.ctl == nil {
		return
	}
	if err := u.ctl.Execute(cmd); err != nil {
		u.status = fmt.Sprintf("%s: %v", cmd.Name(), err)
		return
	}
	u.status = ""
}

func (m bubbleModel) View() string {
	u := m.ui
	if u.ctl == nil {
		return appStyle.Render("loading...")
	}
	snap := u.ctl.Snapshot()
	inner := max(u.width-10, 20)

	title := titleStyle.Render(fmt.Sprintf("fxreplay  account %d  %s", snap.AccountID, snap.Phase))
	footer := footerStyle.Render("enter start  n next  b buy  s sell  c close  r restart  q quit")

	parts := []string{
		title,
		renderAccount(snap),
		renderChart(u.canvas, inner),
		renderTrades(snap.Recent),
		headerStyle.Render("ACCOUNTS") + " " + u.ctl.State().Ledger().SummaryLine(),
	}
	if notes := u.renderNotes(); notes != "" {
		parts = append(parts, notes)
	}
	if u.status != "" {
		parts = append(parts, lossStyle.Render(u.status))
	}
	parts = append(parts, footer)

	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func renderAccount(s simulation.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Balance   %10.2f\n", s.Balance)
	fmt.Fprintf(&b, "Equity    %10.2f\n", s.Equity)
	fmt.Fprintf(&b, "Floating  %s\n", signed(s.Floating))
	fmt.Fprintf(&b, "Realized  %s\n", signed(s.Realized))
	fmt.Fprintf(&b, "Position  %s", s.PositionLabel)
	if s.Current != nil {
		fmt.Fprintf(&b, "\nPrice     %.5f  %s", s.Current.Close, time.Unix(s.Current.Time, 0).UTC().Format("2006-01-02 15:04"))
	}
	if s.Phase == simulation.Running.String() {
		fmt.Fprintf(&b, "\nProgress  %3.0f%%  %d left", s.Progress*100, s.Remaining)
	}
	if s.EndReason != "" {
		b.WriteString("\n" + warnStyle.Render("Ended: "+s.EndReason))
	}
	return sectionStyle.Render(b.String())
}

func renderChart(canvas *chart.Canvas, width int) string {
	header := headerStyle.Render("CHART")
	if canvas == nil {
		return header
	}
	view := canvas.View(width)
	if len(view.Candles) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, sectionStyle.Render("press enter to start"))
	}
	lines := []string{view.Sparkline(width)}
	for _, mk := range view.Markers {
		lvl := view.MarkerLevel(mk.Price, width)
		where := fmt.Sprintf("level %d", lvl)
		if lvl < 0 {
			where = "off chart"
		}
		lines = append(lines, fmt.Sprintf("%s (%s)", mk.Label, where))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, sectionStyle.Render(strings.Join(lines, "\n")))
}

func renderTrades(trades []sim.ClosedTrade) string {
	header := headerStyle.Render("RECENT TRADES")
	if len(trades) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, sectionStyle.Render("no trades yet"))
	}
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%-4s %.5f -> %.5f  %s",
			strings.ToUpper(string(t.Side)), t.EntryPrice, t.ExitPrice, signed(t.Pips))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, sectionStyle.Render(b.String()))
}

func (u *UI) renderNotes() string {
	u.notesMu.Lock()
	defer u.notesMu.Unlock()
	if len(u.notes) == 0 {
		return ""
	}
	lines := make([]string, 0, len(u.notes))
	for _, n := range u.notes {
		if n.Level == simulation.Warn {
			lines = append(lines, warnStyle.Render(n.Message))
		} else {
			lines = append(lines, n.Message)
		}
	}
	return strings.Join(lines, "\n")
}

func signed(v float64) string {
	s := ledger.FormatSigned(v)
	if v < 0 {
		return lossStyle.Render(s)
	}
	return profitStyle.Render(s)
}
