// Package ui provides reusable UI components for the caseflow CLI.
// It includes spinners, tables, status badges and an interactive timeline
// browser.
package ui

import (
	"fmt"
	"strings"

	"github.com/caseflow/caseflow"
	"github.com/caseflow/caseflow/cli/styles"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SpinnerModel is a spinner component with a message
type SpinnerModel struct {
	spinner  spinner.Model
	message  string
	quitting bool
	done     bool
	result   string
	err      error
}

// NewSpinner creates a new spinner with the given message
func NewSpinner(message string) SpinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return SpinnerModel{
		spinner: s,
		message: message,
	}
}

func (m SpinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m SpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case SpinnerDoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m SpinnerModel) View() string {
	if m.done {
		if m.err != nil {
			return styles.FormatError(m.result) + "\n"
		}
		return styles.FormatSuccess(m.result) + "\n"
	}

	if m.quitting {
		return styles.FormatWarning("Cancelled") + "\n"
	}

	return m.spinner.View() + " " + styles.Normal.Render(m.message) + "\n"
}

// SpinnerDoneMsg signals that the spinner operation is complete
type SpinnerDoneMsg struct {
	Result string
	Err    error
}

// Table renders a bordered table
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable creates a new table with headers
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		widths:  widths,
	}
}

// AddRow adds a row to the table
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.headers))
	for i := 0; i < len(t.headers); i++ {
		if i < len(values) {
			row[i] = values[i]
			if len(values[i]) > t.widths[i] {
				t.widths[i] = len(values[i])
			}
		}
	}
	t.rows = append(t.rows, row)
}

// Render returns the formatted table string
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Primary).
		Padding(0, 1)

	cellStyle := lipgloss.NewStyle().
		Foreground(styles.Text).
		Padding(0, 1)

	borderStyle := lipgloss.NewStyle().
		Foreground(styles.Border)

	writeBorder := func(left, mid, right string) {
		sb.WriteString(borderStyle.Render(left))
		for i, w := range t.widths {
			sb.WriteString(borderStyle.Render(strings.Repeat("─", w+2)))
			if i < len(t.widths)-1 {
				sb.WriteString(borderStyle.Render(mid))
			}
		}
		sb.WriteString(borderStyle.Render(right))
		sb.WriteString("\n")
	}

	writeBorder("┌", "┬", "┐")

	sb.WriteString(borderStyle.Render("│"))
	for i, h := range t.headers {
		cell := headerStyle.Width(t.widths[i]).Render(h)
		sb.WriteString(cell)
		sb.WriteString(borderStyle.Render("│"))
	}
	sb.WriteString("\n")

	writeBorder("├", "┼", "┤")

	for _, row := range t.rows {
		sb.WriteString(borderStyle.Render("│"))
		for i, cell := range row {
			c := cellStyle.Width(t.widths[i]).Render(cell)
			sb.WriteString(c)
			sb.WriteString(borderStyle.Render("│"))
		}
		sb.WriteString("\n")
	}

	writeBorder("└", "┴", "┘")

	return sb.String()
}

// StatusBadge returns a styled status badge
func StatusBadge(status string) string {
	switch strings.ToLower(status) {
	case "approved", "agreed", "closed", "healthy", "ok":
		return lipgloss.NewStyle().
			Background(styles.Success).
			Foreground(lipgloss.Color("#000000")).
			Padding(0, 1).
			Render(status)
	case "sent", "awaiting_response", "partially_approved", "under_negotiation", "draft":
		return lipgloss.NewStyle().
			Background(styles.Warning).
			Foreground(lipgloss.Color("#000000")).
			Padding(0, 1).
			Render(status)
	case "rejected_disagree", "rejected_late", "error", "failed":
		return lipgloss.NewStyle().
			Background(styles.Error).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1).
			Render(status)
	default:
		return lipgloss.NewStyle().
			Background(styles.Surface).
			Foreground(styles.Text).
			Padding(0, 1).
			Render(status)
	}
}

// SimpleBanner returns a small one-line banner
func SimpleBanner() string {
	return styles.IconCase + " " + lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Primary).
		Render("caseflow") +
		" " +
		styles.Muted.Render("- Construction Claim Case Engine")
}

// Divider returns a horizontal divider line
func Divider(width int) string {
	return styles.Dim.Render(strings.Repeat("─", width))
}

// ListItems formats a list of items with bullets
func ListItems(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(styles.Highlight.Render(styles.IconDot))
		sb.WriteString(" ")
		sb.WriteString(styles.ListItem.Render(item))
		sb.WriteString("\n")
	}
	return sb.String()
}

// TimelineModel is an interactive browser over a case's event timeline.
// Up/down moves the cursor; the payload detail of the selected entry is
// shown below the list.
type TimelineModel struct {
	caseID  string
	entries []caseflow.TimelineEntry
	cursor  int
}

// NewTimeline creates a timeline browser for the given entries.
func NewTimeline(caseID string, entries []caseflow.TimelineEntry) TimelineModel {
	return TimelineModel{
		caseID:  caseID,
		entries: entries,
	}
}

func (m TimelineModel) Init() tea.Cmd {
	return nil
}

func (m TimelineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case "g", "home":
			m.cursor = 0
		case "G", "end":
			if len(m.entries) > 0 {
				m.cursor = len(m.entries) - 1
			}
		}
	}
	return m, nil
}

func (m TimelineModel) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render("Timeline " + styles.IconArrow + " " + m.caseID))
	sb.WriteString("\n")

	if len(m.entries) == 0 {
		sb.WriteString(styles.Muted.Render("No events.") + "\n")
		return sb.String()
	}

	for i, entry := range m.entries {
		line := fmt.Sprintf("%3d  %s  %s  %s",
			entry.Version, entry.Timestamp, entry.Label,
			styles.Dim.Render(entry.Actor+" ("+string(entry.Role)+")"))
		if i == m.cursor {
			sb.WriteString(styles.ListItemSelected.Render(styles.IconArrow + " " + line))
		} else {
			sb.WriteString(styles.ListItem.Render("  " + line))
		}
		sb.WriteString("\n")
	}

	selected := m.entries[m.cursor]
	sb.WriteString("\n")
	sb.WriteString(Divider(60))
	sb.WriteString("\n")
	sb.WriteString(styles.FormatKeyValue("Event", string(selected.Type)))
	sb.WriteString("\n")
	if selected.Detail != "" {
		sb.WriteString(styles.FormatKeyValue("Detail", selected.Detail))
		sb.WriteString("\n")
	}
	if selected.Comment != "" {
		sb.WriteString(styles.FormatKeyValue("Comment", selected.Comment))
		sb.WriteString("\n")
	}
	sb.WriteString(styles.Dim.Render("↑/↓ move  q quit"))
	sb.WriteString("\n")

	return sb.String()
}
