package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow/caseflow"
)

func TestTable_Render(t *testing.T) {
	t.Run("renders headers and rows", func(t *testing.T) {
		table := NewTable("Case", "Status")
		table.AddRow("case-1", "open")
		table.AddRow("case-2", "closed")

		out := table.Render()
		assert.Contains(t, out, "Case")
		assert.Contains(t, out, "Status")
		assert.Contains(t, out, "case-1")
		assert.Contains(t, out, "closed")
		assert.Contains(t, out, "┌")
		assert.Contains(t, out, "└")
	})

	t.Run("short rows are padded", func(t *testing.T) {
		table := NewTable("A", "B")
		table.AddRow("only-a")

		out := table.Render()
		assert.Contains(t, out, "only-a")
	})

	t.Run("empty table renders nothing", func(t *testing.T) {
		assert.Empty(t, NewTable().Render())
	})
}

func TestStatusBadge(t *testing.T) {
	for _, status := range []string{"approved", "sent", "rejected_late", "something_else"} {
		assert.Contains(t, StatusBadge(status), status)
	}
}

func TestSimpleBanner(t *testing.T) {
	assert.Contains(t, SimpleBanner(), "caseflow")
}

func TestDivider(t *testing.T) {
	assert.Equal(t, 3, strings.Count(Divider(3), "─"))
}

func TestListItems(t *testing.T) {
	out := ListItems([]string{"first", "second"})
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func timelineEntries() []caseflow.TimelineEntry {
	return []caseflow.TimelineEntry{
		{
			Version:   1,
			Type:      caseflow.EventCaseCreated,
			Label:     "Case opened",
			Detail:    "Delayed site access",
			Actor:     "contractor-a",
			Role:      caseflow.RoleClaimant,
			Timestamp: "2026-03-14 12:00:00",
		},
		{
			Version:   2,
			Type:      caseflow.EventGroundsSubmitted,
			Label:     "Grounds claim submitted",
			Actor:     "contractor-a",
			Role:      caseflow.RoleClaimant,
			Timestamp: "2026-03-14 13:00:00",
		},
	}
}

func TestTimelineModel_Navigation(t *testing.T) {
	key := func(s string) tea.KeyMsg {
		if len(s) == 1 {
			return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
		}
		switch s {
		case "up":
			return tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			return tea.KeyMsg{Type: tea.KeyDown}
		}
		t.Fatalf("unknown key %q", s)
		return tea.KeyMsg{}
	}

	m := NewTimeline("case-1", timelineEntries())
	assert.Equal(t, 0, m.cursor)

	t.Run("down moves the cursor", func(t *testing.T) {
		updated, _ := m.Update(key("down"))
		assert.Equal(t, 1, updated.(TimelineModel).cursor)
	})

	t.Run("cursor stops at the last entry", func(t *testing.T) {
		moved, _ := m.Update(key("down"))
		again, _ := moved.Update(key("down"))
		assert.Equal(t, 1, again.(TimelineModel).cursor)
	})

	t.Run("up stops at the first entry", func(t *testing.T) {
		updated, _ := m.Update(key("up"))
		assert.Equal(t, 0, updated.(TimelineModel).cursor)
	})

	t.Run("G jumps to the end, g back to the start", func(t *testing.T) {
		end, _ := m.Update(key("G"))
		assert.Equal(t, 1, end.(TimelineModel).cursor)

		start, _ := end.Update(key("g"))
		assert.Equal(t, 0, start.(TimelineModel).cursor)
	})

	t.Run("q quits", func(t *testing.T) {
		_, cmd := m.Update(key("q"))
		require.NotNil(t, cmd)
	})
}

func TestTimelineModel_View(t *testing.T) {
	t.Run("lists the entries with the selection detail", func(t *testing.T) {
		m := NewTimeline("case-1", timelineEntries())
		out := m.View()

		assert.Contains(t, out, "case-1")
		assert.Contains(t, out, "Case opened")
		assert.Contains(t, out, "Grounds claim submitted")
		assert.Contains(t, out, "Delayed site access")
	})

	t.Run("empty timeline", func(t *testing.T) {
		out := NewTimeline("case-1", nil).View()
		assert.Contains(t, out, "No events.")
	})
}
