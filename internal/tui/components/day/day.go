package day

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yndrdev/totalrecover/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	phaseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	statusStyles = map[models.TaskStatus]lipgloss.Style{
		models.StatusCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.StatusMissed:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		models.StatusSkipped:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		models.StatusCancelled: lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Strikethrough(true),
		models.StatusUpcoming:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		models.StatusPending:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
)

type Model struct {
	viewport viewport.Model
	Day      *models.DaySummary
	cursor   int
	width    int
	height   int
}

func New(width, height int) Model {
	return Model{viewport: viewport.New(width, height)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.Day == nil {
		return "No day selected."
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

// SetDay shows d, keeping the cursor on the same row when possible.
func (m *Model) SetDay(d models.DaySummary) {
	m.Day = &d
	if m.cursor >= len(d.Tasks) {
		m.cursor = max(len(d.Tasks)-1, 0)
	}
	m.Render()
}

// MoveCursor moves the task cursor by delta rows, clamped to the list.
func (m *Model) MoveCursor(delta int) {
	if m.Day == nil || len(m.Day.Tasks) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.Day.Tasks)-1)
	m.Render()
}

// SelectedTask returns the task under the cursor.
func (m Model) SelectedTask() (models.TaskInstance, bool) {
	if m.Day == nil || m.cursor >= len(m.Day.Tasks) {
		return models.TaskInstance{}, false
	}
	return m.Day.Tasks[m.cursor], true
}

func (m *Model) Render() {
	if m.Day == nil {
		m.viewport.SetContent("No day loaded.")
		return
	}
	d := m.Day

	var b strings.Builder
	header := fmt.Sprintf("Day %d", d.Day)
	if d.Date != "" {
		header += " · " + d.Date
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("  ")
	b.WriteString(phaseStyle.Render(strings.ReplaceAll(string(d.Phase), "_", " ")))
	b.WriteString("\n\n")

	if len(d.Tasks) == 0 {
		b.WriteString("No tasks scheduled.\n")
	}
	for i, t := range d.Tasks {
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
		}
		title := t.Title
		if t.Required {
			title += " *"
		}
		status := statusStyles[t.Status].Render(string(t.Status))
		fmt.Fprintf(&b, "%s%-30s %s\n", prefix, title, status)
	}

	c := d.TaskCounts
	fmt.Fprintf(&b, "\n%d/%d completed, %d pending, %d missed\n", c.Completed, c.Total, c.Pending, c.Missed)
	if d.HasConversation {
		b.WriteString("💬 conversation on this day\n")
	}
	m.viewport.SetContent(b.String())
}
