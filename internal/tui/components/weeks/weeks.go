package weeks

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yndrdev/totalrecover/internal/models"
)

// OpenWeekMsg asks the parent to show the first day of a week.
type OpenWeekMsg struct {
	Week models.WeekSummary
}

type Item struct {
	Week    models.WeekSummary
	Current bool
}

func (i Item) Title() string {
	title := fmt.Sprintf("Week %d", i.Week.Number)
	if i.Current {
		title = "▶ " + title
	}
	if i.Week.HasNotifications {
		title += " ●"
	}
	return title
}

func (i Item) Description() string {
	c := i.Week.TaskCounts
	desc := fmt.Sprintf("days %d to %d | %d/%d done", i.Week.StartDay, i.Week.EndDay, c.Completed, c.Total)
	if c.Missed > 0 {
		desc += fmt.Sprintf(" | %d missed", c.Missed)
	}
	return desc
}

func (i Item) FilterValue() string { return fmt.Sprintf("week %d", i.Week.Number) }

type KeyMap struct {
	Open key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(weeks []models.WeekSummary, currentDay, width, height int) Model {
	l := list.New(items(weeks, currentDay), list.NewDefaultDelegate(), width, height)
	l.Title = "Weeks"
	l.SetShowTitle(false)
	l.SetShowHelp(false) // We handle help globally in the main model
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)

	return Model{list: l, keys: DefaultKeyMap()}
}

func items(weeks []models.WeekSummary, currentDay int) []list.Item {
	out := make([]list.Item, len(weeks))
	for i, w := range weeks {
		out[i] = Item{Week: w, Current: w.StartDay <= currentDay && currentDay <= w.EndDay}
	}
	return out
}

// SetWeeks replaces the listed weeks and selects the one at index selected.
func (m *Model) SetWeeks(weeks []models.WeekSummary, currentDay, selected int) {
	m.list.SetItems(items(weeks, currentDay))
	m.list.Select(selected)
}

// Selected returns the highlighted week.
func (m Model) Selected() (models.WeekSummary, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i.Week, ok
}

func (m Model) Index() int {
	return m.list.Index()
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Open) {
		if i, ok := m.list.SelectedItem().(Item); ok {
			return m, func() tea.Msg { return OpenWeekMsg{Week: i.Week} }
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return "\n  No weeks on this page."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
