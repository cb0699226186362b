package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/yndrdev/totalrecover/internal/models"
	"github.com/yndrdev/totalrecover/internal/tui/components/weeks"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case recordedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			m.status = ""
		} else {
			m.err = nil
			m.status = msg.Task.Title + ": " + string(msg.Task.Status)
		}
		if err := m.reload(); err != nil {
			m.err = err
		}
		return m, nil

	case weeks.OpenWeekMsg:
		m.jumpToDay(msg.Week.StartDay)
		m.focus = FocusDay
		return m, nil
	}

	if m.state == StateConfirm {
		return m.updateConfirm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Tab):
			if m.focus == FocusWeeks {
				m.focus = FocusDay
			} else {
				m.focus = FocusWeeks
			}
			return m, nil
		case key.Matches(msg, m.keys.Today):
			m.jumpToDay(m.timeline.CurrentDay)
			return m, nil
		case key.Matches(msg, m.keys.NextPage):
			m.turnPage(1)
			return m, nil
		case key.Matches(msg, m.keys.PrevPage):
			m.turnPage(-1)
			return m, nil
		case key.Matches(msg, m.keys.Left):
			m.jumpToDay(m.selectedDay - 1)
			return m, nil
		case key.Matches(msg, m.keys.Right):
			m.jumpToDay(m.selectedDay + 1)
			return m, nil
		case key.Matches(msg, m.keys.Complete):
			return m.startAction(models.StatusCompleted)
		case key.Matches(msg, m.keys.Skip):
			return m.startAction(models.StatusSkipped)
		}

		if m.focus == FocusDay {
			switch {
			case key.Matches(msg, m.keys.Up):
				m.day.MoveCursor(-1)
				return m, nil
			case key.Matches(msg, m.keys.Down):
				m.day.MoveCursor(1)
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	if m.focus == FocusWeeks {
		before := m.weeks.Index()
		m.weeks, cmd = m.weeks.Update(msg)
		if m.weeks.Index() != before {
			if w, ok := m.weeks.Selected(); ok {
				m.jumpToDay(w.StartDay)
			}
		}
	} else {
		m.day, cmd = m.day.Update(msg)
	}
	return m, cmd
}

func (m Model) startAction(status models.TaskStatus) (tea.Model, tea.Cmd) {
	task, ok := m.day.SelectedTask()
	if !ok {
		return m, nil
	}
	if task.Status.IsTerminal() {
		m.status = task.Title + " is already " + string(task.Status)
		return m, nil
	}
	if task.Status == models.StatusUpcoming {
		m.status = task.Title + " is not due yet"
		return m, nil
	}
	m.confirmForm(status, task)
	return m, m.form.Init()
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = StateBrowse
		m.pending = nil
		return m, nil
	}

	var cmds []tea.Cmd
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	cmds = append(cmds, cmd)

	switch m.form.State {
	case huh.StateCompleted:
		if m.pending != nil && m.pending.Confirmed {
			cmds = append(cmds, m.record(*m.pending))
		}
		m.pending = nil
		m.state = StateBrowse
	case huh.StateAborted:
		m.pending = nil
		m.state = StateBrowse
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) resize() {
	h, v := docStyle.GetFrameSize()
	bodyHeight := max(m.height-v-6, 3)
	weeksWidth := max((m.width-h)/3, 20)
	dayWidth := max(m.width-h-weeksWidth-4, 20)
	m.weeks.SetSize(weeksWidth, bodyHeight)
	m.day.SetSize(dayWidth, bodyHeight)
}
