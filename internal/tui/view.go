package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.state == StateConfirm && m.form != nil {
		return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, m.viewHeader(), "", m.form.View()))
	}

	weeksPane, dayPane := paneStyle, paneStyle
	if m.focus == FocusWeeks {
		weeksPane = focusedPaneStyle
	} else {
		dayPane = focusedPaneStyle
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		weeksPane.Render(m.weeks.View()),
		dayPane.Render(m.day.View()),
	)

	footer := ""
	switch {
	case m.err != nil:
		footer = dangerStyle.Render("Error: " + m.err.Error())
	case m.status != "":
		footer = statusStyle.Render(m.status)
	}

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.viewHeader(),
		body,
		footer,
		m.help.View(m),
	))
}

func (m Model) viewHeader() string {
	sum := m.timeline.Summary()
	return titleStyle.Render(fmt.Sprintf("%s · day %d · %.0f%% compliance · weeks page %d/%d",
		m.patient, m.timeline.CurrentDay, sum.Compliance, m.page+1, m.pages))
}
