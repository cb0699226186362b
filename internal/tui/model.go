package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/yndrdev/totalrecover/internal/models"
	"github.com/yndrdev/totalrecover/internal/timeline"
	"github.com/yndrdev/totalrecover/internal/tracker"
	"github.com/yndrdev/totalrecover/internal/tui/components/day"
	"github.com/yndrdev/totalrecover/internal/tui/components/weeks"
)

const weeksPerPage = 4

type SessionState int

const (
	StateBrowse SessionState = iota
	StateConfirm
)

type Focus int

const (
	FocusWeeks Focus = iota
	FocusDay
)

// pendingAction is a status change waiting on confirmation.
type pendingAction struct {
	Status    models.TaskStatus
	Task      models.TaskInstance
	Confirmed bool
}

// recordedMsg reports the outcome of a status change.
type recordedMsg struct {
	Task models.TaskInstance
	Err  error
}

type Model struct {
	ctx       context.Context
	svc       *tracker.Service
	patientID string
	patient   string

	timeline    *timeline.Timeline
	page        int
	pages       int
	selectedDay int

	state    SessionState
	focus    Focus
	keys     KeyMap
	help     help.Model
	weeks    weeks.Model
	day      day.Model
	form     *huh.Form
	pending  *pendingAction
	status   string
	err      error
	quitting bool
	width    int
	height   int
}

// NewModel loads a patient's timeline and opens it on the current day.
func NewModel(ctx context.Context, svc *tracker.Service, patientID string) (Model, error) {
	st, err := svc.State(ctx, patientID)
	if err != nil {
		return Model{}, err
	}
	m := Model{
		ctx:       ctx,
		svc:       svc,
		patientID: patientID,
		patient:   st.Patient.Name,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		weeks:     weeks.New(nil, 0, 0, 0),
		day:       day.New(0, 0),
	}
	if err := m.reload(); err != nil {
		return Model{}, err
	}
	m.jumpToDay(m.timeline.CurrentDay)
	return m, nil
}

// reload rebuilds the timeline, keeping the page and selected day.
func (m *Model) reload() error {
	tl, err := m.svc.Timeline(m.ctx, m.patientID)
	if err != nil {
		return err
	}
	m.timeline = tl
	_, m.pages = tl.Page(0, weeksPerPage)
	m.showPage()
	if d, err := tl.Day(m.selectedDay); err == nil {
		m.day.SetDay(d)
	}
	return nil
}

func (m *Model) showPage() {
	ws, _ := m.timeline.Page(m.page, weeksPerPage)
	selected := 0
	if idx, err := m.timeline.WeekIndex(m.selectedDay); err == nil && idx/weeksPerPage == m.page {
		selected = idx % weeksPerPage
	}
	m.weeks.SetWeeks(ws, m.timeline.CurrentDay, selected)
}

// jumpToDay selects day and turns to the page holding its week. Days
// outside the timeline are clamped to its edges.
func (m *Model) jumpToDay(n int) {
	n = min(max(n, m.timeline.Start), m.timeline.End)
	m.selectedDay = n
	idx, _ := m.timeline.WeekIndex(n)
	m.page = idx / weeksPerPage
	m.showPage()
	if d, err := m.timeline.Day(n); err == nil {
		m.day.SetDay(d)
	}
}

func (m *Model) turnPage(delta int) {
	page := m.page + delta
	if page < 0 || page >= m.pages {
		return
	}
	m.page = page
	ws, _ := m.timeline.Page(page, weeksPerPage)
	m.jumpToDay(ws[0].StartDay)
}

// confirmForm asks before a status change; completed and skipped records
// are final.
func (m *Model) confirmForm(status models.TaskStatus, task models.TaskInstance) {
	m.pending = &pendingAction{Status: status, Task: task}
	verb := "Complete"
	if status == models.StatusSkipped {
		verb = "Skip"
	}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("%s %q on day %d?", verb, task.Title, task.Day)).
				Description("This cannot be undone.").
				Affirmative(verb).
				Negative("Cancel").
				Value(&m.pending.Confirmed),
		),
	)
	m.state = StateConfirm
}

// record applies a confirmed status change.
func (m Model) record(p pendingAction) tea.Cmd {
	return func() tea.Msg {
		var (
			inst models.TaskInstance
			err  error
		)
		switch p.Status {
		case models.StatusCompleted:
			inst, err = m.svc.Complete(m.ctx, m.patientID, p.Task.TaskDefinitionID, p.Task.Day, nil)
		case models.StatusSkipped:
			inst, err = m.svc.Skip(m.ctx, m.patientID, p.Task.TaskDefinitionID, p.Task.Day)
		default:
			err = fmt.Errorf("unsupported status %s", p.Status)
		}
		return recordedMsg{Task: inst, Err: err}
	}
}

func (m Model) ShortHelp() []key.Binding {
	return m.keys.ShortHelp()
}

func (m Model) FullHelp() [][]key.Binding {
	return m.keys.FullHelp()
}

func (m Model) Init() tea.Cmd {
	return nil
}
