// Package tracker loads patient state from storage and runs the scheduling
// core against it. It is the only place that records task completions.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yndrdev/totalrecover/internal/logger"
	"github.com/yndrdev/totalrecover/internal/models"
	"github.com/yndrdev/totalrecover/internal/phase"
	"github.com/yndrdev/totalrecover/internal/protocols"
	"github.com/yndrdev/totalrecover/internal/scheduler"
	"github.com/yndrdev/totalrecover/internal/storage"
	"github.com/yndrdev/totalrecover/internal/timeline"
	"github.com/yndrdev/totalrecover/internal/utils"
	"github.com/yndrdev/totalrecover/internal/validation"
)

var (
	// ErrNotYetDue is returned when completing or skipping a task on a day
	// that has not arrived.
	ErrNotYetDue = errors.New("task is not due yet")
	// ErrTerminalStatus is returned when the task instance already holds a
	// completed, skipped or cancelled record.
	ErrTerminalStatus = errors.New("task instance already has a final status")
	// ErrTaskNotScheduled is returned for a task the protocol does not
	// schedule on the requested day.
	ErrTaskNotScheduled = errors.New("task is not scheduled on that day")
	// ErrNoProtocol is returned for a patient without an assigned protocol.
	ErrNoProtocol = errors.New("patient has no protocol assigned")
	// ErrInvalidProtocol is returned when an import fails validation.
	ErrInvalidProtocol = errors.New("protocol failed validation")
)

type Service struct {
	store storage.Provider
	sched *scheduler.Scheduler
	now   func() time.Time
}

func New(store storage.Provider) *Service {
	return &Service{
		store: store,
		sched: scheduler.New(),
		now:   time.Now,
	}
}

// WithNow overrides the wall clock.
func (s *Service) WithNow(fn func() time.Time) *Service {
	s.now = fn
	return s
}

// PatientState is everything the core needs about one patient.
type PatientState struct {
	Patient     models.Patient
	Protocol    models.Protocol
	Settings    models.Settings
	Clock       *utils.Clock
	SurgeryDate time.Time
	CurrentDay  int
	Phases      phase.Table
}

// State loads a patient, their protocol, and the clock and phase table that
// apply to them.
func (s *Service) State(ctx context.Context, patientID string) (*PatientState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	patient, err := s.store.GetPatient(patientID)
	if err != nil {
		return nil, err
	}
	if patient.ProtocolID == "" {
		return nil, fmt.Errorf("patient %s: %w", patient.Name, ErrNoProtocol)
	}
	protocol, err := s.store.GetProtocol(patient.ProtocolID)
	if err != nil {
		return nil, fmt.Errorf("failed to load protocol for patient %s: %w", patient.Name, err)
	}
	settings, err := s.store.GetSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	tz := patient.Timezone
	if tz == "" {
		tz = settings.Timezone
	}
	clock, err := utils.NewClockForTimezone(tz)
	if err != nil {
		return nil, err
	}
	clock = clock.WithNow(s.now)

	surgeryDate, err := clock.ParseSurgeryDate(patient.SurgeryDate)
	if err != nil {
		return nil, fmt.Errorf("patient %s has an invalid surgery date: %w", patient.Name, err)
	}

	phases, err := s.phasesFor(patient.SurgeryType, settings)
	if err != nil {
		return nil, err
	}

	return &PatientState{
		Patient:     patient,
		Protocol:    protocol,
		Settings:    settings,
		Clock:       clock,
		SurgeryDate: surgeryDate,
		CurrentDay:  clock.Today(surgeryDate),
		Phases:      phases,
	}, nil
}

// PhaseTable returns the table patients with the surgery type are
// classified with.
func (s *Service) PhaseTable(surgeryType string) (phase.Table, error) {
	settings, err := s.store.GetSettings()
	if err != nil {
		return phase.Table{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return s.phasesFor(surgeryType, settings)
}

func (s *Service) phasesFor(surgeryType string, settings models.Settings) (phase.Table, error) {
	def, err := phase.ForGranularity(settings.PhaseGranularity)
	if err != nil {
		return phase.Table{}, err
	}
	resolver := phase.NewResolver(def)

	stored, err := s.store.GetPhaseTables()
	if err != nil {
		return phase.Table{}, fmt.Errorf("failed to load phase tables: %w", err)
	}
	if table, ok := stored[surgeryType]; ok {
		if err := resolver.Register(surgeryType, table); err != nil {
			return phase.Table{}, err
		}
	}
	return resolver.For(surgeryType), nil
}

func (s *Service) snapshot(st *PatientState, start, end int) (scheduler.Snapshot, error) {
	records, err := s.store.GetTaskRecords(st.Patient.ID, start, end)
	if err != nil {
		return scheduler.Snapshot{}, fmt.Errorf("failed to load task records: %w", err)
	}
	return scheduler.Snapshot{
		PatientID:   st.Patient.ID,
		SurgeryDate: st.SurgeryDate,
		CurrentDay:  st.CurrentDay,
		Phases:      st.Phases,
		Records:     scheduler.IndexRecords(records),
	}, nil
}

// Timeline builds the patient's timeline over the configured range.
func (s *Service) Timeline(ctx context.Context, patientID string) (*timeline.Timeline, error) {
	st, err := s.State(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return s.build(st, st.Settings.TimelineStart, st.Settings.TimelineEnd)
}

// TimelineRange builds the patient's timeline over [start, end].
func (s *Service) TimelineRange(ctx context.Context, patientID string, start, end int) (*timeline.Timeline, error) {
	st, err := s.State(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return s.build(st, start, end)
}

func (s *Service) build(st *PatientState, start, end int) (*timeline.Timeline, error) {
	snap, err := s.snapshot(st, start, end)
	if err != nil {
		return nil, err
	}
	messageDays, err := s.store.GetMessageDays(st.Patient.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load message days: %w", err)
	}
	return timeline.Build(s.sched, st.Protocol, snap, start, end, func(day int) bool {
		return messageDays[day]
	})
}

// Day summarizes a single day. Days outside the configured timeline range
// fail with a *timeline.DayOutOfRangeError.
func (s *Service) Day(ctx context.Context, patientID string, day int) (models.DaySummary, error) {
	st, err := s.State(ctx, patientID)
	if err != nil {
		return models.DaySummary{}, err
	}
	if day < st.Settings.TimelineStart || day > st.Settings.TimelineEnd {
		return models.DaySummary{}, &timeline.DayOutOfRangeError{Day: day, Start: st.Settings.TimelineStart, End: st.Settings.TimelineEnd}
	}
	tl, err := s.build(st, day, day)
	if err != nil {
		return models.DaySummary{}, err
	}
	return tl.Day(day)
}

// Today summarizes the patient's current recovery day.
func (s *Service) Today(ctx context.Context, patientID string) (models.DaySummary, error) {
	st, err := s.State(ctx, patientID)
	if err != nil {
		return models.DaySummary{}, err
	}
	return s.Day(ctx, patientID, st.CurrentDay)
}

// CatchUp returns the titles of missed tasks from the start of the timeline
// up to today, each title once, in the order first missed.
func (s *Service) CatchUp(ctx context.Context, patientID string) ([]string, error) {
	st, err := s.State(ctx, patientID)
	if err != nil {
		return nil, err
	}
	start := st.Settings.TimelineStart
	end := st.CurrentDay
	if end > st.Settings.TimelineEnd {
		end = st.Settings.TimelineEnd
	}
	if end < start {
		return []string{}, nil
	}

	tl, err := s.build(st, start, end)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	titles := make([]string, 0)
	for _, title := range tl.Summary().MissedTasks {
		if seen[title] {
			continue
		}
		seen[title] = true
		titles = append(titles, title)
	}
	return titles, nil
}

// Complete records a completion with optional structured completion data.
func (s *Service) Complete(ctx context.Context, patientID, taskID string, day int, data json.RawMessage) (models.TaskInstance, error) {
	return s.record(ctx, patientID, taskID, day, models.StatusCompleted, data)
}

// Skip records that the patient chose not to do a task.
func (s *Service) Skip(ctx context.Context, patientID, taskID string, day int) (models.TaskInstance, error) {
	return s.record(ctx, patientID, taskID, day, models.StatusSkipped, nil)
}

// Cancel records that a task no longer applies. Unlike Complete and Skip it
// may target a day that has not arrived.
func (s *Service) Cancel(ctx context.Context, patientID, taskID string, day int) (models.TaskInstance, error) {
	return s.record(ctx, patientID, taskID, day, models.StatusCancelled, nil)
}

func (s *Service) record(ctx context.Context, patientID, taskID string, day int, status models.TaskStatus, data json.RawMessage) (models.TaskInstance, error) {
	st, err := s.State(ctx, patientID)
	if err != nil {
		return models.TaskInstance{}, err
	}

	def, ok := st.Protocol.Task(taskID)
	if !ok {
		return models.TaskInstance{}, fmt.Errorf("task %q is not part of protocol %s: %w", taskID, st.Protocol.Name, ErrTaskNotScheduled)
	}
	snap, err := s.snapshot(st, day, day)
	if err != nil {
		return models.TaskInstance{}, err
	}
	if !s.sched.IsScheduled(def, day, snap) {
		return models.TaskInstance{}, fmt.Errorf("task %q on day %d: %w", taskID, day, ErrTaskNotScheduled)
	}
	if status != models.StatusCancelled && day > st.CurrentDay {
		return models.TaskInstance{}, fmt.Errorf("task %q on day %d (today is day %d): %w", taskID, day, st.CurrentDay, ErrNotYetDue)
	}
	if len(data) > 0 && !json.Valid(data) {
		return models.TaskInstance{}, fmt.Errorf("completion data for task %q is not valid JSON", taskID)
	}

	key := models.InstanceKey{PatientID: patientID, TaskDefinitionID: taskID, Day: day}
	if existing, ok := snap.Records[key]; ok && existing.Status.IsTerminal() {
		return existing, fmt.Errorf("task %q on day %d is %s: %w", taskID, day, existing.Status, ErrTerminalStatus)
	}

	now := s.now().UTC()
	inst := models.TaskInstance{
		ID:               uuid.NewString(),
		PatientID:        patientID,
		TaskDefinitionID: taskID,
		Day:              day,
		Title:            def.Title,
		TaskType:         def.TaskType,
		Required:         def.Required,
		Status:           status,
		RecordedAt:       &now,
	}
	if status == models.StatusCompleted {
		inst.CompletedAt = &now
		inst.CompletionData = data
	}

	if err := s.store.RecordTaskStatus(inst); err != nil {
		if errors.Is(err, storage.ErrAlreadyRecorded) {
			logger.Warn("duplicate task status rejected", "patient", patientID, "task", taskID, "day", day, "status", status)
			// Another writer got there first; report what it recorded.
			existing, gerr := s.store.GetTaskRecord(key)
			if gerr != nil {
				return models.TaskInstance{}, fmt.Errorf("task %q on day %d: %w", taskID, day, ErrTerminalStatus)
			}
			return existing, fmt.Errorf("task %q on day %d is %s: %w", taskID, day, existing.Status, ErrTerminalStatus)
		}
		return models.TaskInstance{}, err
	}

	logger.Info("recorded task status", "patient", patientID, "task", taskID, "day", day, "status", status)
	return inst, nil
}

// AddMessage files a message under the patient's current recovery day.
func (s *Service) AddMessage(ctx context.Context, patientID string, role models.MessageRole, body string) (models.Message, error) {
	st, err := s.State(ctx, patientID)
	if err != nil {
		return models.Message{}, err
	}
	msg := models.Message{
		ID:        uuid.NewString(),
		PatientID: patientID,
		Day:       st.CurrentDay,
		Role:      role,
		Body:      body,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.AddMessage(msg); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// Assign binds a protocol to a patient. An empty protocolID picks the latest
// protocol for the patient's surgery type.
func (s *Service) Assign(ctx context.Context, patientID, protocolID string) (models.Protocol, error) {
	if err := ctx.Err(); err != nil {
		return models.Protocol{}, err
	}
	patient, err := s.store.GetPatient(patientID)
	if err != nil {
		return models.Protocol{}, err
	}

	var protocol models.Protocol
	if protocolID == "" {
		protocol, err = s.store.GetLatestProtocol(patient.SurgeryType)
	} else {
		protocol, err = s.store.GetProtocol(protocolID)
	}
	if err != nil {
		return models.Protocol{}, err
	}
	if protocol.SurgeryType != patient.SurgeryType {
		logger.Warn("assigning protocol for a different surgery type",
			"patient", patient.ID, "patient_surgery", patient.SurgeryType, "protocol_surgery", protocol.SurgeryType)
	}

	patient.ProtocolID = protocol.ID
	if err := s.store.UpdatePatient(patient); err != nil {
		return models.Protocol{}, err
	}
	return protocol, nil
}

// Validate checks a parsed protocol file against the phase table its
// patients would be classified with: the file's own table for the surgery
// type, else the stored or built-in one.
func (s *Service) Validate(ctx context.Context, bundle *protocols.Bundle) (validation.ValidationResult, error) {
	if err := ctx.Err(); err != nil {
		return validation.ValidationResult{}, err
	}
	table, ok := bundle.PhaseTables[bundle.Protocol.SurgeryType]
	if !ok {
		var err error
		if table, err = s.PhaseTable(bundle.Protocol.SurgeryType); err != nil {
			return validation.ValidationResult{}, err
		}
	}
	return validation.New().WithPhases(table).ValidateProtocol(bundle.Protocol), nil
}

// Import validates a parsed protocol file and stores it with its phase
// tables. Nothing is stored when validation reports errors.
func (s *Service) Import(ctx context.Context, bundle *protocols.Bundle) (validation.ValidationResult, error) {
	result, err := s.Validate(ctx, bundle)
	if err != nil {
		return result, err
	}
	if result.HasErrors() {
		logger.Warn("protocol failed validation", "protocol", bundle.Protocol.ID, "conflicts", len(result.Conflicts))
		return result, fmt.Errorf("%w: %v", ErrInvalidProtocol, result.Err())
	}

	for surgeryType, t := range bundle.PhaseTables {
		if err := s.store.SavePhaseTable(surgeryType, t); err != nil {
			return result, err
		}
	}
	p := bundle.Protocol
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	if err := s.store.SaveProtocol(p); err != nil {
		return result, err
	}

	logger.Info("imported protocol", "protocol", p.ID, "tasks", len(p.Tasks), "phase_tables", len(bundle.PhaseTables))
	return result, nil
}
