package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndrdev/totalrecover/internal/models"
	"github.com/yndrdev/totalrecover/internal/phase"
	"github.com/yndrdev/totalrecover/internal/protocols"
	"github.com/yndrdev/totalrecover/internal/storage"
	"github.com/yndrdev/totalrecover/internal/timeline"
)

// Surgery on Friday 2024-03-01; "now" is Monday 2024-03-11, recovery day 10.
var testNow = time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)

func kneeProtocol() models.Protocol {
	return models.Protocol{
		ID:          "knee-v1",
		Name:        "Knee",
		SurgeryType: "knee_replacement",
		Version:     1,
		Tasks: []models.TaskDefinition{
			{ID: "ice", AnchorDay: 0, TaskType: models.TaskTypeMedication, Title: "Ice knee", Position: 0},
			{
				ID: "walk", AnchorDay: 1, TaskType: models.TaskTypeExercise, Title: "Walk 10 minutes", Required: true, Position: 1,
				Recurrence: &models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 1, EndDay: 30},
			},
			{
				ID: "pt", AnchorDay: 4, TaskType: models.TaskTypeExercise, Title: "Physical therapy", Required: true, Position: 2,
				Phase: models.PhaseEarlyRecovery,
				Recurrence: &models.RecurrenceRule{
					Frequency:  models.FrequencyCustom,
					Interval:   1,
					EndDay:     30,
					DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday, time.Friday},
				},
			},
		},
	}
}

func setup(t *testing.T) (*Service, *memStore) {
	t.Helper()
	store := newMemStore()
	p := kneeProtocol()
	require.NoError(t, store.SaveProtocol(p))
	require.NoError(t, store.AddPatient(models.Patient{
		ID:          "p1",
		Name:        "Ana",
		SurgeryDate: "2024-03-01",
		SurgeryType: "knee_replacement",
		ProtocolID:  p.ID,
	}))
	svc := New(store).WithNow(func() time.Time { return testNow })
	return svc, store
}

func TestState(t *testing.T) {
	svc, _ := setup(t)

	st, err := svc.State(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 10, st.CurrentDay)
	assert.Equal(t, phase.GranularityStandard, st.Phases.Name)
	assert.Equal(t, "knee-v1", st.Protocol.ID)
}

func TestStateUsesPatientTimezone(t *testing.T) {
	svc, store := setup(t)
	// 13:00 UTC on the 10th is already the 11th in Auckland.
	svc.WithNow(func() time.Time { return time.Date(2024, 3, 10, 13, 0, 0, 0, time.UTC) })

	st, err := svc.State(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 9, st.CurrentDay)

	p := store.patients["p1"]
	p.Timezone = "Pacific/Auckland"
	store.patients["p1"] = p

	st, err = svc.State(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 10, st.CurrentDay)
}

func TestStateErrors(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	_, err := svc.State(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.AddPatient(models.Patient{ID: "p2", Name: "Ben", SurgeryDate: "2024-03-01", SurgeryType: "hip"}))
	_, err = svc.State(ctx, "p2")
	assert.ErrorIs(t, err, ErrNoProtocol)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = svc.State(cancelled, "p1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComplete(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	data := json.RawMessage(`{"minutes": 12}`)
	inst, err := svc.Complete(ctx, "p1", "walk", 10, data)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, inst.Status)
	require.NotNil(t, inst.CompletedAt)
	assert.True(t, inst.CompletedAt.Equal(testNow))
	assert.NotEmpty(t, inst.ID)

	stored := store.records[models.InstanceKey{PatientID: "p1", TaskDefinitionID: "walk", Day: 10}]
	assert.JSONEq(t, `{"minutes": 12}`, string(stored.CompletionData))
}

func TestCompleteIsAtMostOnce(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Complete(ctx, "p1", "walk", 10, nil)
	require.NoError(t, err)

	_, err = svc.Complete(ctx, "p1", "walk", 10, nil)
	assert.ErrorIs(t, err, ErrTerminalStatus)

	_, err = svc.Skip(ctx, "p1", "walk", 10)
	assert.ErrorIs(t, err, ErrTerminalStatus)
}

func TestRaceLoserSeesTerminalStatus(t *testing.T) {
	svc, store := setup(t)
	key := models.InstanceKey{PatientID: "p1", TaskDefinitionID: "walk", Day: 10}

	// Simulate another writer landing between the snapshot and the insert.
	racing := &racingStore{memStore: store, key: key}
	svc.store = racing

	_, err := svc.Complete(context.Background(), "p1", "walk", 10, nil)
	assert.ErrorIs(t, err, ErrTerminalStatus)
	assert.Equal(t, models.StatusSkipped, store.records[key].Status)
}

type racingStore struct {
	*memStore
	key models.InstanceKey
}

func (r *racingStore) RecordTaskStatus(inst models.TaskInstance) error {
	r.records[r.key] = models.TaskInstance{PatientID: r.key.PatientID, TaskDefinitionID: r.key.TaskDefinitionID, Day: r.key.Day, Status: models.StatusSkipped}
	return r.memStore.RecordTaskStatus(inst)
}

func TestCompleteLateMissedTask(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	store.records[models.InstanceKey{PatientID: "p1", TaskDefinitionID: "walk", Day: 3}] = models.TaskInstance{
		PatientID: "p1", TaskDefinitionID: "walk", Day: 3, Status: models.StatusMissed,
	}

	_, err := svc.Complete(ctx, "p1", "walk", 3, nil)
	require.NoError(t, err)

	day, err := svc.Day(ctx, "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, day.TaskCounts.Completed)
	assert.Equal(t, 0, day.TaskCounts.Missed)
}

func TestRecordRejections(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"future completion", func() error { _, err := svc.Complete(ctx, "p1", "walk", 11, nil); return err }, ErrNotYetDue},
		{"future skip", func() error { _, err := svc.Skip(ctx, "p1", "walk", 12); return err }, ErrNotYetDue},
		{"unknown task", func() error { _, err := svc.Complete(ctx, "p1", "swim", 5, nil); return err }, ErrTaskNotScheduled},
		{"off weekday", func() error { _, err := svc.Complete(ctx, "p1", "pt", 6, nil); return err }, ErrTaskNotScheduled},
		{"after end day", func() error { _, err := svc.Cancel(ctx, "p1", "walk", 31); return err }, ErrTaskNotScheduled},
		{"before anchor", func() error { _, err := svc.Complete(ctx, "p1", "walk", 0, nil); return err }, ErrTaskNotScheduled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), tt.want)
		})
	}

	_, err := svc.Complete(ctx, "p1", "walk", 10, json.RawMessage(`{broken`))
	assert.Error(t, err)
}

func TestCancelFutureTask(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	inst, err := svc.Cancel(ctx, "p1", "pt", 12)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, inst.Status)
	assert.Nil(t, inst.CompletedAt)

	day, err := svc.Day(ctx, "p1", 12)
	require.NoError(t, err)
	assert.Equal(t, 1, day.TaskCounts.Cancelled)
	assert.Equal(t, 1, day.TaskCounts.Total, "only walk remains counted")
}

func TestDay(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Complete(ctx, "p1", "walk", 10, nil)
	require.NoError(t, err)

	day, err := svc.Today(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 10, day.Day)
	assert.Equal(t, "2024-03-11", day.Date)
	assert.Equal(t, models.PhaseEarlyRecovery, day.Phase)
	require.Len(t, day.Tasks, 2)
	assert.Equal(t, "walk", day.Tasks[0].TaskDefinitionID)
	assert.Equal(t, "pt", day.Tasks[1].TaskDefinitionID)
	assert.Equal(t, models.TaskCounts{Total: 2, Completed: 1, Pending: 1}, day.TaskCounts)
	assert.Equal(t, models.DayStatusPending, day.DayStatus)

	surgery, err := svc.Day(ctx, "p1", 0)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseImmediatePostOp, surgery.Phase)
	require.Len(t, surgery.Tasks, 1)
	assert.Equal(t, models.StatusPending, surgery.Tasks[0].Status, "optional tasks are never missed")
}

func TestDayOutOfRange(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.Day(context.Background(), "p1", 250)
	var rangeErr *timeline.DayOutOfRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, 250, rangeErr.Day)
	assert.Equal(t, -45, rangeErr.Start)
	assert.Equal(t, 200, rangeErr.End)
}

func TestTimeline(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.AddMessage(ctx, "p1", models.RolePatient, "Knee is swollen")
	require.NoError(t, err)

	tl, err := svc.Timeline(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, tl.Days, 246)
	assert.Len(t, tl.Weeks, 36)
	assert.Equal(t, 10, tl.CurrentDay)

	today, err := tl.Day(10)
	require.NoError(t, err)
	assert.True(t, today.HasConversation)

	yesterday, err := tl.Day(9)
	require.NoError(t, err)
	assert.False(t, yesterday.HasConversation)
	assert.Equal(t, models.DayStatusMissed, yesterday.DayStatus)

	week, err := tl.FindWeekContaining(10)
	require.NoError(t, err)
	assert.Equal(t, 1, week.Number)
	assert.True(t, week.HasNotifications)
}

func TestCompleteLosesRaceToConcurrentSkip(t *testing.T) {
	svc, store := setup(t)
	store.beforeRecord = func(inst models.TaskInstance) {
		skipped := inst
		skipped.ID = "other-writer"
		skipped.Status = models.StatusSkipped
		store.records[inst.Key()] = skipped
	}

	inst, err := svc.Complete(context.Background(), "p1", "walk", 10, nil)
	require.ErrorIs(t, err, ErrTerminalStatus)
	assert.Contains(t, err.Error(), "is skipped")
	assert.Equal(t, "other-writer", inst.ID)
	assert.Equal(t, models.StatusSkipped, inst.Status)
}

func TestTimelineRange(t *testing.T) {
	svc, _ := setup(t)

	tl, err := svc.TimelineRange(context.Background(), "p1", 0, 13)
	require.NoError(t, err)
	assert.Len(t, tl.Weeks, 2)

	_, err = svc.TimelineRange(context.Background(), "p1", 5, 1)
	assert.Error(t, err)
}

func TestCatchUp(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	for day := 1; day <= 9; day++ {
		_, err := svc.Complete(ctx, "p1", "walk", day, nil)
		require.NoError(t, err)
	}

	titles, err := svc.CatchUp(ctx, "p1")
	require.NoError(t, err)
	// PT on days 5 and 7 was missed; ice is optional and today's tasks are still pending.
	assert.Equal(t, []string{"Physical therapy"}, titles)
}

func TestCatchUpOrdersByFirstMiss(t *testing.T) {
	svc, _ := setup(t)

	titles, err := svc.CatchUp(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Walk 10 minutes", "Physical therapy"}, titles)
}

func TestCatchUpBeforeTimeline(t *testing.T) {
	svc, _ := setup(t)
	svc.WithNow(func() time.Time { return time.Date(2023, 12, 1, 12, 0, 0, 0, time.UTC) })

	titles, err := svc.CatchUp(context.Background(), "p1")
	require.NoError(t, err)
	assert.Empty(t, titles)
}

func TestStoredPhaseTableOverridesGranularity(t *testing.T) {
	svc, store := setup(t)
	store.settings.PhaseGranularity = phase.GranularityFine

	st, err := svc.State(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, phase.GranularityFine, st.Phases.Name)

	custom := phase.Table{
		Name: "knee",
		Ranges: []phase.Range{
			{Phase: models.PhasePreSurgery, Start: -45, End: -1},
			{Phase: models.PhaseImmediatePostOp, Start: 0, End: 10},
			{Phase: models.PhaseEarlyRecovery, Start: 11, End: 30},
		},
	}
	require.NoError(t, store.SavePhaseTable("knee_replacement", custom))

	day, err := svc.Day(context.Background(), "p1", 10)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseImmediatePostOp, day.Phase)
	// PT is limited to early recovery, which now starts on day 11.
	require.Len(t, day.Tasks, 1)
	assert.Equal(t, "walk", day.Tasks[0].TaskDefinitionID)
}

func TestAddMessage(t *testing.T) {
	svc, store := setup(t)

	msg, err := svc.AddMessage(context.Background(), "p1", models.RoleProvider, "How is the swelling?")
	require.NoError(t, err)
	assert.Equal(t, 10, msg.Day)
	assert.NotEmpty(t, msg.ID)
	assert.Len(t, store.messages, 1)
}

func TestAssign(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	v2 := kneeProtocol()
	v2.ID = "knee-v2"
	v2.Version = 2
	require.NoError(t, store.SaveProtocol(v2))
	require.NoError(t, store.AddPatient(models.Patient{ID: "p2", Name: "Ben", SurgeryDate: "2024-04-01", SurgeryType: "knee_replacement"}))

	p, err := svc.Assign(ctx, "p2", "")
	require.NoError(t, err)
	assert.Equal(t, "knee-v2", p.ID)
	assert.Equal(t, "knee-v2", store.patients["p2"].ProtocolID)

	p, err = svc.Assign(ctx, "p2", "knee-v1")
	require.NoError(t, err)
	assert.Equal(t, "knee-v1", p.ID)

	_, err = svc.Assign(ctx, "p2", "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestImport(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	bundle, err := protocols.Load("../protocols/testdata/knee_replacement.yaml")
	require.NoError(t, err)

	result, err := svc.Import(ctx, bundle)
	require.NoError(t, err)
	assert.False(t, result.HasErrors())

	saved, ok := store.protocols["knee_replacement-v2"]
	require.True(t, ok)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.Contains(t, store.tables, "knee_replacement")
}

func TestImportRejectsInvalidProtocol(t *testing.T) {
	svc, store := setup(t)

	bad := kneeProtocol()
	bad.ID = "broken"
	bad.Tasks = append(bad.Tasks, models.TaskDefinition{
		ID: "walk", AnchorDay: 2, TaskType: models.TaskTypeExercise, Title: "Walk again",
	})

	result, err := svc.Import(context.Background(), &protocols.Bundle{Protocol: bad})
	assert.ErrorIs(t, err, ErrInvalidProtocol)
	assert.True(t, result.HasErrors())
	assert.NotContains(t, store.protocols, "broken")
}

func TestValidateUsesGranularityTable(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	// Day 40 is never early recovery, so the filter can never match.
	p := kneeProtocol()
	p.Tasks = []models.TaskDefinition{
		{ID: "late", AnchorDay: 40, TaskType: models.TaskTypeExercise, Title: "Stairs", Phase: models.PhaseEarlyRecovery},
	}
	result, err := svc.Validate(ctx, &protocols.Bundle{Protocol: p})
	require.NoError(t, err)
	assert.True(t, result.HasConflicts())

	table, err := svc.PhaseTable("knee_replacement")
	require.NoError(t, err)
	assert.Equal(t, phase.Standard(), table)

	store.settings.PhaseGranularity = phase.GranularityFine
	table, err = svc.PhaseTable("knee_replacement")
	require.NoError(t, err)
	assert.Equal(t, phase.Fine(), table)
}
