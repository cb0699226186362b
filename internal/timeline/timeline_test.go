package timeline

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndrdev/totalrecover/internal/models"
	"github.com/yndrdev/totalrecover/internal/scheduler"
)

func testProtocol() models.Protocol {
	return models.Protocol{
		ID: "proto-1",
		Tasks: []models.TaskDefinition{
			{ID: "prehab", AnchorDay: -14, Title: "Prehab exercises", Required: true,
				Recurrence: &models.RecurrenceRule{Frequency: models.FrequencyWeekly, Interval: 1, EndDay: -1}},
			{ID: "walk", AnchorDay: 1, Title: "Walk", Required: true,
				Recurrence: &models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 1, EndDay: 30}},
			{ID: "survey", AnchorDay: 90, Title: "Outcome survey", Required: true},
		},
	}
}

func buildDefault(t *testing.T, currentDay int, conversations map[int]bool) *Timeline {
	t.Helper()
	snap := scheduler.Snapshot{
		PatientID:   "p1",
		SurgeryDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		CurrentDay:  currentDay,
	}
	tl, err := Build(scheduler.New(), testProtocol(), snap, -45, 200, func(day int) bool {
		return conversations[day]
	})
	require.NoError(t, err)
	return tl
}

func TestWeekNumber(t *testing.T) {
	tests := map[int]int{
		-45: -7,
		-43: -7,
		-42: -6,
		-8:  -2,
		-7:  -1,
		-1:  -1,
		0:   0,
		6:   0,
		7:   1,
		200: 28,
	}
	for day, want := range tests {
		assert.Equal(t, want, WeekNumber(day), "day %d", day)
	}
}

func TestBuild_CoversRange(t *testing.T) {
	tl := buildDefault(t, 10, map[int]bool{3: true})

	require.Len(t, tl.Days, 246)
	assert.Equal(t, -45, tl.Days[0].Day)
	assert.Equal(t, 200, tl.Days[len(tl.Days)-1].Day)
	assert.Equal(t, "2023-12-01", tl.Days[0].Date)

	day3, err := tl.Day(3)
	require.NoError(t, err)
	assert.True(t, day3.HasConversation)
	assert.Equal(t, models.PhaseImmediatePostOp, day3.Phase)

	day4, err := tl.Day(4)
	require.NoError(t, err)
	assert.False(t, day4.HasConversation)
}

func TestBuild_InvalidRange(t *testing.T) {
	_, err := Build(scheduler.New(), testProtocol(), scheduler.Snapshot{}, 10, 5, nil)
	assert.Error(t, err)
}

func TestGroupByWeek_Partitions(t *testing.T) {
	tl := buildDefault(t, 0, nil)

	require.Len(t, tl.Weeks, 36)
	seen := make(map[int]int)
	prevEnd := tl.Start - 1
	for _, w := range tl.Weeks {
		assert.Equal(t, prevEnd+1, w.StartDay, "week %d must start right after the previous one", w.Number)
		assert.Equal(t, w.EndDay-w.StartDay+1, len(w.Days))
		for _, d := range w.Days {
			seen[d.Day]++
			assert.Equal(t, w.Number, WeekNumber(d.Day))
		}
		prevEnd = w.EndDay
	}
	assert.Equal(t, tl.End, prevEnd)

	for day := -45; day <= 200; day++ {
		assert.Equal(t, 1, seen[day], "day %d", day)
	}

	first := tl.Weeks[0]
	assert.Equal(t, -7, first.Number)
	assert.Equal(t, -45, first.StartDay)
	assert.Equal(t, -43, first.EndDay)

	zero, err := tl.FindWeekContaining(0)
	require.NoError(t, err)
	assert.Equal(t, 0, zero.StartDay)
	assert.Equal(t, 6, zero.EndDay)
}

func TestGroupByWeek_Notifications(t *testing.T) {
	tl := buildDefault(t, 3, nil)

	week0, err := tl.FindWeekContaining(3)
	require.NoError(t, err)
	assert.True(t, week0.HasNotifications, "walk on day 3 is pending and due")

	week1, err := tl.FindWeekContaining(10)
	require.NoError(t, err)
	assert.False(t, week1.HasNotifications, "future weeks never notify")
	assert.Greater(t, week1.TaskCounts.Pending, 0)

	prehabWeek, err := tl.FindWeekContaining(-14)
	require.NoError(t, err)
	assert.False(t, prehabWeek.HasNotifications, "past required tasks are missed, not pending")
	assert.Equal(t, 1, prehabWeek.TaskCounts.Missed)
}

func TestFindWeekContaining_OutOfRange(t *testing.T) {
	tl := buildDefault(t, 0, nil)

	_, err := tl.FindWeekContaining(201)
	var rangeErr *DayOutOfRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, 201, rangeErr.Day)
	assert.Equal(t, -45, rangeErr.Start)
	assert.Equal(t, 200, rangeErr.End)

	_, err = tl.Day(-46)
	assert.True(t, errors.As(err, &rangeErr))
}

func TestFindWeekContaining_EveryDay(t *testing.T) {
	tl := buildDefault(t, 0, nil)
	for day := tl.Start; day <= tl.End; day++ {
		w, err := tl.FindWeekContaining(day)
		require.NoError(t, err)
		assert.True(t, day >= w.StartDay && day <= w.EndDay, "day %d not in week %d", day, w.Number)
	}
}

func TestPage(t *testing.T) {
	tl := buildDefault(t, 0, nil)

	weeks, pages := tl.Page(0, 4)
	assert.Equal(t, 9, pages)
	require.Len(t, weeks, 4)
	assert.Equal(t, -7, weeks[0].Number)

	last, _ := tl.Page(8, 4)
	require.Len(t, last, 4)
	assert.Equal(t, 28, last[3].Number)

	none, _ := tl.Page(9, 4)
	assert.Nil(t, none)
}

func TestSummary(t *testing.T) {
	tl := buildDefault(t, 0, nil)
	summary := tl.Summary()

	// Two prehab sessions (-14, -7) were missed and nothing was completed.
	assert.Equal(t, 2, summary.TaskCounts.Missed)
	assert.Equal(t, 0.0, summary.Compliance)
	assert.Equal(t, []string{"Prehab exercises", "Prehab exercises"}, summary.MissedTasks)
}
