package utils

import (
	"testing"
	"time"

	"github.com/yndrdev/totalrecover/internal/models"
)

func TestIsActiveOn_Daily(t *testing.T) {
	task := models.TaskDefinition{
		ID:        "walk",
		AnchorDay: 1,
		Recurrence: &models.RecurrenceRule{
			Frequency: models.FrequencyDaily,
			Interval:  1,
			EndDay:    30,
		},
	}

	for day := 1; day <= 30; day++ {
		if !IsActiveOn(task, day) {
			t.Errorf("Expected task to be active on day %d", day)
		}
	}
	if IsActiveOn(task, 0) {
		t.Error("Expected task to be inactive on day 0")
	}
	if IsActiveOn(task, 31) {
		t.Error("Expected task to be inactive on day 31")
	}
}

func TestIsActiveOn_DailyInterval(t *testing.T) {
	task := models.TaskDefinition{
		AnchorDay: -3,
		Recurrence: &models.RecurrenceRule{
			Frequency: models.FrequencyDaily,
			Interval:  3,
			EndDay:    9,
		},
	}

	want := []int{-3, 0, 3, 6, 9}
	got := Occurrences(task, -10, 20)
	if len(got) != len(want) {
		t.Fatalf("Expected occurrences %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected occurrences %v, got %v", want, got)
			break
		}
	}
}

func TestIsActiveOn_Weekly(t *testing.T) {
	task := models.TaskDefinition{
		AnchorDay: 0,
		Recurrence: &models.RecurrenceRule{
			Frequency: models.FrequencyWeekly,
			Interval:  2,
			EndDay:    60,
		},
	}

	for _, day := range []int{0, 14, 28, 42, 56} {
		if !IsActiveOn(task, day) {
			t.Errorf("Expected task to be active on day %d", day)
		}
	}
	for _, day := range []int{7, 21, 70} {
		if IsActiveOn(task, day) {
			t.Errorf("Expected task to be inactive on day %d", day)
		}
	}
}

func TestIsActiveOn_NoRecurrence(t *testing.T) {
	task := models.TaskDefinition{AnchorDay: 3}

	if !IsActiveOn(task, 3) {
		t.Error("Expected base occurrence on anchor day")
	}
	if IsActiveOn(task, 4) || IsActiveOn(task, 2) {
		t.Error("Expected no other occurrences without a recurrence rule")
	}
}

func TestIsActiveOn_MonthlyOnlyBaseDay(t *testing.T) {
	task := models.TaskDefinition{
		AnchorDay: 0,
		Recurrence: &models.RecurrenceRule{
			Frequency: models.FrequencyMonthly,
			Interval:  1,
			EndDay:    200,
		},
	}

	got := Occurrences(task, -45, 200)
	if len(got) != 1 || got[0] != 0 {
		t.Errorf("Expected only the base occurrence, got %v", got)
	}
}

func TestIsActiveOn_CustomWithoutWeekdays(t *testing.T) {
	task := models.TaskDefinition{
		AnchorDay: 5,
		Recurrence: &models.RecurrenceRule{
			Frequency: models.FrequencyCustom,
			Interval:  1,
			EndDay:    50,
		},
	}

	if !IsActiveOn(task, 5) {
		t.Error("Expected base occurrence")
	}
	if IsActiveOn(task, 6) {
		t.Error("Expected custom rule without weekdays to stop at the base day")
	}
}

func TestIsActiveOn_ZeroIntervalTreatedAsOne(t *testing.T) {
	task := models.TaskDefinition{
		AnchorDay: 0,
		Recurrence: &models.RecurrenceRule{
			Frequency: models.FrequencyDaily,
			Interval:  0,
			EndDay:    5,
		},
	}

	if got := Occurrences(task, 0, 10); len(got) != 6 {
		t.Errorf("Expected 6 occurrences, got %v", got)
	}

	task.Recurrence.Interval = -2
	task.Recurrence.Frequency = models.FrequencyWeekly
	task.Recurrence.EndDay = 20
	if !IsActiveOn(task, 7) || !IsActiveOn(task, 14) {
		t.Error("Expected negative weekly interval to behave like interval 1")
	}
}

func TestIsActiveOnDate_Weekdays(t *testing.T) {
	// 2024-01-15 is a Monday.
	surgery := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	task := models.TaskDefinition{
		AnchorDay: 1,
		Recurrence: &models.RecurrenceRule{
			Frequency:  models.FrequencyCustom,
			Interval:   1,
			EndDay:     14,
			DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday, time.Friday},
		},
	}

	var got []int
	for day := -2; day <= 20; day++ {
		if IsActiveOnDate(task, day, DateFor(surgery, day)) {
			got = append(got, day)
		}
	}

	// Anchor (Tue) plus Wed/Fri/Mon up to day 14.
	want := []int{1, 2, 4, 7, 9, 11, 14}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, got)
		}
	}

	if IsActiveOn(task, 2) {
		t.Error("Expected weekday rule without a date to yield only the base occurrence")
	}
}

func TestIsActiveOnDate_WeeklyEveryOtherWeek(t *testing.T) {
	surgery := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	task := models.TaskDefinition{
		AnchorDay: 0,
		Recurrence: &models.RecurrenceRule{
			Frequency:  models.FrequencyWeekly,
			Interval:   2,
			EndDay:     28,
			DaysOfWeek: []time.Weekday{time.Thursday},
		},
	}

	// Thursdays fall on days 3, 10, 17, 24; only blocks 0 and 2 count.
	for day, want := range map[int]bool{3: true, 10: false, 17: true, 24: false} {
		if got := IsActiveOnDate(task, day, DateFor(surgery, day)); got != want {
			t.Errorf("Day %d: expected %v, got %v", day, want, got)
		}
	}
}

func TestIsActiveOn_WeeklyWeekdaysWithoutDate(t *testing.T) {
	task := models.TaskDefinition{
		AnchorDay: 0,
		Recurrence: &models.RecurrenceRule{
			Frequency:  models.FrequencyWeekly,
			Interval:   2,
			EndDay:     60,
			DaysOfWeek: []time.Weekday{time.Thursday},
		},
	}

	got := Occurrences(task, -45, 200)
	want := []int{0, 14, 28, 42, 56}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, got)
		}
	}
}
