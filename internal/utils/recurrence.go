package utils

import (
	"time"

	"github.com/yndrdev/totalrecover/internal/constants"
	"github.com/yndrdev/totalrecover/internal/models"
)

// IsActiveOn reports whether the task has an occurrence on the given recovery day.
// Weekly rules with DaysOfWeek fall back to the plain weekly cadence and custom
// weekday rules only yield their base occurrence; use IsActiveOnDate when the
// surgery date is known.
func IsActiveOn(task models.TaskDefinition, day int) bool {
	return isActive(task, day, nil)
}

// IsActiveOnDate is IsActiveOn with the calendar date of the recovery day, which
// lets weekday-based rules (weekly or custom with DaysOfWeek) match.
func IsActiveOnDate(task models.TaskDefinition, day int, date time.Time) bool {
	return isActive(task, day, &date)
}

func isActive(task models.TaskDefinition, day int, date *time.Time) bool {
	if day == task.AnchorDay {
		return true
	}

	rule := task.Recurrence
	if rule == nil || day < task.AnchorDay || day > rule.EndDay {
		return false
	}

	// Invalid intervals are rejected by protocol validation; never divide by zero here.
	interval := rule.Interval
	if interval <= 0 {
		interval = 1
	}
	offset := day - task.AnchorDay

	switch rule.Frequency {
	case models.FrequencyDaily:
		return offset%interval == 0
	case models.FrequencyWeekly:
		if len(rule.DaysOfWeek) == 0 || date == nil {
			return offset%(constants.DaysPerWeek*interval) == 0
		}
		return onScheduledWeekday(rule.DaysOfWeek, offset, interval, date)
	case models.FrequencyCustom:
		if len(rule.DaysOfWeek) == 0 {
			return false
		}
		return onScheduledWeekday(rule.DaysOfWeek, offset, interval, date)
	case models.FrequencyMonthly:
		// Calendar-month cadence is not defined; only the base occurrence applies.
		return false
	default:
		return false
	}
}

// onScheduledWeekday matches weekday sets in every interval-th block of seven
// days counted from the anchor.
func onScheduledWeekday(weekdays []time.Weekday, offset, interval int, date *time.Time) bool {
	if date == nil {
		return false
	}
	if (offset/constants.DaysPerWeek)%interval != 0 {
		return false
	}
	wd := date.Weekday()
	for _, w := range weekdays {
		if w == wd {
			return true
		}
	}
	return false
}

// Occurrences lists the recovery days in [from, to] on which the task is active,
// without calendar information.
func Occurrences(task models.TaskDefinition, from, to int) []int {
	var days []int
	for d := from; d <= to; d++ {
		if IsActiveOn(task, d) {
			days = append(days, d)
		}
	}
	return days
}
