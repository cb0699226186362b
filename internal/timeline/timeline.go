// Package timeline builds the ordered day and week summaries a patient's
// recovery is navigated by.
package timeline

import (
	"fmt"

	"github.com/yndrdev/totalrecover/internal/constants"
	"github.com/yndrdev/totalrecover/internal/models"
	"github.com/yndrdev/totalrecover/internal/scheduler"
)

// DayOutOfRangeError is returned for lookups outside the built range.
type DayOutOfRangeError struct {
	Day   int
	Start int
	End   int
}

func (e *DayOutOfRangeError) Error() string {
	return fmt.Sprintf("day %d is outside the timeline range [%d, %d]", e.Day, e.Start, e.End)
}

// ConversationLookup reports whether any message exists on a day.
type ConversationLookup func(day int) bool

// Timeline is the summary of every day in [Start, End] grouped into weeks.
type Timeline struct {
	Start      int                  `json:"start"`
	End        int                  `json:"end"`
	CurrentDay int                  `json:"current_day"`
	Days       []models.DaySummary  `json:"days"`
	Weeks      []models.WeekSummary `json:"weeks"`
}

// Build summarizes every day in [start, end].
func Build(s *scheduler.Scheduler, protocol models.Protocol, snap scheduler.Snapshot, start, end int, hasConversation ConversationLookup) (*Timeline, error) {
	if start > end {
		return nil, fmt.Errorf("invalid timeline range: start %d is after end %d", start, end)
	}
	if hasConversation == nil {
		hasConversation = func(int) bool { return false }
	}

	days := make([]models.DaySummary, 0, end-start+1)
	for day := start; day <= end; day++ {
		days = append(days, s.SummarizeDay(protocol, day, snap, hasConversation(day)))
	}

	return &Timeline{
		Start:      start,
		End:        end,
		CurrentDay: snap.CurrentDay,
		Days:       days,
		Weeks:      GroupByWeek(days, snap.CurrentDay),
	}, nil
}

// WeekNumber returns the week a day falls in. Week 0 starts on the day of
// surgery; pre-op weeks are negative.
func WeekNumber(day int) int {
	n := day / constants.DaysPerWeek
	if day%constants.DaysPerWeek != 0 && day < 0 {
		n--
	}
	return n
}

// GroupByWeek partitions consecutive day summaries into weeks. Weeks at the
// edges of the range are clipped to the days present.
func GroupByWeek(days []models.DaySummary, currentDay int) []models.WeekSummary {
	weeks := make([]models.WeekSummary, 0)
	for _, d := range days {
		n := WeekNumber(d.Day)
		if len(weeks) == 0 || weeks[len(weeks)-1].Number != n {
			weeks = append(weeks, models.WeekSummary{
				Number:   n,
				StartDay: d.Day,
				EndDay:   d.Day,
			})
		}

		w := &weeks[len(weeks)-1]
		w.EndDay = d.Day
		w.Days = append(w.Days, d)
		w.TaskCounts.Add(d.TaskCounts)
		if d.TaskCounts.Pending > 0 && d.Day <= currentDay {
			w.HasNotifications = true
		}
	}
	return weeks
}

// Day returns the summary of one day.
func (t *Timeline) Day(day int) (models.DaySummary, error) {
	if day < t.Start || day > t.End {
		return models.DaySummary{}, &DayOutOfRangeError{Day: day, Start: t.Start, End: t.End}
	}
	return t.Days[day-t.Start], nil
}

// WeekIndex returns the index into Weeks of the week containing day.
func (t *Timeline) WeekIndex(day int) (int, error) {
	if day < t.Start || day > t.End {
		return 0, &DayOutOfRangeError{Day: day, Start: t.Start, End: t.End}
	}
	first := WeekNumber(t.Start)
	return WeekNumber(day) - first, nil
}

// FindWeekContaining returns the single week that contains day.
func (t *Timeline) FindWeekContaining(day int) (models.WeekSummary, error) {
	idx, err := t.WeekIndex(day)
	if err != nil {
		return models.WeekSummary{}, err
	}
	return t.Weeks[idx], nil
}

// Page returns the page-th group of size weeks (zero based) and the number of
// pages.
func (t *Timeline) Page(page, size int) ([]models.WeekSummary, int) {
	if size <= 0 {
		size = 1
	}
	pages := (len(t.Weeks) + size - 1) / size
	if page < 0 || page >= pages {
		return nil, pages
	}
	start := page * size
	end := start + size
	if end > len(t.Weeks) {
		end = len(t.Weeks)
	}
	return t.Weeks[start:end], pages
}

// Summary rolls the days up to the current day into totals and compliance.
func (t *Timeline) Summary() scheduler.RangeSummary {
	return scheduler.SummarizeRange(t.Days, t.CurrentDay)
}
