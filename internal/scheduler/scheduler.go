// Package scheduler projects protocol task definitions onto recovery days and
// rolls the resulting task instances up into day and range summaries.
//
// Everything here is a pure function of its inputs: a protocol, a snapshot of
// persisted task records and the current recovery day.
package scheduler

import (
	"time"

	"github.com/yndrdev/totalrecover/internal/constants"
	"github.com/yndrdev/totalrecover/internal/models"
	"github.com/yndrdev/totalrecover/internal/phase"
	"github.com/yndrdev/totalrecover/internal/utils"
)

// Snapshot is the persisted state a projection reads from.
type Snapshot struct {
	PatientID string
	// SurgeryDate anchors calendar dates. When zero, weekday-based recurrence
	// rules only produce their base occurrence and summaries carry no date.
	SurgeryDate time.Time
	CurrentDay  int
	// Phases classifies days; the standard table is used when empty.
	Phases  phase.Table
	Records map[models.InstanceKey]models.TaskInstance
}

// PhaseTable returns the table the snapshot classifies days with.
func (s Snapshot) PhaseTable() phase.Table {
	if len(s.Phases.Ranges) == 0 {
		return phase.Standard()
	}
	return s.Phases
}

// DateFor returns the calendar date of a recovery day, or the zero time when
// the snapshot has no surgery date.
func (s Snapshot) DateFor(day int) time.Time {
	if s.SurgeryDate.IsZero() {
		return time.Time{}
	}
	return utils.DateFor(s.SurgeryDate, day)
}

// IndexRecords keys persisted task records for a snapshot.
func IndexRecords(records []models.TaskInstance) map[models.InstanceKey]models.TaskInstance {
	index := make(map[models.InstanceKey]models.TaskInstance, len(records))
	for _, r := range records {
		index[r.Key()] = r
	}
	return index
}

type Scheduler struct{}

func New() *Scheduler {
	return &Scheduler{}
}

// IsScheduled reports whether a task definition produces an instance on day.
func (s *Scheduler) IsScheduled(def models.TaskDefinition, day int, snap Snapshot) bool {
	var active bool
	if snap.SurgeryDate.IsZero() {
		active = utils.IsActiveOn(def, day)
	} else {
		active = utils.IsActiveOnDate(def, day, snap.DateFor(day))
	}
	if !active {
		return false
	}
	if def.Phase != "" && snap.PhaseTable().Classify(day) != def.Phase {
		return false
	}
	return true
}

// TasksForDay returns the task instances active on day, in protocol order,
// merged with their persisted records.
//
// Instances without a record are pending when the day has arrived and upcoming
// otherwise. Completed and missed only ever come from a record.
func (s *Scheduler) TasksForDay(protocol models.Protocol, day int, snap Snapshot) []models.TaskInstance {
	instances := make([]models.TaskInstance, 0)

	for _, def := range protocol.Tasks {
		if !s.IsScheduled(def, day, snap) {
			continue
		}

		inst := models.TaskInstance{
			PatientID:        snap.PatientID,
			TaskDefinitionID: def.ID,
			Day:              day,
			Title:            def.Title,
			TaskType:         def.TaskType,
			Required:         def.Required,
			Status:           models.StatusPending,
		}
		if day > snap.CurrentDay {
			inst.Status = models.StatusUpcoming
		}

		if rec, ok := snap.Records[inst.Key()]; ok {
			inst.ID = rec.ID
			inst.Status = rec.Status
			inst.CompletedAt = rec.CompletedAt
			inst.CompletionData = rec.CompletionData
			inst.RecordedAt = rec.RecordedAt
		}

		instances = append(instances, inst)
	}

	return instances
}

// EffectiveStatus returns the status an instance on day counts as when viewed
// from currentDay. A required instance still pending after its day has passed
// is missed.
func EffectiveStatus(inst models.TaskInstance, day, currentDay int) models.TaskStatus {
	switch inst.Status {
	case "", models.StatusPending, models.StatusUpcoming:
		if day > currentDay {
			return models.StatusUpcoming
		}
		if inst.Required && day < currentDay {
			return models.StatusMissed
		}
		return models.StatusPending
	default:
		return inst.Status
	}
}

// Summarize counts the instances of one day by effective status.
// Upcoming instances count as pending. Skipped and cancelled instances are
// tallied separately and left out of Total.
func Summarize(instances []models.TaskInstance, day, currentDay int) models.TaskCounts {
	var counts models.TaskCounts
	for _, inst := range instances {
		switch EffectiveStatus(inst, day, currentDay) {
		case models.StatusCompleted:
			counts.Completed++
			counts.Total++
		case models.StatusMissed:
			counts.Missed++
			counts.Total++
		case models.StatusPending, models.StatusUpcoming:
			counts.Pending++
			counts.Total++
		case models.StatusSkipped:
			counts.Skipped++
		case models.StatusCancelled:
			counts.Cancelled++
		}
	}
	return counts
}

// DayStatusFor classifies a day from its counts.
func DayStatusFor(counts models.TaskCounts) models.DayStatus {
	switch {
	case counts.Total == 0:
		return models.DayStatusNone
	case counts.Missed > 0:
		return models.DayStatusMissed
	case counts.Completed == counts.Total:
		return models.DayStatusCompleted
	case counts.Pending > 0:
		return models.DayStatusPending
	default:
		return models.DayStatusNone
	}
}

// MissedTaskTitles lists the titles of missed instances in input order.
func MissedTaskTitles(instances []models.TaskInstance, currentDay int) []string {
	titles := make([]string, 0)
	for _, inst := range instances {
		if EffectiveStatus(inst, inst.Day, currentDay) == models.StatusMissed {
			titles = append(titles, inst.Title)
		}
	}
	return titles
}

// SummarizeDay projects and summarizes one day.
func (s *Scheduler) SummarizeDay(protocol models.Protocol, day int, snap Snapshot, hasConversation bool) models.DaySummary {
	instances := s.TasksForDay(protocol, day, snap)
	counts := Summarize(instances, day, snap.CurrentDay)

	tasks := make([]models.TaskInstance, len(instances))
	for i, inst := range instances {
		inst.Status = EffectiveStatus(inst, day, snap.CurrentDay)
		tasks[i] = inst
	}

	summary := models.DaySummary{
		Day:             day,
		Phase:           snap.PhaseTable().Classify(day),
		TaskCounts:      counts,
		DayStatus:       DayStatusFor(counts),
		HasConversation: hasConversation,
		Tasks:           tasks,
	}
	if date := snap.DateFor(day); !date.IsZero() {
		summary.Date = date.Format(constants.DateFormat)
	}
	return summary
}

// RangeSummary aggregates a run of day summaries.
type RangeSummary struct {
	StartDay   int               `json:"start_day"`
	EndDay     int               `json:"end_day"`
	TaskCounts models.TaskCounts `json:"task_counts"`
	// Compliance is completed / (completed + missed) as a percentage over the
	// days that have arrived, or 100 when nothing was due.
	Compliance  float64  `json:"compliance"`
	MissedTasks []string `json:"missed_tasks,omitempty"`
}

// SummarizeRange rolls day summaries up into totals and a compliance figure.
func SummarizeRange(days []models.DaySummary, currentDay int) RangeSummary {
	var rs RangeSummary
	if len(days) == 0 {
		rs.Compliance = 100
		return rs
	}
	rs.StartDay = days[0].Day
	rs.EndDay = days[len(days)-1].Day

	var due models.TaskCounts
	for _, d := range days {
		rs.TaskCounts.Add(d.TaskCounts)
		if d.Day <= currentDay {
			due.Add(d.TaskCounts)
		}
		rs.MissedTasks = append(rs.MissedTasks, MissedTaskTitles(d.Tasks, currentDay)...)
	}

	rs.Compliance = Compliance(due)
	return rs
}

// Compliance returns completed / (completed + missed) as a percentage.
func Compliance(counts models.TaskCounts) float64 {
	denom := counts.Completed + counts.Missed
	if denom == 0 {
		return 100
	}
	return float64(counts.Completed) / float64(denom) * 100
}
