package models

type Phase string

const (
	PhasePreSurgery      Phase = "pre_surgery"
	PhaseImmediatePostOp Phase = "immediate_post_op"
	PhaseEarlyRecovery   Phase = "early_recovery"
	PhaseActiveRecovery  Phase = "active_recovery"
	PhaseLateRecovery    Phase = "late_recovery"
	PhaseMaintenance     Phase = "maintenance"
)

// ValidPhases lists the recovery phases in chronological order.
var ValidPhases = []Phase{
	PhasePreSurgery,
	PhaseImmediatePostOp,
	PhaseEarlyRecovery,
	PhaseActiveRecovery,
	PhaseLateRecovery,
	PhaseMaintenance,
}

func IsValidPhase(p Phase) bool {
	for _, v := range ValidPhases {
		if v == p {
			return true
		}
	}
	return false
}

type DayStatus string

const (
	DayStatusCompleted DayStatus = "completed"
	DayStatusMissed    DayStatus = "missed"
	DayStatusPending   DayStatus = "pending"
	DayStatusNone      DayStatus = "none"
)

// TaskCounts tallies task instances by effective status. Skipped and
// cancelled instances are not part of Total.
type TaskCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Missed    int `json:"missed"`
	Pending   int `json:"pending"`
	Skipped   int `json:"skipped,omitempty"`
	Cancelled int `json:"cancelled,omitempty"`
}

// Add accumulates other into c.
func (c *TaskCounts) Add(other TaskCounts) {
	c.Total += other.Total
	c.Completed += other.Completed
	c.Missed += other.Missed
	c.Pending += other.Pending
	c.Skipped += other.Skipped
	c.Cancelled += other.Cancelled
}

type DaySummary struct {
	Day             int            `json:"day"`
	Date            string         `json:"date"` // YYYY-MM-DD format
	Phase           Phase          `json:"phase"`
	TaskCounts      TaskCounts     `json:"task_counts"`
	DayStatus       DayStatus      `json:"day_status"`
	HasConversation bool           `json:"has_conversation"`
	Tasks           []TaskInstance `json:"tasks,omitempty"`
}

type WeekSummary struct {
	Number           int          `json:"number"`
	StartDay         int          `json:"start_day"`
	EndDay           int          `json:"end_day"`
	Days             []DaySummary `json:"days"`
	TaskCounts       TaskCounts   `json:"task_counts"`
	HasNotifications bool         `json:"has_notifications"`
}
