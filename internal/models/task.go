package models

import (
	"encoding/json"
	"time"
)

type TaskType string

const (
	TaskTypeMessage    TaskType = "message"
	TaskTypeVideo      TaskType = "video"
	TaskTypeForm       TaskType = "form"
	TaskTypeExercise   TaskType = "exercise"
	TaskTypeAssessment TaskType = "assessment"
	TaskTypeMedication TaskType = "medication"
	TaskTypeEducation  TaskType = "education"
)

// ValidTaskTypes lists every task type a protocol may author.
var ValidTaskTypes = []TaskType{
	TaskTypeMessage,
	TaskTypeVideo,
	TaskTypeForm,
	TaskTypeExercise,
	TaskTypeAssessment,
	TaskTypeMedication,
	TaskTypeEducation,
}

func IsValidTaskType(t TaskType) bool {
	for _, v := range ValidTaskTypes {
		if v == t {
			return true
		}
	}
	return false
}

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyCustom  Frequency = "custom"
)

type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
	StatusMissed    TaskStatus = "missed"
	StatusSkipped   TaskStatus = "skipped"
	StatusCancelled TaskStatus = "cancelled"
	// StatusUpcoming marks an instance on a day after the current recovery day.
	// It is never persisted.
	StatusUpcoming TaskStatus = "upcoming"
)

// IsTerminal reports whether no further transition is allowed out of the status.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusSkipped || s == StatusCancelled
}

// RecurrenceRule repeats a task after its anchor day up to and including EndDay.
type RecurrenceRule struct {
	Frequency  Frequency      `json:"frequency" yaml:"frequency"`
	Interval   int            `json:"interval" yaml:"interval"`
	EndDay     int            `json:"end_day" yaml:"end_day"`
	DaysOfWeek []time.Weekday `json:"days_of_week,omitempty" yaml:"days_of_week,omitempty"`
}

// TaskDefinition is a protocol-authored template anchored on a recovery day.
type TaskDefinition struct {
	ID          string          `json:"id" yaml:"id"`
	AnchorDay   int             `json:"anchor_day" yaml:"anchor_day"`
	TaskType    TaskType        `json:"task_type" yaml:"task_type"`
	Title       string          `json:"title" yaml:"title"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Content     string          `json:"content,omitempty" yaml:"content,omitempty"`
	Required    bool            `json:"required" yaml:"required"`
	Phase       Phase           `json:"phase,omitempty" yaml:"phase,omitempty"` // optional phase filter
	Position    int             `json:"position" yaml:"-"`
	Recurrence  *RecurrenceRule `json:"recurrence,omitempty" yaml:"recurrence,omitempty"`
}

// InstanceKey identifies one occurrence of a task definition for one patient.
type InstanceKey struct {
	PatientID        string
	TaskDefinitionID string
	Day              int
}

// TaskInstance is a task definition materialized on a concrete recovery day.
type TaskInstance struct {
	ID               string          `json:"id,omitempty"`
	PatientID        string          `json:"patient_id"`
	TaskDefinitionID string          `json:"task_definition_id"`
	Day              int             `json:"day"`
	Title            string          `json:"title"`
	TaskType         TaskType        `json:"task_type"`
	Required         bool            `json:"required"`
	Status           TaskStatus      `json:"status"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	CompletionData   json.RawMessage `json:"completion_data,omitempty"`
	RecordedAt       *time.Time      `json:"recorded_at,omitempty"`
}

// Key returns the persistence key of the instance.
func (t TaskInstance) Key() InstanceKey {
	return InstanceKey{PatientID: t.PatientID, TaskDefinitionID: t.TaskDefinitionID, Day: t.Day}
}
