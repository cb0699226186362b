package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yndrdev/totalrecover/internal/models"
	"github.com/yndrdev/totalrecover/internal/phase"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictMissingTaskID         ConflictType = "missing_task_id"
	ConflictDuplicateTaskID       ConflictType = "duplicate_task_id"
	ConflictDuplicateTaskTitle    ConflictType = "duplicate_task_title"
	ConflictMissingTitle          ConflictType = "missing_title"
	ConflictInvalidTaskType       ConflictType = "invalid_task_type"
	ConflictInvalidRecurrence     ConflictType = "invalid_recurrence"
	ConflictUnsupportedRecurrence ConflictType = "unsupported_recurrence"
	ConflictInvalidPhase          ConflictType = "invalid_phase"
	ConflictPhaseNeverReached     ConflictType = "phase_never_reached"
	ConflictMissingSurgeryType    ConflictType = "missing_surgery_type"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Conflict represents a detected problem in a protocol
type Conflict struct {
	Type        ConflictType
	Severity    Severity
	Description string
	TaskIDs     []string // IDs of tasks involved
	Err         error    // typed error behind the conflict, if any
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// HasErrors returns true if any conflict blocks protocol assignment
func (vr *ValidationResult) HasErrors() bool {
	for _, c := range vr.Conflicts {
		if c.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Warnings returns the non-blocking conflicts
func (vr *ValidationResult) Warnings() []Conflict {
	var out []Conflict
	for _, c := range vr.Conflicts {
		if c.Severity == SeverityWarning {
			out = append(out, c)
		}
	}
	return out
}

// Err joins the blocking conflicts into one error, or returns nil.
// Typed errors such as InvalidRecurrenceRuleError stay reachable with errors.As.
func (vr *ValidationResult) Err() error {
	var errs []error
	for _, c := range vr.Conflicts {
		if c.Severity != SeverityError {
			continue
		}
		if c.Err != nil {
			errs = append(errs, c.Err)
		} else {
			errs = append(errs, errors.New(c.Description))
		}
	}
	return errors.Join(errs...)
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- [%s] %s\n", conflict.Severity, conflict.Description)
	}
	return b.String()
}

// InvalidRecurrenceRuleError is returned for a recurrence rule that cannot be
// expanded: a non-positive interval or an end day before the anchor day.
type InvalidRecurrenceRuleError struct {
	TaskID string
	Reason string
}

func (e *InvalidRecurrenceRuleError) Error() string {
	return fmt.Sprintf("invalid recurrence rule for task %q: %s", e.TaskID, e.Reason)
}

// ValidateRecurrence checks a single task definition's recurrence rule.
func ValidateRecurrence(task models.TaskDefinition) error {
	rule := task.Recurrence
	if rule == nil {
		return nil
	}

	switch rule.Frequency {
	case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly, models.FrequencyCustom:
	default:
		return &InvalidRecurrenceRuleError{TaskID: task.ID, Reason: fmt.Sprintf("unknown frequency %q", rule.Frequency)}
	}
	if rule.Interval <= 0 {
		return &InvalidRecurrenceRuleError{TaskID: task.ID, Reason: fmt.Sprintf("interval must be positive, got %d", rule.Interval)}
	}
	if rule.EndDay < task.AnchorDay {
		return &InvalidRecurrenceRuleError{TaskID: task.ID, Reason: fmt.Sprintf("end day %d is before anchor day %d", rule.EndDay, task.AnchorDay)}
	}
	for _, wd := range rule.DaysOfWeek {
		if wd < 0 || wd > 6 {
			return &InvalidRecurrenceRuleError{TaskID: task.ID, Reason: fmt.Sprintf("invalid weekday index %d", wd)}
		}
	}
	return nil
}

// Validator validates protocols before they are assigned to patients
type Validator struct {
	phases phase.Table
}

// New creates a new Validator using the standard phase table
func New() *Validator {
	return &Validator{phases: phase.Standard()}
}

// WithPhases returns a validator that checks phase filters against table
func (v *Validator) WithPhases(table phase.Table) *Validator {
	return &Validator{phases: table}
}

// ValidateProtocol checks a protocol's task definitions
func (v *Validator) ValidateProtocol(protocol models.Protocol) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	if protocol.SurgeryType == "" {
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictMissingSurgeryType,
			Severity:    SeverityError,
			Description: fmt.Sprintf("Protocol %q has no surgery type", protocol.Name),
		})
	}

	// Check for duplicate task IDs and titles
	idCount := make(map[string]int)
	titleIDs := make(map[string][]string)
	for _, task := range protocol.Tasks {
		if task.ID != "" {
			idCount[task.ID]++
		}
		if task.Title != "" {
			titleIDs[task.Title] = append(titleIDs[task.Title], task.ID)
		}
	}

	dupIDs := make([]string, 0)
	for id, n := range idCount {
		if n > 1 {
			dupIDs = append(dupIDs, id)
		}
	}
	sort.Strings(dupIDs)
	for _, id := range dupIDs {
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictDuplicateTaskID,
			Severity:    SeverityError,
			Description: fmt.Sprintf("Duplicate task ID: %q (%d definitions)", id, idCount[id]),
			TaskIDs:     []string{id},
		})
	}

	titles := make([]string, 0, len(titleIDs))
	for title := range titleIDs {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	for _, title := range titles {
		ids := titleIDs[title]
		if len(ids) < 2 {
			continue
		}
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictDuplicateTaskTitle,
			Severity:    SeverityWarning,
			Description: fmt.Sprintf("Duplicate task title: %q (IDs: %v)", title, ids),
			TaskIDs:     ids,
		})
	}

	for i, task := range protocol.Tasks {
		label := task.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictMissingTaskID,
				Severity:    SeverityError,
				Description: fmt.Sprintf("Task %s (%q) has no ID", label, task.Title),
			})
		}

		if strings.TrimSpace(task.Title) == "" {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictMissingTitle,
				Severity:    SeverityError,
				Description: fmt.Sprintf("Task %s has no title", label),
				TaskIDs:     []string{task.ID},
			})
		}

		if !models.IsValidTaskType(task.TaskType) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidTaskType,
				Severity:    SeverityError,
				Description: fmt.Sprintf("Task %s has invalid task type %q", label, task.TaskType),
				TaskIDs:     []string{task.ID},
			})
		}

		if err := ValidateRecurrence(task); err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidRecurrence,
				Severity:    SeverityError,
				Description: err.Error(),
				TaskIDs:     []string{task.ID},
				Err:         err,
			})
		} else if warning := unsupportedRecurrence(task); warning != "" {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictUnsupportedRecurrence,
				Severity:    SeverityWarning,
				Description: fmt.Sprintf("Task %s: %s", label, warning),
				TaskIDs:     []string{task.ID},
			})
		}

		if task.Phase != "" {
			if !models.IsValidPhase(task.Phase) {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictInvalidPhase,
					Severity:    SeverityError,
					Description: fmt.Sprintf("Task %s has unknown phase %q", label, task.Phase),
					TaskIDs:     []string{task.ID},
				})
			} else if !v.phaseReached(task) {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictPhaseNeverReached,
					Severity:    SeverityWarning,
					Description: fmt.Sprintf("Task %s is limited to %s but none of its occurrence days fall in that phase", label, task.Phase),
					TaskIDs:     []string{task.ID},
				})
			}
		}
	}

	return result
}

func unsupportedRecurrence(task models.TaskDefinition) string {
	rule := task.Recurrence
	if rule == nil {
		return ""
	}
	switch {
	case rule.Frequency == models.FrequencyMonthly:
		return "monthly recurrence is not supported; only the anchor day occurrence is scheduled"
	case rule.Frequency == models.FrequencyCustom && len(rule.DaysOfWeek) == 0:
		return "custom recurrence without days_of_week only schedules the anchor day"
	}
	return ""
}

// phaseReached reports whether any day the task could occur on lies in its phase.
func (v *Validator) phaseReached(task models.TaskDefinition) bool {
	last := task.AnchorDay
	if task.Recurrence != nil && task.Recurrence.EndDay > last {
		last = task.Recurrence.EndDay
	}
	return v.phases.Reaches(task.Phase, task.AnchorDay, last)
}
