package models

import "time"

// Protocol is the ordered set of task definitions assigned to a surgery type.
type Protocol struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	SurgeryType string           `json:"surgery_type"`
	Version     int              `json:"version"`
	Tasks       []TaskDefinition `json:"tasks"`
	CreatedAt   time.Time        `json:"created_at"`
	DeletedAt   *time.Time       `json:"deleted_at,omitempty"`
}

// Task returns the definition with the given ID.
func (p Protocol) Task(id string) (TaskDefinition, bool) {
	for _, t := range p.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return TaskDefinition{}, false
}
