package models

import "time"

// Patient is a scheduled surgery patient. SurgeryDate anchors recovery day 0
// and does not change once set.
type Patient struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	SurgeryDate string     `json:"surgery_date"` // YYYY-MM-DD format
	SurgeryType string     `json:"surgery_type"`
	ProtocolID  string     `json:"protocol_id,omitempty"`
	Timezone    string     `json:"timezone,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

type MessageRole string

const (
	RolePatient   MessageRole = "patient"
	RoleAssistant MessageRole = "assistant"
	RoleProvider  MessageRole = "provider"
)

// Message is one chat message filed under the recovery day it was sent on.
type Message struct {
	ID        string      `json:"id"`
	PatientID string      `json:"patient_id"`
	Day       int         `json:"day"`
	Role      MessageRole `json:"role"`
	Body      string      `json:"body"`
	CreatedAt time.Time   `json:"created_at"`
}
