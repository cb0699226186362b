package storage

import (
	"github.com/yndrdev/totalrecover/internal/models"
	"github.com/yndrdev/totalrecover/internal/phase"
)

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Patients
	AddPatient(models.Patient) error
	GetPatient(id string) (models.Patient, error)
	GetAllPatients() ([]models.Patient, error)
	GetAllPatientsIncludingDeleted() ([]models.Patient, error)
	UpdatePatient(models.Patient) error
	DeletePatient(id string) error
	RestorePatient(id string) error

	// Protocols
	// SaveProtocol stores a protocol together with its task definitions,
	// replacing any definitions previously stored under the same protocol ID.
	SaveProtocol(models.Protocol) error
	GetProtocol(id string) (models.Protocol, error)
	// GetLatestProtocol returns the highest non-deleted version of the
	// protocol for a surgery type.
	GetLatestProtocol(surgeryType string) (models.Protocol, error)
	GetAllProtocols() ([]models.Protocol, error)
	DeleteProtocol(id string) error

	// Phase tables
	SavePhaseTable(surgeryType string, table phase.Table) error
	GetPhaseTables() (map[string]phase.Table, error)

	// Task records
	// RecordTaskStatus persists the status of one task instance. A key that
	// already holds a terminal status is never overwritten; ErrAlreadyRecorded
	// is returned instead.
	RecordTaskStatus(models.TaskInstance) error
	GetTaskRecord(key models.InstanceKey) (models.TaskInstance, error)
	GetTaskRecords(patientID string, startDay, endDay int) ([]models.TaskInstance, error)

	// Messages
	AddMessage(models.Message) error
	GetMessages(patientID string, day int) ([]models.Message, error)
	// GetMessageDays returns the set of days in [startDay, endDay] with at
	// least one message.
	GetMessageDays(patientID string, startDay, endDay int) (map[int]bool, error)

	// Utils
	GetConfigPath() string
}
