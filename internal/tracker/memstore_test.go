package tracker

import (
	"fmt"
	"sort"

	"github.com/yndrdev/totalrecover/internal/models"
	"github.com/yndrdev/totalrecover/internal/phase"
	"github.com/yndrdev/totalrecover/internal/storage"
)

// memStore is an in-memory storage.Provider for service tests.
type memStore struct {
	settings  models.Settings
	patients  map[string]models.Patient
	protocols map[string]models.Protocol
	tables    map[string]phase.Table
	records   map[models.InstanceKey]models.TaskInstance
	messages  []models.Message

	// beforeRecord runs at the start of RecordTaskStatus.
	beforeRecord func(models.TaskInstance)
}

var _ storage.Provider = (*memStore)(nil)

func newMemStore() *memStore {
	settings := models.DefaultSettings()
	settings.Timezone = "UTC"
	return &memStore{
		settings:  settings,
		patients:  make(map[string]models.Patient),
		protocols: make(map[string]models.Protocol),
		tables:    make(map[string]phase.Table),
		records:   make(map[models.InstanceKey]models.TaskInstance),
	}
}

func (m *memStore) Init() error  { return nil }
func (m *memStore) Load() error  { return nil }
func (m *memStore) Close() error { return nil }

func (m *memStore) GetSettings() (models.Settings, error) { return m.settings, nil }
func (m *memStore) SaveSettings(s models.Settings) error {
	m.settings = s
	return nil
}

func (m *memStore) AddPatient(p models.Patient) error {
	m.patients[p.ID] = p
	return nil
}

func (m *memStore) GetPatient(id string) (models.Patient, error) {
	p, ok := m.patients[id]
	if !ok || p.DeletedAt != nil {
		return models.Patient{}, fmt.Errorf("patient with id %s: %w", id, storage.ErrNotFound)
	}
	return p, nil
}

func (m *memStore) GetAllPatients() ([]models.Patient, error) {
	all, _ := m.GetAllPatientsIncludingDeleted()
	active := make([]models.Patient, 0, len(all))
	for _, p := range all {
		if p.DeletedAt == nil {
			active = append(active, p)
		}
	}
	return active, nil
}

func (m *memStore) GetAllPatientsIncludingDeleted() ([]models.Patient, error) {
	all := make([]models.Patient, 0, len(m.patients))
	for _, p := range m.patients {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (m *memStore) UpdatePatient(p models.Patient) error {
	existing, err := m.GetPatient(p.ID)
	if err != nil {
		return err
	}
	if existing.ProtocolID != "" && existing.SurgeryDate != p.SurgeryDate {
		return storage.ErrSurgeryDateLocked
	}
	m.patients[p.ID] = p
	return nil
}

func (m *memStore) DeletePatient(id string) error {
	return fmt.Errorf("not supported")
}

func (m *memStore) RestorePatient(id string) error {
	return fmt.Errorf("not supported")
}

func (m *memStore) SaveProtocol(p models.Protocol) error {
	m.protocols[p.ID] = p
	return nil
}

func (m *memStore) GetProtocol(id string) (models.Protocol, error) {
	p, ok := m.protocols[id]
	if !ok {
		return models.Protocol{}, fmt.Errorf("protocol with id %s: %w", id, storage.ErrNotFound)
	}
	return p, nil
}

func (m *memStore) GetLatestProtocol(surgeryType string) (models.Protocol, error) {
	var latest models.Protocol
	found := false
	for _, p := range m.protocols {
		if p.SurgeryType == surgeryType && (!found || p.Version > latest.Version) {
			latest, found = p, true
		}
	}
	if !found {
		return models.Protocol{}, storage.ErrNotFound
	}
	return latest, nil
}

func (m *memStore) GetAllProtocols() ([]models.Protocol, error) {
	all := make([]models.Protocol, 0, len(m.protocols))
	for _, p := range m.protocols {
		all = append(all, p)
	}
	return all, nil
}

func (m *memStore) DeleteProtocol(id string) error {
	delete(m.protocols, id)
	return nil
}

func (m *memStore) SavePhaseTable(surgeryType string, table phase.Table) error {
	m.tables[surgeryType] = table
	return nil
}

func (m *memStore) GetPhaseTables() (map[string]phase.Table, error) {
	out := make(map[string]phase.Table, len(m.tables))
	for k, v := range m.tables {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) RecordTaskStatus(inst models.TaskInstance) error {
	if m.beforeRecord != nil {
		m.beforeRecord(inst)
	}
	if existing, ok := m.records[inst.Key()]; ok && existing.Status.IsTerminal() {
		return storage.ErrAlreadyRecorded
	}
	m.records[inst.Key()] = inst
	return nil
}

func (m *memStore) GetTaskRecord(key models.InstanceKey) (models.TaskInstance, error) {
	r, ok := m.records[key]
	if !ok {
		return models.TaskInstance{}, storage.ErrNotFound
	}
	return r, nil
}

func (m *memStore) GetTaskRecords(patientID string, startDay, endDay int) ([]models.TaskInstance, error) {
	out := make([]models.TaskInstance, 0)
	for key, r := range m.records {
		if key.PatientID == patientID && key.Day >= startDay && key.Day <= endDay {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) AddMessage(msg models.Message) error {
	m.messages = append(m.messages, msg)
	return nil
}

func (m *memStore) GetMessages(patientID string, day int) ([]models.Message, error) {
	out := make([]models.Message, 0)
	for _, msg := range m.messages {
		if msg.PatientID == patientID && msg.Day == day {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memStore) GetMessageDays(patientID string, startDay, endDay int) (map[int]bool, error) {
	days := make(map[int]bool)
	for _, msg := range m.messages {
		if msg.PatientID == patientID && msg.Day >= startDay && msg.Day <= endDay {
			days[msg.Day] = true
		}
	}
	return days, nil
}

func (m *memStore) GetConfigPath() string { return ":memory:" }
