// Package protocols reads and writes protocol definition files.
//
// A protocol file is YAML:
//
//	name: Total knee replacement
//	surgery_type: knee_replacement
//	version: 2
//	tasks:
//	  - id: walk
//	    anchor_day: 1
//	    task_type: exercise
//	    title: Walk 10 minutes
//	    required: true
//	    recurrence: {frequency: daily, interval: 1, end_day: 30}
//	phase_tables:
//	  knee_replacement:
//	    name: knee
//	    ranges:
//	      - {phase: pre_surgery, start: -45, end: -1}
package protocols

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yndrdev/totalrecover/internal/models"
	"github.com/yndrdev/totalrecover/internal/phase"
)

// File is the on-disk protocol document.
type File struct {
	ID          string                 `yaml:"id,omitempty"`
	Name        string                 `yaml:"name"`
	SurgeryType string                 `yaml:"surgery_type"`
	Version     int                    `yaml:"version"`
	Tasks       []TaskYAML             `yaml:"tasks"`
	PhaseTables map[string]phase.Table `yaml:"phase_tables,omitempty"`
}

// TaskYAML is one task definition in a protocol file.
type TaskYAML struct {
	ID          string          `yaml:"id"`
	AnchorDay   int             `yaml:"anchor_day"`
	TaskType    string          `yaml:"task_type"`
	Title       string          `yaml:"title"`
	Description string          `yaml:"description,omitempty"`
	Content     string          `yaml:"content,omitempty"`
	Required    bool            `yaml:"required"`
	Phase       string          `yaml:"phase,omitempty"`
	Recurrence  *RecurrenceYAML `yaml:"recurrence,omitempty"`
}

// RecurrenceYAML is a recurrence rule with weekdays written by name.
type RecurrenceYAML struct {
	Frequency  string   `yaml:"frequency"`
	Interval   *int     `yaml:"interval,omitempty"` // 1 when omitted
	EndDay     int      `yaml:"end_day"`
	DaysOfWeek []string `yaml:"days_of_week,omitempty,flow"`
}

// Bundle is a parsed protocol plus the phase tables it declares.
type Bundle struct {
	Protocol    models.Protocol
	PhaseTables map[string]phase.Table
}

// Load reads a protocol file from disk.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading protocol file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a protocol document. Structural problems (unknown weekday,
// missing surgery type, malformed phase table) fail here; semantic checks are
// left to the validation package.
func Parse(data []byte) (*Bundle, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return f.ToBundle()
}

// ToBundle converts the file representation to domain types.
func (f *File) ToBundle() (*Bundle, error) {
	if strings.TrimSpace(f.SurgeryType) == "" {
		return nil, fmt.Errorf("protocol file is missing surgery_type")
	}
	version := f.Version
	if version <= 0 {
		version = 1
	}
	id := f.ID
	if id == "" {
		id = fmt.Sprintf("%s-v%d", f.SurgeryType, version)
	}
	name := f.Name
	if name == "" {
		name = f.SurgeryType
	}

	protocol := models.Protocol{
		ID:          id,
		Name:        name,
		SurgeryType: f.SurgeryType,
		Version:     version,
		Tasks:       make([]models.TaskDefinition, 0, len(f.Tasks)),
	}
	for i, t := range f.Tasks {
		def, err := t.toDefinition()
		if err != nil {
			return nil, fmt.Errorf("task %d (%s): %w", i+1, t.ID, err)
		}
		def.Position = i
		protocol.Tasks = append(protocol.Tasks, def)
	}

	tables := make(map[string]phase.Table, len(f.PhaseTables))
	for surgeryType, table := range f.PhaseTables {
		if table.Name == "" {
			table.Name = surgeryType
		}
		if err := table.Validate(); err != nil {
			return nil, err
		}
		tables[surgeryType] = table
	}

	return &Bundle{Protocol: protocol, PhaseTables: tables}, nil
}

func (t TaskYAML) toDefinition() (models.TaskDefinition, error) {
	def := models.TaskDefinition{
		ID:          t.ID,
		AnchorDay:   t.AnchorDay,
		TaskType:    models.TaskType(t.TaskType),
		Title:       t.Title,
		Description: t.Description,
		Content:     t.Content,
		Required:    t.Required,
		Phase:       models.Phase(t.Phase),
	}
	if t.Recurrence == nil {
		return def, nil
	}
	rule := &models.RecurrenceRule{
		Frequency: models.Frequency(t.Recurrence.Frequency),
		Interval:  1,
		EndDay:    t.Recurrence.EndDay,
	}
	if t.Recurrence.Interval != nil {
		rule.Interval = *t.Recurrence.Interval
	}
	for _, name := range t.Recurrence.DaysOfWeek {
		wd, err := ParseWeekday(name)
		if err != nil {
			return def, err
		}
		rule.DaysOfWeek = append(rule.DaysOfWeek, wd)
	}
	def.Recurrence = rule
	return def, nil
}

// ParseWeekday accepts a full or three-letter English day name, or 0-6 with
// Sunday as 0.
func ParseWeekday(s string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("weekday %d out of range 0-6", n)
		}
		return time.Weekday(n), nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if v == full || v == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// FromProtocol builds the file representation of a stored protocol.
func FromProtocol(p models.Protocol, tables map[string]phase.Table) File {
	f := File{
		ID:          p.ID,
		Name:        p.Name,
		SurgeryType: p.SurgeryType,
		Version:     p.Version,
		Tasks:       make([]TaskYAML, 0, len(p.Tasks)),
	}
	for _, def := range p.Tasks {
		t := TaskYAML{
			ID:          def.ID,
			AnchorDay:   def.AnchorDay,
			TaskType:    string(def.TaskType),
			Title:       def.Title,
			Description: def.Description,
			Content:     def.Content,
			Required:    def.Required,
			Phase:       string(def.Phase),
		}
		if r := def.Recurrence; r != nil {
			interval := r.Interval
			t.Recurrence = &RecurrenceYAML{
				Frequency: string(r.Frequency),
				Interval:  &interval,
				EndDay:    r.EndDay,
			}
			for _, wd := range r.DaysOfWeek {
				t.Recurrence.DaysOfWeek = append(t.Recurrence.DaysOfWeek, strings.ToLower(wd.String()[:3]))
			}
		}
		f.Tasks = append(f.Tasks, t)
	}
	if table, ok := tables[p.SurgeryType]; ok {
		f.PhaseTables = map[string]phase.Table{p.SurgeryType: table}
	}
	return f
}

// Marshal renders a protocol as a protocol file.
func Marshal(p models.Protocol, tables map[string]phase.Table) ([]byte, error) {
	f := FromProtocol(p, tables)
	return yaml.Marshal(&f)
}
