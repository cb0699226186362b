package sqlstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yndrdev/totalrecover/internal/models"
	"github.com/yndrdev/totalrecover/internal/storage"
)

const recordColumns = `id, patient_id, task_definition_id, day, status, completed_at, completion_data, recorded_at`

func (d *DB) RecordTaskStatus(inst models.TaskInstance) error {
	switch inst.Status {
	case models.StatusCompleted, models.StatusSkipped, models.StatusCancelled, models.StatusMissed:
	default:
		return fmt.Errorf("cannot record status %q", inst.Status)
	}

	if inst.ID == "" {
		inst.ID = uuid.NewString()
	}
	recordedAt := time.Now()
	if inst.RecordedAt != nil {
		recordedAt = *inst.RecordedAt
	}
	var data any
	if len(inst.CompletionData) > 0 {
		data = string(inst.CompletionData)
	}

	// A terminal row is left untouched, which shows up as zero affected rows.
	res, err := d.exec(`
		INSERT INTO task_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (patient_id, task_definition_id, day) DO UPDATE SET
			status = excluded.status,
			completed_at = excluded.completed_at,
			completion_data = excluded.completion_data,
			recorded_at = excluded.recorded_at
		WHERE task_records.status NOT IN ('completed', 'skipped', 'cancelled')`,
		inst.ID, inst.PatientID, inst.TaskDefinitionID, inst.Day, string(inst.Status),
		nullableTime(inst.CompletedAt), data, formatTime(recordedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record task status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check recorded rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %s on day %d: %w", inst.TaskDefinitionID, inst.Day, storage.ErrAlreadyRecorded)
	}
	return nil
}

func (d *DB) GetTaskRecord(key models.InstanceKey) (models.TaskInstance, error) {
	row := d.queryRow(`
		SELECT `+recordColumns+` FROM task_records
		WHERE patient_id = ? AND task_definition_id = ? AND day = ?`,
		key.PatientID, key.TaskDefinitionID, key.Day)

	inst, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TaskInstance{}, fmt.Errorf("task %s on day %d: %w", key.TaskDefinitionID, key.Day, storage.ErrNotFound)
	}
	return inst, err
}

func (d *DB) GetTaskRecords(patientID string, startDay, endDay int) ([]models.TaskInstance, error) {
	rows, err := d.query(`
		SELECT `+recordColumns+` FROM task_records
		WHERE patient_id = ? AND day >= ? AND day <= ?
		ORDER BY day, task_definition_id`, patientID, startDay, endDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.TaskInstance, 0)
	for rows.Next() {
		inst, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, inst)
	}
	return records, rows.Err()
}

func scanRecord(row scanner) (models.TaskInstance, error) {
	var inst models.TaskInstance
	var status, recordedAt string
	var completedAt, data sql.NullString

	if err := row.Scan(&inst.ID, &inst.PatientID, &inst.TaskDefinitionID, &inst.Day, &status,
		&completedAt, &data, &recordedAt); err != nil {
		return models.TaskInstance{}, err
	}

	inst.Status = models.TaskStatus(status)
	if data.Valid && data.String != "" {
		inst.CompletionData = json.RawMessage(data.String)
	}

	var err error
	if inst.CompletedAt, err = parseNullTime("completed_at", completedAt); err != nil {
		return models.TaskInstance{}, err
	}
	t, err := parseTime("recorded_at", recordedAt)
	if err != nil {
		return models.TaskInstance{}, err
	}
	inst.RecordedAt = &t
	return inst, nil
}
