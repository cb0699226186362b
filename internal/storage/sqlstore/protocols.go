package sqlstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yndrdev/totalrecover/internal/models"
	"github.com/yndrdev/totalrecover/internal/storage"
)

func (d *DB) SaveProtocol(p models.Protocol) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.Version == 0 {
		p.Version = 1
	}

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := d.txExec(tx, `
		INSERT INTO protocols (id, name, surgery_type, version, created_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			surgery_type = excluded.surgery_type,
			version = excluded.version,
			deleted_at = excluded.deleted_at`,
		p.ID, p.Name, p.SurgeryType, p.Version, formatTime(p.CreatedAt), nullableTime(p.DeletedAt),
	); err != nil {
		return fmt.Errorf("failed to save protocol: %w", err)
	}

	if _, err := d.txExec(tx, "DELETE FROM task_definitions WHERE protocol_id = ?", p.ID); err != nil {
		return fmt.Errorf("failed to clear task definitions: %w", err)
	}

	for i, def := range p.Tasks {
		recurrence := ""
		if def.Recurrence != nil {
			b, err := json.Marshal(def.Recurrence)
			if err != nil {
				return fmt.Errorf("failed to encode recurrence for task %s: %w", def.ID, err)
			}
			recurrence = string(b)
		}

		if _, err := d.txExec(tx, `
			INSERT INTO task_definitions (
				protocol_id, id, position, anchor_day, task_type, title,
				description, content, required, phase, recurrence
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, def.ID, i, def.AnchorDay, string(def.TaskType), def.Title,
			def.Description, def.Content, def.Required, string(def.Phase), recurrence,
		); err != nil {
			return fmt.Errorf("failed to save task definition %s: %w", def.ID, err)
		}
	}

	return tx.Commit()
}

func (d *DB) GetProtocol(id string) (models.Protocol, error) {
	row := d.queryRow(`
		SELECT id, name, surgery_type, version, created_at, deleted_at
		FROM protocols WHERE id = ? AND deleted_at IS NULL`, id)

	p, err := scanProtocol(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Protocol{}, fmt.Errorf("protocol with id %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.Protocol{}, err
	}

	if p.Tasks, err = d.getTaskDefinitions(p.ID); err != nil {
		return models.Protocol{}, err
	}
	return p, nil
}

func (d *DB) GetLatestProtocol(surgeryType string) (models.Protocol, error) {
	var id string
	err := d.queryRow(`
		SELECT id FROM protocols
		WHERE surgery_type = ? AND deleted_at IS NULL
		ORDER BY version DESC, created_at DESC
		LIMIT 1`, surgeryType).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Protocol{}, fmt.Errorf("protocol for surgery type %s: %w", surgeryType, storage.ErrNotFound)
	}
	if err != nil {
		return models.Protocol{}, err
	}
	return d.GetProtocol(id)
}

func (d *DB) GetAllProtocols() ([]models.Protocol, error) {
	rows, err := d.query(`
		SELECT id, name, surgery_type, version, created_at, deleted_at
		FROM protocols WHERE deleted_at IS NULL
		ORDER BY surgery_type, version`)
	if err != nil {
		return nil, err
	}

	protocols := make([]models.Protocol, 0)
	for rows.Next() {
		p, err := scanProtocol(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		protocols = append(protocols, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range protocols {
		if protocols[i].Tasks, err = d.getTaskDefinitions(protocols[i].ID); err != nil {
			return nil, err
		}
	}
	return protocols, nil
}

func (d *DB) DeleteProtocol(id string) error {
	var deletedAt sql.NullString
	err := d.queryRow("SELECT deleted_at FROM protocols WHERE id = ?", id).Scan(&deletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("protocol with id %s: %w", id, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to check protocol existence: %w", err)
	}

	if deletedAt.Valid {
		return fmt.Errorf("protocol with id %s is already deleted", id)
	}

	_, err = d.exec("UPDATE protocols SET deleted_at = ? WHERE id = ?", formatTime(time.Now()), id)
	return err
}

func scanProtocol(row scanner) (models.Protocol, error) {
	var p models.Protocol
	var createdAt string
	var deletedAt sql.NullString

	if err := row.Scan(&p.ID, &p.Name, &p.SurgeryType, &p.Version, &createdAt, &deletedAt); err != nil {
		return models.Protocol{}, err
	}

	var err error
	if p.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.Protocol{}, fmt.Errorf("protocol %s: %w", p.ID, err)
	}
	if p.DeletedAt, err = parseNullTime("deleted_at", deletedAt); err != nil {
		return models.Protocol{}, fmt.Errorf("protocol %s: %w", p.ID, err)
	}
	return p, nil
}

func (d *DB) getTaskDefinitions(protocolID string) ([]models.TaskDefinition, error) {
	rows, err := d.query(`
		SELECT id, position, anchor_day, task_type, title, description, content, required, phase, recurrence
		FROM task_definitions WHERE protocol_id = ?
		ORDER BY position`, protocolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	defs := make([]models.TaskDefinition, 0)
	for rows.Next() {
		var def models.TaskDefinition
		var taskType, phase, recurrence string

		if err := rows.Scan(&def.ID, &def.Position, &def.AnchorDay, &taskType, &def.Title,
			&def.Description, &def.Content, &def.Required, &phase, &recurrence); err != nil {
			return nil, err
		}

		def.TaskType = models.TaskType(taskType)
		def.Phase = models.Phase(phase)
		if recurrence != "" {
			var rule models.RecurrenceRule
			if err := json.Unmarshal([]byte(recurrence), &rule); err != nil {
				return nil, fmt.Errorf("failed to decode recurrence for task %s: %w", def.ID, err)
			}
			def.Recurrence = &rule
		}

		defs = append(defs, def)
	}
	return defs, rows.Err()
}
