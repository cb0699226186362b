package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yndrdev/totalrecover/internal/models"
	"github.com/yndrdev/totalrecover/internal/storage"
)

const patientColumns = `id, name, surgery_date, surgery_type, protocol_id, timezone, created_at, deleted_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPatient(row scanner) (models.Patient, error) {
	var p models.Patient
	var createdAt string
	var deletedAt sql.NullString

	if err := row.Scan(&p.ID, &p.Name, &p.SurgeryDate, &p.SurgeryType, &p.ProtocolID, &p.Timezone, &createdAt, &deletedAt); err != nil {
		return models.Patient{}, err
	}

	var err error
	if p.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.Patient{}, fmt.Errorf("patient %s: %w", p.ID, err)
	}
	if p.DeletedAt, err = parseNullTime("deleted_at", deletedAt); err != nil {
		return models.Patient{}, fmt.Errorf("patient %s: %w", p.ID, err)
	}
	return p, nil
}

func (d *DB) AddPatient(p models.Patient) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := d.exec(`
		INSERT INTO patients (`+patientColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.SurgeryDate, p.SurgeryType, p.ProtocolID, p.Timezone,
		formatTime(p.CreatedAt), nullableTime(p.DeletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to add patient: %w", err)
	}
	return nil
}

func (d *DB) GetPatient(id string) (models.Patient, error) {
	row := d.queryRow(`SELECT `+patientColumns+` FROM patients WHERE id = ? AND deleted_at IS NULL`, id)
	p, err := scanPatient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Patient{}, fmt.Errorf("patient with id %s: %w", id, storage.ErrNotFound)
	}
	return p, err
}

func (d *DB) GetAllPatients() ([]models.Patient, error) {
	return d.listPatients(`SELECT ` + patientColumns + ` FROM patients WHERE deleted_at IS NULL ORDER BY surgery_date, name`)
}

func (d *DB) GetAllPatientsIncludingDeleted() ([]models.Patient, error) {
	return d.listPatients(`SELECT ` + patientColumns + ` FROM patients ORDER BY surgery_date, name`)
}

func (d *DB) listPatients(query string) ([]models.Patient, error) {
	rows, err := d.query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	patients := make([]models.Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

// UpdatePatient updates a patient's details. The surgery date is fixed once
// a protocol has been assigned.
func (d *DB) UpdatePatient(p models.Patient) error {
	existing, err := d.GetPatient(p.ID)
	if err != nil {
		return err
	}
	if existing.ProtocolID != "" && existing.SurgeryDate != p.SurgeryDate {
		return fmt.Errorf("patient %s: %w", p.ID, storage.ErrSurgeryDateLocked)
	}

	_, err = d.exec(`
		UPDATE patients
		SET name = ?, surgery_date = ?, surgery_type = ?, protocol_id = ?, timezone = ?
		WHERE id = ?`,
		p.Name, p.SurgeryDate, p.SurgeryType, p.ProtocolID, p.Timezone, p.ID,
	)
	return err
}

func (d *DB) DeletePatient(id string) error {
	// Soft delete: set deleted_at timestamp instead of removing the record
	var deletedAt sql.NullString
	err := d.queryRow("SELECT deleted_at FROM patients WHERE id = ?", id).Scan(&deletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("patient with id %s: %w", id, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to check patient existence: %w", err)
	}

	if deletedAt.Valid {
		return fmt.Errorf("patient with id %s is already deleted", id)
	}

	_, err = d.exec("UPDATE patients SET deleted_at = ? WHERE id = ?", formatTime(time.Now()), id)
	return err
}

func (d *DB) RestorePatient(id string) error {
	var deletedAt sql.NullString
	err := d.queryRow("SELECT deleted_at FROM patients WHERE id = ?", id).Scan(&deletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("patient with id %s: %w", id, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to check patient existence: %w", err)
	}

	if !deletedAt.Valid {
		return fmt.Errorf("cannot restore a patient that is not deleted: %s", id)
	}

	_, err = d.exec("UPDATE patients SET deleted_at = NULL WHERE id = ?", id)
	return err
}
