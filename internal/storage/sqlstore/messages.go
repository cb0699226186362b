package sqlstore

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yndrdev/totalrecover/internal/models"
)

func (d *DB) AddMessage(m models.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	_, err := d.exec(`
		INSERT INTO messages (id, patient_id, day, role, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.PatientID, m.Day, string(m.Role), m.Body, formatTime(m.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to add message: %w", err)
	}
	return nil
}

func (d *DB) GetMessages(patientID string, day int) ([]models.Message, error) {
	rows, err := d.query(`
		SELECT id, patient_id, day, role, body, created_at
		FROM messages WHERE patient_id = ? AND day = ?
		ORDER BY created_at, id`, patientID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		var role, createdAt string
		if err := rows.Scan(&m.ID, &m.PatientID, &m.Day, &role, &m.Body, &createdAt); err != nil {
			return nil, err
		}
		m.Role = models.MessageRole(role)
		if m.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, fmt.Errorf("message %s: %w", m.ID, err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (d *DB) GetMessageDays(patientID string, startDay, endDay int) (map[int]bool, error) {
	rows, err := d.query(`
		SELECT DISTINCT day FROM messages
		WHERE patient_id = ? AND day >= ? AND day <= ?`, patientID, startDay, endDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make(map[int]bool)
	for rows.Next() {
		var day int
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		days[day] = true
	}
	return days, rows.Err()
}
