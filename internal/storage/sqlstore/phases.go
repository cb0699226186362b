package sqlstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/yndrdev/totalrecover/internal/phase"
)

func (d *DB) SavePhaseTable(surgeryType string, table phase.Table) error {
	ranges, err := json.Marshal(table.Ranges)
	if err != nil {
		return fmt.Errorf("failed to encode phase table: %w", err)
	}

	_, err = d.exec(`
		INSERT INTO phase_tables (surgery_type, name, ranges, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (surgery_type) DO UPDATE SET
			name = excluded.name,
			ranges = excluded.ranges,
			updated_at = excluded.updated_at`,
		surgeryType, table.Name, string(ranges), formatTime(time.Now()),
	)
	return err
}

func (d *DB) GetPhaseTables() (map[string]phase.Table, error) {
	rows, err := d.query("SELECT surgery_type, name, ranges FROM phase_tables")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make(map[string]phase.Table)
	for rows.Next() {
		var surgeryType, name, ranges string
		if err := rows.Scan(&surgeryType, &name, &ranges); err != nil {
			return nil, err
		}

		table := phase.Table{Name: name}
		if err := json.Unmarshal([]byte(ranges), &table.Ranges); err != nil {
			return nil, fmt.Errorf("failed to decode phase table for %s: %w", surgeryType, err)
		}
		tables[surgeryType] = table
	}
	return tables, rows.Err()
}
