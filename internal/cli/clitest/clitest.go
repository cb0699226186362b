// Package clitest builds command contexts over a throwaway SQLite store.
package clitest

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/yndrdev/totalrecover/internal/cli"
	"github.com/yndrdev/totalrecover/internal/models"
	"github.com/yndrdev/totalrecover/internal/storage/sqlite"
)

// Now is the fixed wall clock of every context: recovery day 10 for a
// patient seeded with SeedPatient.
var Now = time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)

// NewContext returns an initialized store wrapped in a context whose output
// is captured in the returned buffer.
func NewContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	out := &bytes.Buffer{}
	ctx := cli.NewContext(store)
	ctx.Out = out
	ctx.Tracker.WithNow(func() time.Time { return Now })
	return ctx, out
}

// KneeProtocol has a one-off task on surgery day and a required daily walk
// through day 30.
func KneeProtocol() models.Protocol {
	return models.Protocol{
		ID:          "knee-v1",
		Name:        "Knee replacement",
		SurgeryType: "knee_replacement",
		Version:     1,
		CreatedAt:   Now.Add(-30 * 24 * time.Hour),
		Tasks: []models.TaskDefinition{
			{ID: "ice", AnchorDay: 0, TaskType: models.TaskTypeMedication, Title: "Ice knee", Position: 0},
			{
				ID: "walk", AnchorDay: 1, TaskType: models.TaskTypeExercise, Title: "Walk", Required: true, Position: 1,
				Recurrence: &models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 1, EndDay: 30},
			},
		},
	}
}

// SeedPatient stores KneeProtocol and a patient operated on 2024-03-01 in
// UTC with that protocol assigned.
func SeedPatient(t *testing.T, ctx *cli.Context) models.Patient {
	t.Helper()
	if err := ctx.Store.SaveProtocol(KneeProtocol()); err != nil {
		t.Fatalf("failed to save protocol: %v", err)
	}
	p := models.Patient{
		ID:          "0b6f1c2e-patient-ana",
		Name:        "Ana",
		SurgeryDate: "2024-03-01",
		SurgeryType: "knee_replacement",
		ProtocolID:  "knee-v1",
		Timezone:    "UTC",
		CreatedAt:   Now.Add(-20 * 24 * time.Hour),
	}
	if err := ctx.Store.AddPatient(p); err != nil {
		t.Fatalf("failed to add patient: %v", err)
	}
	return p
}
