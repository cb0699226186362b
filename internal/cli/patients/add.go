package patients

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yndrdev/totalrecover/internal/cli"
	"github.com/yndrdev/totalrecover/internal/models"
	"github.com/yndrdev/totalrecover/internal/storage"
	"github.com/yndrdev/totalrecover/internal/utils"
)

type PatientAddCmd struct {
	Name        string `arg:"" help:"Patient name."`
	SurgeryDate string `short:"d" help:"Surgery date (YYYY-MM-DD)." required:""`
	SurgeryType string `short:"t" help:"Surgery type, e.g. knee_replacement." required:""`
	Timezone    string `help:"IANA timezone of the patient (defaults to the timezone setting)."`
	Protocol    string `short:"p" help:"Protocol ID to assign."`
	NoAssign    bool   `help:"Do not assign the latest protocol for the surgery type."`
}

func (c *PatientAddCmd) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if _, err := utils.ParseDateInLocation(c.SurgeryDate, time.UTC); err != nil {
		return fmt.Errorf("invalid surgery date (expected YYYY-MM-DD): %w", err)
	}
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone: %s", c.Timezone)
	}
	if c.Protocol != "" && c.NoAssign {
		return fmt.Errorf("--protocol and --no-assign are mutually exclusive")
	}
	return nil
}

func (c *PatientAddCmd) Run(ctx *cli.Context) error {
	patient := models.Patient{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(c.Name),
		SurgeryDate: c.SurgeryDate,
		SurgeryType: c.SurgeryType,
		Timezone:    c.Timezone,
		CreatedAt:   time.Now(),
	}
	if err := ctx.Store.AddPatient(patient); err != nil {
		return fmt.Errorf("failed to add patient: %w", err)
	}
	ctx.Printf("Added patient: %s (%s)\n", patient.Name, patient.ID)

	if c.NoAssign {
		return nil
	}
	protocol, err := ctx.Tracker.Assign(context.Background(), patient.ID, c.Protocol)
	if err != nil {
		// Without an explicit protocol a missing one is expected
		if c.Protocol == "" && errors.Is(err, storage.ErrNotFound) {
			ctx.Printf("No protocol found for %s; assign one later with 'assign'\n", patient.SurgeryType)
			return nil
		}
		return fmt.Errorf("failed to assign protocol: %w", err)
	}
	ctx.Printf("Assigned protocol: %s v%d\n", protocol.Name, protocol.Version)
	return nil
}
