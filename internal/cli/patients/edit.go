package patients

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yndrdev/totalrecover/internal/cli"
	"github.com/yndrdev/totalrecover/internal/storage"
	"github.com/yndrdev/totalrecover/internal/utils"
)

type PatientEditCmd struct {
	Patient     string  `arg:"" help:"Patient ID, ID prefix or name."`
	Name        *string `help:"New name."`
	SurgeryDate *string `help:"New surgery date (only before a protocol is assigned)."`
	SurgeryType *string `help:"New surgery type."`
	Timezone    *string `help:"New IANA timezone; empty to follow the timezone setting."`
}

func (c *PatientEditCmd) Validate() error {
	if c.Name != nil && strings.TrimSpace(*c.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if c.SurgeryDate != nil {
		if _, err := utils.ParseDateInLocation(*c.SurgeryDate, time.UTC); err != nil {
			return fmt.Errorf("invalid surgery date (expected YYYY-MM-DD): %w", err)
		}
	}
	if c.Timezone != nil && !utils.ValidateTimezone(*c.Timezone) {
		return fmt.Errorf("invalid timezone: %s", *c.Timezone)
	}
	return nil
}

func (c *PatientEditCmd) Run(ctx *cli.Context) error {
	p, err := ctx.ResolvePatient(c.Patient)
	if err != nil {
		return err
	}

	if c.Name != nil {
		p.Name = strings.TrimSpace(*c.Name)
	}
	if c.SurgeryDate != nil {
		p.SurgeryDate = *c.SurgeryDate
	}
	if c.SurgeryType != nil {
		p.SurgeryType = *c.SurgeryType
	}
	if c.Timezone != nil {
		p.Timezone = *c.Timezone
	}

	if err := ctx.Store.UpdatePatient(p); err != nil {
		if errors.Is(err, storage.ErrSurgeryDateLocked) {
			return fmt.Errorf("cannot move the surgery date of %s: recovery days are already anchored to it", p.Name)
		}
		return fmt.Errorf("failed to update patient: %w", err)
	}
	ctx.Printf("Updated patient: %s\n", p.Name)
	return nil
}
