package patients

import (
	"fmt"

	"github.com/yndrdev/totalrecover/internal/cli"
)

type PatientDeleteCmd struct {
	Patient string `arg:"" help:"Patient ID, ID prefix or name."`
}

func (c *PatientDeleteCmd) Run(ctx *cli.Context) error {
	p, err := ctx.ResolvePatient(c.Patient)
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	if err := ctx.Store.DeletePatient(p.ID); err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	ctx.Printf("Deleted patient: %s\n", p.Name)
	ctx.Printf("Restore with: patient restore %s\n", p.ID)
	return nil
}

type PatientRestoreCmd struct {
	ID string `arg:"" help:"ID of the deleted patient."`
}

func (c *PatientRestoreCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.RestorePatient(c.ID); err != nil {
		return fmt.Errorf("failed to restore patient: %w", err)
	}
	p, err := ctx.Store.GetPatient(c.ID)
	if err != nil {
		return err
	}
	ctx.Printf("Restored patient: %s\n", p.Name)
	return nil
}
