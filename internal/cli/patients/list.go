package patients

import (
	"context"
	"fmt"

	"github.com/yndrdev/totalrecover/internal/cli"
	"github.com/yndrdev/totalrecover/internal/models"
)

type PatientListCmd struct {
	All     bool `help:"Include deleted patients."`
	ShowIDs bool `help:"Show patient IDs." name:"show-ids"`
}

func (c *PatientListCmd) Run(ctx *cli.Context) error {
	var (
		patients []models.Patient
		err      error
	)
	if c.All {
		patients, err = ctx.Store.GetAllPatientsIncludingDeleted()
	} else {
		patients, err = ctx.Store.GetAllPatients()
	}
	if err != nil {
		return fmt.Errorf("failed to get patients: %w", err)
	}
	if len(patients) == 0 {
		ctx.Println("No patients found")
		return nil
	}

	ctx.Println("Patients:")
	for _, p := range patients {
		idStr := ""
		if c.ShowIDs {
			idStr = fmt.Sprintf(" (ID: %s)", p.ID)
		}
		status := "no protocol"
		if p.DeletedAt != nil {
			status = "deleted"
		} else if p.ProtocolID != "" {
			status = dayLabel(ctx, p)
		}
		ctx.Printf("  %s%s - %s on %s [%s]\n", p.Name, idStr, p.SurgeryType, p.SurgeryDate, status)
	}
	return nil
}

func dayLabel(ctx *cli.Context, p models.Patient) string {
	st, err := ctx.Tracker.State(context.Background(), p.ID)
	if err != nil {
		return "error: " + err.Error()
	}
	return fmt.Sprintf("day %d, %s", st.CurrentDay, st.Phases.Classify(st.CurrentDay))
}
