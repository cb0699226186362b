package patients

import (
	"context"
	"errors"

	"github.com/yndrdev/totalrecover/internal/cli"
	"github.com/yndrdev/totalrecover/internal/tracker"
)

type PatientShowCmd struct {
	Patient string `arg:"" help:"Patient ID, ID prefix or name."`
}

func (c *PatientShowCmd) Run(ctx *cli.Context) error {
	p, err := ctx.ResolvePatient(c.Patient)
	if err != nil {
		return err
	}

	ctx.Printf("Name:          %s\n", p.Name)
	ctx.Printf("ID:            %s\n", p.ID)
	ctx.Printf("Surgery:       %s on %s\n", p.SurgeryType, p.SurgeryDate)
	if p.Timezone != "" {
		ctx.Printf("Timezone:      %s\n", p.Timezone)
	}

	bg := context.Background()
	st, err := ctx.Tracker.State(bg, p.ID)
	if errors.Is(err, tracker.ErrNoProtocol) {
		ctx.Println("Protocol:      none")
		return nil
	}
	if err != nil {
		return err
	}
	ctx.Printf("Protocol:      %s v%d (%s)\n", st.Protocol.Name, st.Protocol.Version, st.Protocol.ID)
	ctx.Printf("Recovery day:  %d (%s)\n", st.CurrentDay, st.Phases.Classify(st.CurrentDay))

	tl, err := ctx.Tracker.Timeline(bg, p.ID)
	if err != nil {
		return err
	}
	sum := tl.Summary()
	ctx.Printf("Compliance:    %.0f%% (%d completed, %d missed)\n", sum.Compliance, sum.TaskCounts.Completed, sum.TaskCounts.Missed)
	return nil
}
