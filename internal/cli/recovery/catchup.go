package recovery

import (
	"context"

	"github.com/yndrdev/totalrecover/internal/cli"
	"github.com/yndrdev/totalrecover/internal/models"
)

type CatchUpCmd struct {
	Patient string `arg:"" help:"Patient ID, ID prefix or name."`
}

func (c *CatchUpCmd) Run(ctx *cli.Context) error {
	p, err := ctx.ResolvePatient(c.Patient)
	if err != nil {
		return err
	}
	missed, err := ctx.Tracker.CatchUp(context.Background(), p.ID)
	if err != nil {
		return err
	}
	if len(missed) == 0 {
		ctx.Println("All caught up!")
		return nil
	}
	ctx.Printf("%d task(s) to catch up on:\n", len(missed))
	for _, title := range missed {
		ctx.Printf("  %s %s\n", cli.StatusIcon(models.StatusMissed), title)
	}
	return nil
}
