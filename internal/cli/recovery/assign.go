package recovery

import (
	"context"

	"github.com/yndrdev/totalrecover/internal/cli"
)

type AssignCmd struct {
	Patient  string `arg:"" help:"Patient ID, ID prefix or name."`
	Protocol string `arg:"" optional:"" help:"Protocol ID (defaults to the latest for the surgery type)."`
}

func (c *AssignCmd) Run(ctx *cli.Context) error {
	p, err := ctx.ResolvePatient(c.Patient)
	if err != nil {
		return err
	}
	protocol, err := ctx.Tracker.Assign(context.Background(), p.ID, c.Protocol)
	if err != nil {
		return err
	}
	ctx.Printf("Assigned %s v%d to %s\n", protocol.Name, protocol.Version, p.Name)
	return nil
}
