package protocols

import (
	"fmt"

	"github.com/yndrdev/totalrecover/internal/cli"
)

type ProtocolDeleteCmd struct {
	ID    string `arg:"" help:"Protocol ID."`
	Force bool   `help:"Delete even when patients are assigned to it."`
}

func (c *ProtocolDeleteCmd) Run(ctx *cli.Context) error {
	p, err := ctx.Store.GetProtocol(c.ID)
	if err != nil {
		return err
	}

	patients, err := ctx.Store.GetAllPatients()
	if err != nil {
		return fmt.Errorf("failed to get patients: %w", err)
	}
	assigned := 0
	for _, pt := range patients {
		if pt.ProtocolID == p.ID {
			assigned++
		}
	}
	if assigned > 0 && !c.Force {
		return fmt.Errorf("protocol %s is assigned to %d patient(s); reassign them or use --force", p.ID, assigned)
	}

	ctx.PerformAutomaticBackup()

	if err := ctx.Store.DeleteProtocol(p.ID); err != nil {
		return fmt.Errorf("failed to delete protocol: %w", err)
	}
	ctx.Printf("Deleted protocol: %s v%d\n", p.Name, p.Version)
	return nil
}
