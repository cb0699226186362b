package protocols

import (
	"fmt"

	"github.com/yndrdev/totalrecover/internal/cli"
)

type ProtocolListCmd struct{}

func (c *ProtocolListCmd) Run(ctx *cli.Context) error {
	protocols, err := ctx.Store.GetAllProtocols()
	if err != nil {
		return fmt.Errorf("failed to get protocols: %w", err)
	}
	if len(protocols) == 0 {
		ctx.Println("No protocols found")
		return nil
	}

	ctx.Println("Protocols:")
	for _, p := range protocols {
		ctx.Printf("  %s v%d (ID: %s) - %s, %d task(s)\n", p.Name, p.Version, p.ID, p.SurgeryType, len(p.Tasks))
	}
	return nil
}
