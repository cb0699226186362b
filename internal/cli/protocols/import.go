package protocols

import (
	"context"
	"fmt"

	"github.com/yndrdev/totalrecover/internal/cli"
	"github.com/yndrdev/totalrecover/internal/protocols"
)

type ProtocolImportCmd struct {
	Path string `arg:"" type:"existingfile" help:"Protocol YAML file."`
}

func (c *ProtocolImportCmd) Run(ctx *cli.Context) error {
	bundle, err := protocols.Load(c.Path)
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	result, err := ctx.Tracker.Import(context.Background(), bundle)
	if result.HasConflicts() {
		ctx.Print(result.FormatReport())
	}
	if err != nil {
		return err
	}

	p := bundle.Protocol
	ctx.Printf("Imported protocol: %s v%d (%s), %d task(s)\n", p.Name, p.Version, p.ID, len(p.Tasks))
	return nil
}

type ProtocolValidateCmd struct {
	Path string `arg:"" type:"existingfile" help:"Protocol YAML file."`
}

func (c *ProtocolValidateCmd) Run(ctx *cli.Context) error {
	bundle, err := protocols.Load(c.Path)
	if err != nil {
		return err
	}

	result, err := ctx.Tracker.Validate(context.Background(), bundle)
	if err != nil {
		return err
	}
	ctx.Println(result.FormatReport())
	if result.HasErrors() {
		return fmt.Errorf("protocol %s is invalid: %w", bundle.Protocol.ID, result.Err())
	}
	if w := result.Warnings(); len(w) > 0 {
		ctx.Printf("Protocol %s can be imported with %d warning(s).\n", bundle.Protocol.ID, len(w))
	}
	return nil
}
