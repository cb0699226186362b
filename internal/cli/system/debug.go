package system

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yndrdev/totalrecover/internal/cli"
)

type DebugCmd struct {
	DBPath       DebugDBPathCmd       `cmd:"" name:"db-path" help:"Show database path."`
	DumpDay      DebugDumpDayCmd      `cmd:"" help:"Dump one recovery day as JSON."`
	DumpPatient  DebugDumpPatientCmd  `cmd:"" help:"Dump patient data as JSON."`
	DumpSettings DebugDumpSettingsCmd `cmd:"" help:"Dump settings data as JSON."`
}

func printJSON(ctx *cli.Context, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(jsonBytes))
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	// Machine-readable for scripts
	return printJSON(ctx, map[string]string{"path": ctx.Store.GetConfigPath()})
}

type DebugDumpDayCmd struct {
	Patient string `arg:"" help:"Patient ID, ID prefix or name."`
	Day     *int   `arg:"" optional:"" help:"Recovery day (defaults to today)."`
}

func (cmd *DebugDumpDayCmd) Run(ctx *cli.Context) error {
	p, err := ctx.ResolvePatient(cmd.Patient)
	if err != nil {
		return err
	}
	bg := context.Background()
	if cmd.Day == nil {
		d, err := ctx.Tracker.Today(bg, p.ID)
		if err != nil {
			return err
		}
		return printJSON(ctx, d)
	}
	d, err := ctx.Tracker.Day(bg, p.ID, *cmd.Day)
	if err != nil {
		return err
	}
	return printJSON(ctx, d)
}

type DebugDumpPatientCmd struct {
	Patient string `arg:"" help:"Patient ID, ID prefix or name."`
}

func (cmd *DebugDumpPatientCmd) Run(ctx *cli.Context) error {
	p, err := ctx.ResolvePatient(cmd.Patient)
	if err != nil {
		return err
	}
	return printJSON(ctx, p)
}

type DebugDumpSettingsCmd struct{}

func (cmd *DebugDumpSettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	return printJSON(ctx, settings)
}
