package system

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yndrdev/totalrecover/internal/cli"
	"github.com/yndrdev/totalrecover/internal/tui"
)

type TuiCmd struct {
	Patient string `arg:"" help:"Patient ID, ID prefix or name."`
}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	p, err := ctx.ResolvePatient(c.Patient)
	if err != nil {
		return err
	}

	// Snapshot before an interactive session can record statuses
	ctx.PerformAutomaticBackup()

	m, err := tui.NewModel(context.Background(), ctx.Tracker, p.ID)
	if err != nil {
		return err
	}
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("timeline viewer failed: %w", err)
	}
	return nil
}
