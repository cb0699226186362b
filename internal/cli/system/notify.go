package system

import (
	"context"
	"fmt"

	"github.com/yndrdev/totalrecover/internal/cli"
	"github.com/yndrdev/totalrecover/internal/logger"
	"github.com/yndrdev/totalrecover/internal/notifier"
)

// sender delivers one notification text.
type sender interface {
	Notify(ctx context.Context, text string) error
}

var newSender = func() sender { return notifier.New() }

type NotifyCmd struct {
	DryRun bool `help:"Print notifications to stdout instead of sending them."`
}

func (c *NotifyCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if !settings.NotificationsEnabled {
		if c.DryRun {
			ctx.Println("Notifications are disabled in settings.")
		}
		return nil
	}

	patients, err := ctx.Store.GetAllPatients()
	if err != nil {
		return fmt.Errorf("failed to get patients: %w", err)
	}

	bg := context.Background()
	n := newSender()
	sent := 0
	for _, p := range patients {
		if p.ProtocolID == "" {
			continue
		}
		missed, err := ctx.Tracker.CatchUp(bg, p.ID)
		if err != nil {
			logger.Warn("catch-up failed", "patient", p.ID, "error", err)
			continue
		}
		msg := notifier.CatchUpText(p.Name, missed)
		if msg == "" {
			continue
		}

		if c.DryRun {
			ctx.Println("[DryRun] " + msg)
			sent++
			continue
		}
		if err := n.Notify(bg, msg); err != nil {
			// Keep going so one failure does not hide other patients
			ctx.Printf("Failed to send notification: %v\n", err)
			continue
		}
		sent++
	}

	if c.DryRun && sent == 0 {
		ctx.Println("Nothing to catch up on.")
	}
	return nil
}
