package recovery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yndrdev/totalrecover/internal/cli"
	"github.com/yndrdev/totalrecover/internal/models"
)

// TaskRef names one task instance of a patient.
type TaskRef struct {
	Patient string `arg:"" help:"Patient ID, ID prefix or name."`
	Task    string `arg:"" help:"Task definition ID."`
	Day     string `short:"d" default:"today" help:"Recovery day number, date (YYYY-MM-DD) or 'today'."`
}

func (r TaskRef) resolve(ctx *cli.Context) (models.Patient, int, error) {
	p, err := ctx.ResolvePatient(r.Patient)
	if err != nil {
		return models.Patient{}, 0, err
	}
	st, err := ctx.Tracker.State(context.Background(), p.ID)
	if err != nil {
		return models.Patient{}, 0, err
	}
	day, err := resolveDay(st, r.Day)
	if err != nil {
		return models.Patient{}, 0, err
	}
	return p, day, nil
}

func printRecorded(ctx *cli.Context, inst models.TaskInstance) {
	ctx.Printf("%s %s on %s: %s\n", cli.StatusIcon(inst.Status), inst.Title, cli.FormatDay(inst.Day), inst.Status)
}

type CompleteCmd struct {
	TaskRef `embed:""`
	Data string `help:"Completion data as a JSON document."`
}

func (c *CompleteCmd) Validate() error {
	if c.Data != "" && !json.Valid([]byte(c.Data)) {
		return fmt.Errorf("--data must be valid JSON")
	}
	return nil
}

func (c *CompleteCmd) Run(ctx *cli.Context) error {
	p, day, err := c.resolve(ctx)
	if err != nil {
		return err
	}
	var data json.RawMessage
	if c.Data != "" {
		data = json.RawMessage(c.Data)
	}
	inst, err := ctx.Tracker.Complete(context.Background(), p.ID, c.Task, day, data)
	if err != nil {
		return err
	}
	printRecorded(ctx, inst)
	return nil
}

type SkipCmd struct {
	TaskRef `embed:""`
}

func (c *SkipCmd) Run(ctx *cli.Context) error {
	p, day, err := c.resolve(ctx)
	if err != nil {
		return err
	}
	inst, err := ctx.Tracker.Skip(context.Background(), p.ID, c.Task, day)
	if err != nil {
		return err
	}
	printRecorded(ctx, inst)
	return nil
}

type CancelCmd struct {
	TaskRef `embed:""`
}

func (c *CancelCmd) Run(ctx *cli.Context) error {
	p, day, err := c.resolve(ctx)
	if err != nil {
		return err
	}
	inst, err := ctx.Tracker.Cancel(context.Background(), p.ID, c.Task, day)
	if err != nil {
		return err
	}
	printRecorded(ctx, inst)
	return nil
}
