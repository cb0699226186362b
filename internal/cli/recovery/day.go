package recovery

import (
	"context"
	"fmt"
	"strconv"

	"github.com/yndrdev/totalrecover/internal/cli"
	"github.com/yndrdev/totalrecover/internal/tracker"
	"github.com/yndrdev/totalrecover/internal/utils"
)

// resolveDay turns "today", a recovery day number, or a YYYY-MM-DD date
// into a recovery day for the patient.
func resolveDay(st *tracker.PatientState, ref string) (int, error) {
	if ref == "" || ref == "today" {
		return st.CurrentDay, nil
	}
	if n, err := strconv.Atoi(ref); err == nil {
		return n, nil
	}
	date, err := utils.ParseDateInLocation(ref, st.Clock.Location())
	if err != nil {
		return 0, fmt.Errorf("invalid day %q (expected a number, YYYY-MM-DD or 'today')", ref)
	}
	return utils.DayFor(st.SurgeryDate, date), nil
}

type DayCmd struct {
	Patient string `arg:"" help:"Patient ID, ID prefix or name."`
	Day     string `arg:"" optional:"" default:"today" help:"Recovery day number, date (YYYY-MM-DD) or 'today'."`
}

func (c *DayCmd) Run(ctx *cli.Context) error {
	p, err := ctx.ResolvePatient(c.Patient)
	if err != nil {
		return err
	}
	bg := context.Background()
	st, err := ctx.Tracker.State(bg, p.ID)
	if err != nil {
		return err
	}
	day, err := resolveDay(st, c.Day)
	if err != nil {
		return err
	}

	summary, err := ctx.Tracker.Day(bg, p.ID, day)
	if err != nil {
		return ctx.PrintOutOfRange(err)
	}
	ctx.PrintDay(summary)
	return nil
}
