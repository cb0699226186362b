package protocols

import (
	"fmt"
	"strings"

	"github.com/yndrdev/totalrecover/internal/cli"
	"github.com/yndrdev/totalrecover/internal/models"
	"github.com/yndrdev/totalrecover/internal/protocols"
	"github.com/yndrdev/totalrecover/internal/utils"
)

type ProtocolShowCmd struct {
	ID   string `arg:"" help:"Protocol ID."`
	YAML bool   `name:"yaml" help:"Print the protocol as an importable YAML file."`
}

func (c *ProtocolShowCmd) Run(ctx *cli.Context) error {
	p, err := ctx.Store.GetProtocol(c.ID)
	if err != nil {
		return err
	}

	if c.YAML {
		tables, err := ctx.Store.GetPhaseTables()
		if err != nil {
			return fmt.Errorf("failed to get phase tables: %w", err)
		}
		data, err := protocols.Marshal(p, tables)
		if err != nil {
			return fmt.Errorf("failed to marshal protocol: %w", err)
		}
		ctx.Print(string(data))
		return nil
	}

	ctx.Printf("%s v%d (%s)\n", p.Name, p.Version, p.SurgeryType)
	table, err := ctx.Tracker.PhaseTable(p.SurgeryType)
	if err != nil {
		return err
	}
	ctx.Printf("Phases (%s):\n", table.Name)
	for _, r := range table.Ranges {
		ctx.Printf("  %-18s days %d to %d\n", r.Phase, r.Start, r.End)
	}

	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	ctx.Println("Tasks:")
	for _, t := range p.Tasks {
		req := ""
		if t.Required {
			req = " (required)"
		}
		ctx.Printf("  %-16s %-10s %s%s\n", t.ID, t.TaskType, t.Title, req)
		schedule := describeSchedule(t)
		// Custom weekday rules depend on the surgery date, so they are not counted.
		if r := t.Recurrence; r == nil || r.Frequency != models.FrequencyCustom || len(r.DaysOfWeek) == 0 {
			n := len(utils.Occurrences(t, settings.TimelineStart, settings.TimelineEnd))
			schedule += fmt.Sprintf(" (%d occurrence(s) in days %d to %d)", n, settings.TimelineStart, settings.TimelineEnd)
		}
		ctx.Printf("      %s\n", schedule)
	}
	return nil
}

func describeSchedule(t models.TaskDefinition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "from day %d", t.AnchorDay)
	if r := t.Recurrence; r != nil {
		switch r.Frequency {
		case models.FrequencyCustom:
			days := make([]string, 0, len(r.DaysOfWeek))
			for _, wd := range r.DaysOfWeek {
				days = append(days, wd.String()[:3])
			}
			fmt.Fprintf(&b, ", on %s", strings.Join(days, "/"))
		default:
			interval := r.Interval
			if interval == 0 {
				interval = 1
			}
			fmt.Fprintf(&b, ", %s every %d", r.Frequency, interval)
		}
		fmt.Fprintf(&b, " until day %d", r.EndDay)
	} else {
		b.WriteString(" only")
	}
	if t.Phase != "" {
		fmt.Fprintf(&b, ", during %s", t.Phase)
	}
	return b.String()
}
