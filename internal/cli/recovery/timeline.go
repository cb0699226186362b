package recovery

import (
	"context"
	"fmt"

	"github.com/yndrdev/totalrecover/internal/cli"
	"github.com/yndrdev/totalrecover/internal/constants"
	"github.com/yndrdev/totalrecover/internal/models"
	"github.com/yndrdev/totalrecover/internal/timeline"
)

type TimelineCmd struct {
	Patient string `arg:"" help:"Patient ID, ID prefix or name."`
	Page    *int   `short:"p" help:"Page of weeks to show, starting at 1 (defaults to the page with the current week)."`
	Size    int    `short:"n" default:"4" help:"Weeks per page."`
	From    *int   `help:"First recovery day to show (defaults to the timeline_start setting)."`
	To      *int   `help:"Last recovery day to show (defaults to the timeline_end setting)."`
}

func (c *TimelineCmd) Validate() error {
	if c.Size < 1 {
		return fmt.Errorf("weeks per page must be at least 1")
	}
	if c.Page != nil && *c.Page < 1 {
		return fmt.Errorf("page must be at least 1")
	}
	if c.From != nil && *c.From < constants.MinTimelineStart {
		return fmt.Errorf("--from must be at least %d", constants.MinTimelineStart)
	}
	if c.To != nil && *c.To > constants.MaxTimelineEnd {
		return fmt.Errorf("--to must be at most %d", constants.MaxTimelineEnd)
	}
	if c.From != nil && c.To != nil && *c.From > *c.To {
		return fmt.Errorf("--from (%d) must not be after --to (%d)", *c.From, *c.To)
	}
	return nil
}

func (c *TimelineCmd) Run(ctx *cli.Context) error {
	p, err := ctx.ResolvePatient(c.Patient)
	if err != nil {
		return err
	}
	tl, err := c.timeline(ctx, p.ID)
	if err != nil {
		return err
	}

	page := 0
	if c.Page != nil {
		page = *c.Page - 1
	} else if idx, err := tl.WeekIndex(tl.CurrentDay); err == nil {
		page = idx / c.Size
	}
	weeks, pages := tl.Page(page, c.Size)
	if weeks == nil {
		return fmt.Errorf("page %d out of range (1 to %d)", page+1, pages)
	}

	ctx.Printf("%s · %s · page %d of %d\n\n", p.Name, cli.FormatDay(tl.CurrentDay), page+1, pages)
	for _, w := range weeks {
		printWeek(ctx, w, tl.CurrentDay)
	}

	sum := tl.Summary()
	ctx.Printf("\nCompliance: %.0f%% (%d completed, %d missed)\n", sum.Compliance, sum.TaskCounts.Completed, sum.TaskCounts.Missed)
	return nil
}

func (c *TimelineCmd) timeline(ctx *cli.Context, patientID string) (*timeline.Timeline, error) {
	bg := context.Background()
	if c.From == nil && c.To == nil {
		return ctx.Tracker.Timeline(bg, patientID)
	}
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	from, to := settings.TimelineStart, settings.TimelineEnd
	if c.From != nil {
		from = *c.From
	}
	if c.To != nil {
		to = *c.To
	}
	return ctx.Tracker.TimelineRange(bg, patientID, from, to)
}

func printWeek(ctx *cli.Context, w models.WeekSummary, currentDay int) {
	marker := " "
	if w.StartDay <= currentDay && currentDay <= w.EndDay {
		marker = "▶"
	}
	badge := ""
	if w.HasNotifications {
		badge = " ●"
	}
	ctx.Printf("%s Week %-4d days %4d to %-4d %3d/%-3d done  %d missed%s\n",
		marker, w.Number, w.StartDay, w.EndDay, w.TaskCounts.Completed, w.TaskCounts.Total, w.TaskCounts.Missed, badge)
}

type WeekCmd struct {
	Patient string `arg:"" help:"Patient ID, ID prefix or name."`
	Day     string `arg:"" optional:"" default:"today" help:"Any day in the week: number, date (YYYY-MM-DD) or 'today'."`
}

func (c *WeekCmd) Run(ctx *cli.Context) error {
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
	tl, err := ctx.Tracker.Timeline(bg, p.ID)
	if err != nil {
		return err
	}
	w, err := tl.FindWeekContaining(day)
	if err != nil {
		return ctx.PrintOutOfRange(err)
	}

	printWeek(ctx, w, tl.CurrentDay)
	for _, d := range w.Days {
		conv := ""
		if d.HasConversation {
			conv = " 💬"
		}
		ctx.Printf("    %-24s %-10s %-17s %d/%d%s\n", cli.FormatDay(d.Day), d.Date, d.Phase, d.TaskCounts.Completed, d.TaskCounts.Total, conv)
	}
	return nil
}
