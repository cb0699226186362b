package settings

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/yndrdev/totalrecover/internal/cli"
	"github.com/yndrdev/totalrecover/internal/constants"
	"github.com/yndrdev/totalrecover/internal/models"
	"github.com/yndrdev/totalrecover/internal/phase"
	"github.com/yndrdev/totalrecover/internal/utils"
)

type SettingsCmd struct {
	Show SettingsShowCmd `cmd:"" default:"1" help:"List current settings."`
	Set  SettingsSetCmd  `cmd:"" help:"Change one setting."`
}

type SettingsShowCmd struct{}

func (c *SettingsShowCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	values := models.SettingsToMap(settings)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ctx.Println("Current Settings:")
	for _, k := range keys {
		ctx.Printf("  %-22s %s\n", k+":", values[k])
	}
	return nil
}

type SettingsSetCmd struct {
	Key   string `arg:"" enum:"timezone,timeline_start,timeline_end,phase_granularity,notifications_enabled" help:"Setting name."`
	Value string `arg:"" help:"New value."`
}

func (c *SettingsSetCmd) Run(ctx *cli.Context) error {
	current, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	values := models.SettingsToMap(current)
	if _, ok := values[c.Key]; !ok {
		return fmt.Errorf("unknown setting: %s", c.Key)
	}
	if c.Key == constants.SettingNotificationsEnabled {
		b, err := strconv.ParseBool(c.Value)
		if err != nil {
			return fmt.Errorf("notifications_enabled must be true or false")
		}
		c.Value = strconv.FormatBool(b)
	}
	values[c.Key] = c.Value

	updated, err := models.MapToSettings(values)
	if err != nil {
		return err
	}
	if err := validate(updated); err != nil {
		return err
	}

	if err := ctx.Store.SaveSettings(updated); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ctx.Printf("Set %s = %s\n", c.Key, c.Value)
	return nil
}

func validate(s models.Settings) error {
	if !utils.ValidateTimezone(s.Timezone) {
		return fmt.Errorf("invalid timezone: %s", s.Timezone)
	}
	if s.TimelineStart < constants.MinTimelineStart || s.TimelineEnd > constants.MaxTimelineEnd {
		return fmt.Errorf("timeline range must stay within days %d to %d", constants.MinTimelineStart, constants.MaxTimelineEnd)
	}
	if s.TimelineStart > s.TimelineEnd {
		return fmt.Errorf("timeline_start (%d) must not be after timeline_end (%d)", s.TimelineStart, s.TimelineEnd)
	}
	if _, err := phase.ForGranularity(s.PhaseGranularity); err != nil {
		return err
	}
	return nil
}
