package models

import (
	"fmt"
	"strconv"

	"github.com/yndrdev/totalrecover/internal/constants"
)

// DefaultSettings returns the settings a freshly initialized store starts with.
func DefaultSettings() Settings {
	return Settings{
		Timezone:             constants.DefaultTimezone,
		TimelineStart:        constants.DefaultTimelineStart,
		TimelineEnd:          constants.DefaultTimelineEnd,
		PhaseGranularity:     constants.DefaultPhaseGranularity,
		NotificationsEnabled: constants.DefaultNotificationsEnabled,
	}
}

// MapToSettings converts a map of key-value pairs to a Settings struct.
// Keys absent from data keep their default value.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := DefaultSettings()

	for key, value := range data {
		switch key {
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingTimelineStart:
			n, err := strconv.Atoi(value)
			if err != nil {
				return Settings{}, fmt.Errorf("parsing %s: %w", key, err)
			}
			settings.TimelineStart = n
		case constants.SettingTimelineEnd:
			n, err := strconv.Atoi(value)
			if err != nil {
				return Settings{}, fmt.Errorf("parsing %s: %w", key, err)
			}
			settings.TimelineEnd = n
		case constants.SettingPhaseGranularity:
			settings.PhaseGranularity = value
		case constants.SettingNotificationsEnabled:
			settings.NotificationsEnabled = value == "true"
		}
	}
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingTimezone:             settings.Timezone,
		constants.SettingTimelineStart:        strconv.Itoa(settings.TimelineStart),
		constants.SettingTimelineEnd:          strconv.Itoa(settings.TimelineEnd),
		constants.SettingPhaseGranularity:     settings.PhaseGranularity,
		constants.SettingNotificationsEnabled: strconv.FormatBool(settings.NotificationsEnabled),
	}
}
