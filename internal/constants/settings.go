package constants

const (
	SettingTimezone             = "timezone"
	SettingTimelineStart        = "timeline_start"
	SettingTimelineEnd          = "timeline_end"
	SettingPhaseGranularity     = "phase_granularity"
	SettingNotificationsEnabled = "notifications_enabled"

	DefaultTimezone             = "Local" // Use system local timezone by default
	DefaultTimelineStart        = -45     // enrollment typically starts 45 days before surgery
	DefaultTimelineEnd          = 200
	DefaultPhaseGranularity     = "standard"
	DefaultNotificationsEnabled = true

	// Bounds on the timeline range, one year before surgery to ten years after.
	MinTimelineStart = -365
	MaxTimelineEnd   = 3650
)
