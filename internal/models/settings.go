package models

type Settings struct {
	Timezone             string `json:"timezone"`
	TimelineStart        int    `json:"timeline_start"`
	TimelineEnd          int    `json:"timeline_end"`
	PhaseGranularity     string `json:"phase_granularity"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
}
