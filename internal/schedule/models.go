package schedule

import "time"

// ScheduledTask is one concrete calendar placement for a day. Flexible tasks
// that have not been placed yet carry nil StartTime/EndTime and rely on
// Duration instead; once placed, Duration is kept in sync with the time range.
type ScheduledTask struct {
	ID                 string     `json:"id"`
	UserID             int        `json:"-"`
	Name               string     `json:"name"`
	StartTime          *time.Time `json:"start_time"`
	EndTime            *time.Time `json:"end_time"`
	ScheduledDate      string     `json:"scheduled_date"` // YYYY-MM-DD, local day bucket
	Duration           int        `json:"duration"`       // minutes
	BreakDuration      int        `json:"break_duration"` // trailing break bundled with the task
	IsCritical         bool       `json:"is_critical"`
	IsBackburner       bool       `json:"is_backburner"`
	IsFlexible         bool       `json:"is_flexible"`
	IsLocked           bool       `json:"is_locked"`
	IsCompleted        bool       `json:"is_completed"`
	EnergyCost         int        `json:"energy_cost"`
	IsCustomEnergyCost bool       `json:"is_custom_energy_cost"`
	TaskEnvironment    string     `json:"task_environment"`
	SourceCalendarID   *string    `json:"source_calendar_id"`
	CreatedAt          time.Time  `json:"created_at"`
}

// FromCalendar reports whether the row is a read-only external calendar import.
func (t ScheduledTask) FromCalendar() bool {
	return t.SourceCalendarID != nil && *t.SourceCalendarID != ""
}

// DurationMinutes resolves the task's length: time range when placed,
// stored duration otherwise. Zero means the task carries no usable length.
func (t ScheduledTask) DurationMinutes() int {
	if t.StartTime != nil && t.EndTime != nil {
		d := int(t.EndTime.Sub(*t.StartTime).Minutes())
		if d < 0 {
			// midnight rollover: end stored on the next day
			d += 24 * 60
		}
		return d
	}
	return t.Duration
}

// RegenPod is a user-initiated timed activity that occupies the schedule
// and restores energy while it runs.
type RegenPod struct {
	StartedAt time.Time `json:"started_at"`
	Duration  int       `json:"duration"` // minutes
}

// MealTimes are fixed meal anchors, each a local "HH:MM" time of day.
// An empty string disables that meal.
type MealTimes struct {
	Breakfast string `json:"breakfast"`
	Lunch     string `json:"lunch"`
	Dinner    string `json:"dinner"`
	Duration  int    `json:"duration"` // minutes per meal
}

// DateKey buckets a timestamp into its local calendar day.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// SameDay reports whether two timestamps fall on the same local calendar day.
func SameDay(a, b time.Time) bool {
	return DateKey(a) == DateKey(b)
}
