package tasks

import "time"

// RetiredTask is a backlog ("sink") row: a task pulled off the timeline,
// kept with its intended duration until it is rezoned back onto a day.
type RetiredTask struct {
	ID                    string    `json:"id"`
	UserID                int       `json:"-"`
	Name                  string    `json:"name"`
	Duration              int       `json:"duration"` // minutes
	BreakDuration         int       `json:"break_duration"`
	IsCritical            bool      `json:"is_critical"`
	IsBackburner          bool      `json:"is_backburner"`
	IsLocked              bool      `json:"is_locked"`
	EnergyCost            int       `json:"energy_cost"`
	IsCustomEnergyCost    bool      `json:"is_custom_energy_cost"`
	TaskEnvironment       string    `json:"task_environment"`
	OriginalScheduledDate string    `json:"original_scheduled_date"`
	CreatedAt             time.Time `json:"created_at"`
}
