package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// ScheduleItem is one display-ready entry on the resolved timeline.
type ScheduleItem struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name"`
	Type        ItemType  `json:"type"`
	Emoji       string    `json:"emoji"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Duration    int       `json:"duration"` // minutes
	IsCompleted bool      `json:"is_completed"`
	IsCritical  bool      `json:"is_critical"`
	IsLocked    bool      `json:"is_locked"`
	IsFlexible  bool      `json:"is_flexible"`
}

// ScheduleSummary aggregates the day at a glance.
type ScheduleSummary struct {
	TotalTasks         int    `json:"total_tasks"`
	ActiveMinutes      int    `json:"active_minutes"`
	BreakMinutes       int    `json:"break_minutes"`
	UnscheduledCount   int    `json:"unscheduled_count"`
	IncompleteCritical int    `json:"incomplete_critical"`
	RollsPastMidnight  bool   `json:"rolls_past_midnight"`
	MidnightNote       string `json:"midnight_note,omitempty"`
}

type FormattedSchedule struct {
	Items   []ScheduleItem  `json:"items"`
	Summary ScheduleSummary `json:"summary"`
}

// CalculateSchedule resolves one day's tasks into an ordered, gap-aware
// timeline plus a summary. Pure: "now" is a parameter, never the system
// clock, and the input slice is not mutated.
func CalculateSchedule(
	tasks []ScheduledTask,
	selectedDay time.Time,
	workdayStart, workdayEnd time.Time,
	now time.Time,
	pod *RegenPod,
	meals *MealTimes,
) FormattedSchedule {
	dayKey := DateKey(selectedDay)

	var items []ScheduleItem
	var summary ScheduleSummary

	// fixed meal anchors, clipped to the workday window
	if meals != nil {
		for _, m := range []struct {
			name  string
			clock string
		}{
			{"Breakfast", meals.Breakfast},
			{"Lunch", meals.Lunch},
			{"Dinner", meals.Dinner},
		} {
			if m.clock == "" {
				continue
			}
			start, err := onDayClock(selectedDay, m.clock)
			if err != nil {
				log.Warn().Str("meal", m.name).Str("clock", m.clock).Msg("skipping meal with bad time")
				continue
			}
			end := start.Add(time.Duration(meals.Duration) * time.Minute)
			start, end, ok := clip(start, end, workdayStart, workdayEnd)
			if !ok {
				continue
			}
			_, emoji := ClassifyName(m.name)
			items = append(items, ScheduleItem{
				Name:      m.name,
				Type:      ItemMeal,
				Emoji:     emoji,
				StartTime: start,
				EndTime:   end,
				Duration:  int(end.Sub(start).Minutes()),
			})
		}
	}

	// active regen pod shows as a fixed, locked pseudo-task; a pod that
	// already finished must not reappear
	if pod != nil && DateKey(pod.StartedAt) == dayKey {
		podEnd := pod.StartedAt.Add(time.Duration(pod.Duration) * time.Minute)
		if podEnd.After(now) {
			items = append(items, ScheduleItem{
				Name:      "Energy Regen Pod",
				Type:      ItemPod,
				Emoji:     "🔋",
				StartTime: pod.StartedAt,
				EndTime:   podEnd,
				Duration:  pod.Duration,
				IsLocked:  true,
			})
		}
	}

	for _, t := range tasks {
		if t.ScheduledDate != dayKey {
			continue
		}
		summary.TotalTasks++

		if t.StartTime == nil || t.EndTime == nil {
			if t.StartTime != nil || t.EndTime != nil {
				// half a time range is invalid; skip the row, keep the day
				log.Warn().Str("task_id", t.ID).Msg("task has start or end but not both, skipping")
			}
			summary.UnscheduledCount++
			continue
		}

		// reinterpret the stored timestamp's wall clock onto the selected
		// day, so UTC-stored rows display as local-day blocks
		start := onDayWallClock(selectedDay, *t.StartTime)
		end := onDayWallClock(selectedDay, *t.EndTime)
		if end.Before(start) {
			end = end.Add(24 * time.Hour)
			summary.RollsPastMidnight = true
		}

		typ, emoji := ClassifyName(t.Name)
		if t.FromCalendar() {
			typ = ItemCalendar
			emoji = "📅"
		}

		// a completed flexible task drops off the timeline; completed
		// fixed/timed items stay visible (struck through in the UI)
		if t.IsCompleted && t.IsFlexible && typ == ItemTask {
			continue
		}

		items = append(items, ScheduleItem{
			ID:          t.ID,
			Name:        t.Name,
			Type:        typ,
			Emoji:       emoji,
			StartTime:   start,
			EndTime:     end,
			Duration:    int(end.Sub(start).Minutes()),
			IsCompleted: t.IsCompleted,
			IsCritical:  t.IsCritical,
			IsLocked:    t.IsLocked,
			IsFlexible:  t.IsFlexible,
		})

		if t.IsCritical && !t.IsCompleted && end.After(now) {
			summary.IncompleteCritical++
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].StartTime.Before(items[j].StartTime)
	})

	for _, it := range items {
		switch it.Type {
		case ItemTask, ItemCalendar:
			if !it.IsCompleted {
				summary.ActiveMinutes += it.Duration
			}
		case ItemBreak, ItemMeal, ItemTimeOff:
			summary.BreakMinutes += it.Duration
		}
	}

	if len(items) > 0 {
		last := items[len(items)-1]
		if DateKey(last.EndTime) != dayKey {
			summary.RollsPastMidnight = true
		}
	}
	if summary.RollsPastMidnight {
		next := selectedDay.AddDate(0, 0, 1)
		summary.MidnightNote = fmt.Sprintf("Schedule runs past midnight into %s", next.Format("Mon Jan 2"))
	}

	return FormattedSchedule{Items: items, Summary: summary}
}

// OccupiedBlocks converts a formatted schedule's items into merged time
// blocks, the shape FreeTimeBlocks and the compactor consume.
func (f FormattedSchedule) OccupiedBlocks() []TimeBlock {
	blocks := make([]TimeBlock, 0, len(f.Items))
	for _, it := range f.Items {
		blocks = append(blocks, NewTimeBlock(it.StartTime, it.EndTime))
	}
	return MergeOverlappingBlocks(blocks)
}

// onDayClock resolves an "HH:MM" clock string onto day's calendar date.
func onDayClock(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

// onDayWallClock rebuilds ts's wall-clock reading (in day's location) onto
// day's calendar date.
func onDayWallClock(day time.Time, ts time.Time) time.Time {
	local := ts.In(day.Location())
	return time.Date(day.Year(), day.Month(), day.Day(), local.Hour(), local.Minute(), 0, 0, day.Location())
}

// clip intersects [start, end) with [winStart, winEnd); ok is false when the
// intersection is empty or non-positive.
func clip(start, end, winStart, winEnd time.Time) (time.Time, time.Time, bool) {
	if start.Before(winStart) {
		start = winStart
	}
	if end.After(winEnd) {
		end = winEnd
	}
	if !end.After(start) {
		return start, end, false
	}
	return start, end, true
}
