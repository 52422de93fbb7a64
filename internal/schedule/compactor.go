package schedule

import (
	"fmt"
	"sort"
	"time"
)

// CompactSchedule re-packs the day's flexible, unlocked, incomplete tasks
// into the earliest available gaps, in priority order. Fixed tasks (not
// flexible, locked, completed, or calendar-sourced) keep their times and act
// as obstacles, as do extraOccupied blocks (meals, an active regen pod).
//
// Returns the union of untouched fixed tasks and re-placed movable tasks,
// plus the movable tasks that could not fit before workdayEnd. Running out
// of room is a reportable outcome, never an error; an error means a movable
// task carried no duration information at all.
func CompactSchedule(
	tasks []ScheduledTask,
	selectedDay time.Time,
	workdayStart, workdayEnd time.Time,
	now time.Time,
	extraOccupied []TimeBlock,
) (result []ScheduledTask, unplaced []ScheduledTask, err error) {
	isToday := SameDay(selectedDay, now)

	var movable []ScheduledTask
	occupied := make([]TimeBlock, 0, len(tasks)+len(extraOccupied))
	occupied = append(occupied, extraOccupied...)

	for _, t := range tasks {
		fixed := !t.IsFlexible || t.IsLocked || t.IsCompleted || t.FromCalendar()
		if fixed {
			result = append(result, t)
			if t.StartTime != nil && t.EndTime != nil {
				occupied = append(occupied, taskBlock(selectedDay, t))
			}
			continue
		}

		// a movable task already ended in the past is missed, not
		// re-placeable; the caller retires it instead
		if isToday && t.EndTime != nil {
			end := onDayWallClock(selectedDay, *t.EndTime)
			if !end.After(now) {
				continue
			}
		}

		if t.DurationMinutes() <= 0 {
			return nil, nil, fmt.Errorf("task %q (%s) has no duration or time range", t.Name, t.ID)
		}
		movable = append(movable, t)
	}

	// critical first, backburner last, longer blocks before shorter so the
	// big pieces land while the gaps are still large
	sort.SliceStable(movable, func(i, j int) bool {
		a, b := movable[i], movable[j]
		if a.IsCritical != b.IsCritical {
			return a.IsCritical
		}
		if a.IsBackburner != b.IsBackburner {
			return b.IsBackburner
		}
		return totalNeed(a) > totalNeed(b)
	})

	cursor := workdayStart
	if isToday && now.After(workdayStart) {
		cursor = now
	}

	for _, t := range movable {
		need := totalNeed(t)
		placed := false

		for _, gap := range FreeTimeBlocks(occupied, cursor, workdayEnd) {
			if gap.Duration < need {
				continue
			}
			start := gap.Start
			end := start.Add(time.Duration(need) * time.Minute)
			if !IsSlotFree(start, end, occupied) {
				continue
			}

			t.StartTime = &start
			t.EndTime = &end
			t.ScheduledDate = DateKey(selectedDay)
			t.Duration = t.DurationMinutes() - t.BreakDuration

			occupied = append(occupied, NewTimeBlock(start, end))
			if end.After(cursor) {
				cursor = end
			}
			result = append(result, t)
			placed = true
			break
		}

		if !placed {
			unplaced = append(unplaced, t)
		}
	}

	return result, unplaced, nil
}

// totalNeed is the span a task claims when placed: its own duration plus
// the trailing break bundled with it.
func totalNeed(t ScheduledTask) int {
	return t.DurationMinutes() + t.BreakDuration
}

func taskBlock(day time.Time, t ScheduledTask) TimeBlock {
	start := onDayWallClock(day, *t.StartTime)
	end := onDayWallClock(day, *t.EndTime)
	if end.Before(start) {
		end = end.Add(24 * time.Hour)
	}
	return NewTimeBlock(start, end)
}
