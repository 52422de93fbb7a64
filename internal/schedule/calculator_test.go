package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tp(t time.Time) *time.Time { return &t }

func placedTask(name string, start, end time.Time) ScheduledTask {
	return ScheduledTask{
		ID:            name,
		Name:          name,
		StartTime:     tp(start),
		EndTime:       tp(end),
		ScheduledDate: DateKey(day),
		IsFlexible:    true,
	}
}

func TestCalculateSchedule(t *testing.T) {
	winStart, winEnd := at(9, 0), at(17, 0)
	now := at(8, 0)

	t.Run("filters to the selected day", func(t *testing.T) {
		other := placedTask("Elsewhere", at(10, 0), at(11, 0))
		other.ScheduledDate = "2026-03-11"

		got := CalculateSchedule(
			[]ScheduledTask{placedTask("Here", at(10, 0), at(11, 0)), other},
			day, winStart, winEnd, now, nil, nil,
		)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "Here", got.Items[0].Name)
		assert.Equal(t, 1, got.Summary.TotalTasks)
	})

	t.Run("items sorted by start time", func(t *testing.T) {
		got := CalculateSchedule(
			[]ScheduledTask{
				placedTask("Late", at(15, 0), at(16, 0)),
				placedTask("Early", at(9, 0), at(10, 0)),
				placedTask("Mid", at(12, 0), at(12, 30)),
			},
			day, winStart, winEnd, now, nil, nil,
		)
		require.Len(t, got.Items, 3)
		assert.Equal(t, []string{"Early", "Mid", "Late"}, []string{got.Items[0].Name, got.Items[1].Name, got.Items[2].Name})
	})

	t.Run("midnight rollover", func(t *testing.T) {
		// stored as 23:30 -> 00:15: the end's wall clock reads before the start
		task := placedTask("Night owl", at(23, 30), day.AddDate(0, 0, 1).Add(15*time.Minute))

		got := CalculateSchedule([]ScheduledTask{task}, day, winStart, at(23, 59), now, nil, nil)
		require.Len(t, got.Items, 1)
		it := got.Items[0]
		assert.Equal(t, at(23, 30), it.StartTime)
		assert.Equal(t, it.StartTime.AddDate(0, 0, 1).Add(-23*time.Hour-15*time.Minute), it.EndTime)
		assert.Equal(t, 45, it.Duration)
		assert.True(t, got.Summary.RollsPastMidnight)
		assert.NotEmpty(t, got.Summary.MidnightNote)
	})

	t.Run("meals are synthesized and clipped to the window", func(t *testing.T) {
		meals := &MealTimes{Breakfast: "08:30", Lunch: "12:30", Dinner: "19:00", Duration: 60}
		got := CalculateSchedule(nil, day, winStart, winEnd, now, nil, meals)

		require.Len(t, got.Items, 2, "dinner at 19:00 is entirely outside the window and dropped")
		assert.Equal(t, "Breakfast", got.Items[0].Name)
		assert.Equal(t, at(9, 0), got.Items[0].StartTime, "breakfast clipped to window start")
		assert.Equal(t, 30, got.Items[0].Duration)
		assert.Equal(t, "Lunch", got.Items[1].Name)
		assert.Equal(t, ItemMeal, got.Items[1].Type)
		assert.Equal(t, 90, got.Summary.BreakMinutes, "clipped breakfast 30 plus lunch 60")
	})

	t.Run("active pod appears, finished pod does not", func(t *testing.T) {
		pod := &RegenPod{StartedAt: at(10, 0), Duration: 25}

		got := CalculateSchedule(nil, day, winStart, winEnd, at(10, 10), pod, nil)
		require.Len(t, got.Items, 1)
		assert.Equal(t, ItemPod, got.Items[0].Type)
		assert.True(t, got.Items[0].IsLocked)

		got = CalculateSchedule(nil, day, winStart, winEnd, at(11, 0), pod, nil)
		assert.Empty(t, got.Items, "a finished pod must not reappear")
	})

	t.Run("calendar rows override keyword classification", func(t *testing.T) {
		cal := placedTask("lunch with investors", at(12, 0), at(13, 0))
		src := "gcal-123"
		cal.SourceCalendarID = &src

		got := CalculateSchedule([]ScheduledTask{cal}, day, winStart, winEnd, now, nil, nil)
		require.Len(t, got.Items, 1)
		assert.Equal(t, ItemCalendar, got.Items[0].Type)
	})

	t.Run("completed flexible tasks drop off, completed fixed stay", func(t *testing.T) {
		doneFlex := placedTask("Done flex", at(9, 0), at(10, 0))
		doneFlex.IsCompleted = true
		doneFixed := placedTask("Done fixed", at(11, 0), at(12, 0))
		doneFixed.IsCompleted = true
		doneFixed.IsFlexible = false

		got := CalculateSchedule([]ScheduledTask{doneFlex, doneFixed}, day, winStart, winEnd, now, nil, nil)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "Done fixed", got.Items[0].Name)
		assert.Equal(t, 0, got.Summary.ActiveMinutes, "completed items never count as active")
	})

	t.Run("half a time range is skipped without blanking the day", func(t *testing.T) {
		bad := ScheduledTask{ID: "bad", Name: "Broken", StartTime: tp(at(10, 0)), ScheduledDate: DateKey(day)}
		ok := placedTask("Fine", at(11, 0), at(12, 0))

		got := CalculateSchedule([]ScheduledTask{bad, ok}, day, winStart, winEnd, now, nil, nil)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "Fine", got.Items[0].Name)
		assert.Equal(t, 1, got.Summary.UnscheduledCount)
	})

	t.Run("summary counts", func(t *testing.T) {
		crit := placedTask("Urgent thing", at(14, 0), at(15, 0))
		crit.IsCritical = true
		pastCrit := placedTask("Missed urgent", at(9, 0), at(9, 30))
		pastCrit.IsCritical = true
		brk := placedTask("Coffee break", at(10, 30), at(10, 45))

		got := CalculateSchedule([]ScheduledTask{crit, pastCrit, brk}, day, winStart, winEnd, at(12, 0), nil, nil)
		assert.Equal(t, 3, got.Summary.TotalTasks)
		assert.Equal(t, 90, got.Summary.ActiveMinutes)
		assert.Equal(t, 15, got.Summary.BreakMinutes)
		assert.Equal(t, 1, got.Summary.IncompleteCritical, "only the future critical counts")
		assert.False(t, got.Summary.RollsPastMidnight)
	})

	t.Run("occupied blocks merge for gap derivation", func(t *testing.T) {
		got := CalculateSchedule(
			[]ScheduledTask{
				placedTask("A", at(9, 0), at(10, 30)),
				placedTask("B", at(10, 0), at(11, 0)),
			},
			day, winStart, winEnd, now, nil, nil,
		)
		blocks := got.OccupiedBlocks()
		require.Len(t, blocks, 1)
		assert.Equal(t, at(9, 0), blocks[0].Start)
		assert.Equal(t, at(11, 0), blocks[0].End)

		free := FreeTimeBlocks(blocks, winStart, winEnd)
		require.Len(t, free, 1)
		assert.Equal(t, at(11, 0), free[0].Start)
	})
}

func TestClassifyName(t *testing.T) {
	cases := []struct {
		name string
		typ  ItemType
	}{
		{"Lunch with Sam", ItemMeal},
		{"lunch break", ItemMeal}, // meal keywords outrank break
		{"Coffee break", ItemBreak},
		{"time off afternoon", ItemTimeOff},
		{"Gym session", ItemTask},
		{"Completely novel thing", ItemTask},
	}
	for _, c := range cases {
		typ, emoji := ClassifyName(c.name)
		assert.Equal(t, c.typ, typ, c.name)
		assert.NotEmpty(t, emoji, c.name)
	}

	_, emoji := ClassifyName("Completely novel thing")
	assert.Equal(t, defaultEmoji, emoji)
}
