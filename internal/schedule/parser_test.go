package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuickAddInput(t *testing.T) {
	t.Run("duration task", func(t *testing.T) {
		p, err := ParseQuickAddInput("Write report 60", day)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Write report", p.Name)
		assert.Equal(t, 60, p.Duration)
		assert.True(t, p.IsFlexible)
		assert.False(t, p.IsCritical)
		assert.Equal(t, 20, p.EnergyCost)
	})

	t.Run("critical suffix", func(t *testing.T) {
		p, err := ParseQuickAddInput("Write report 60 !", day)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Write report", p.Name)
		assert.Equal(t, 60, p.Duration)
		assert.True(t, p.IsCritical)
		assert.True(t, p.IsFlexible)
	})

	t.Run("backburner prefix", func(t *testing.T) {
		p, err := ParseQuickAddInput("- Tidy desk 20", day)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Tidy desk", p.Name)
		assert.Equal(t, 20, p.Duration)
		assert.True(t, p.IsBackburner)
	})

	t.Run("duration with trailing break", func(t *testing.T) {
		p, err := ParseQuickAddInput("Deep work 90 15", day)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Deep work", p.Name)
		assert.Equal(t, 90, p.Duration)
		assert.Equal(t, 15, p.BreakDuration)
	})

	t.Run("sink suffix routes to backlog", func(t *testing.T) {
		p, err := ParseQuickAddInput("Organize photos 45 sink", day)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Organize photos", p.Name)
		assert.True(t, p.ToSink)
	})

	t.Run("fixed suffix pins the task", func(t *testing.T) {
		p, err := ParseQuickAddInput("Standup 15 fixed", day)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.False(t, p.IsFlexible)
	})

	t.Run("explicit time range", func(t *testing.T) {
		p, err := ParseQuickAddInput("Email 9:00am - 9:30am", day)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Email", p.Name)
		assert.False(t, p.IsFlexible)
		require.NotNil(t, p.StartTime)
		require.NotNil(t, p.EndTime)
		assert.Equal(t, at(9, 0), *p.StartTime)
		assert.Equal(t, at(9, 30), *p.EndTime)
		assert.Equal(t, 30, p.Duration)
	})

	t.Run("range without minutes or mixed meridiem", func(t *testing.T) {
		p, err := ParseQuickAddInput("Workshop 9am - 10:30am", day)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, at(9, 0), *p.StartTime)
		assert.Equal(t, at(10, 30), *p.EndTime)

		p, err = ParseQuickAddInput("Focus 9 - 10:30am", day)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, at(9, 0), *p.StartTime, "start inherits the end meridiem")
	})

	t.Run("pm range", func(t *testing.T) {
		p, err := ParseQuickAddInput("Review 1pm - 2:15pm", day)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, at(13, 0), *p.StartTime)
		assert.Equal(t, at(14, 15), *p.EndTime)
	})

	t.Run("range crossing midnight rolls the end forward", func(t *testing.T) {
		p, err := ParseQuickAddInput("Night shift 23:00 - 1:00", day)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.True(t, p.EndTime.After(*p.StartTime))
		assert.Equal(t, day.AddDate(0, 0, 1).Day(), p.EndTime.Day())
	})

	t.Run("time off block", func(t *testing.T) {
		p, err := ParseQuickAddInput("time off 1pm - 2pm", day)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.True(t, p.IsTimeOff)
		assert.False(t, p.IsFlexible)
		assert.False(t, p.IsCritical)
		assert.False(t, p.IsBackburner)
		assert.Equal(t, 0, p.EnergyCost)
		assert.Equal(t, at(13, 0), *p.StartTime)
		assert.Equal(t, at(14, 0), *p.EndTime)
	})

	t.Run("meal name restores energy", func(t *testing.T) {
		p, err := ParseQuickAddInput("Lunch 30", day)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, MealEnergyGain, p.EnergyCost)
	})

	t.Run("unparseable inputs are a no-op, not an error", func(t *testing.T) {
		for _, raw := range []string{"", "   ", "Email", "60", "! sink fixed", "Report 0"} {
			p, err := ParseQuickAddInput(raw, day)
			assert.NoError(t, err, "%q", raw)
			assert.Nil(t, p, "%q", raw)
		}
	})
}

func TestParseInjectionCommand(t *testing.T) {
	t.Run("basic", func(t *testing.T) {
		p, err := ParseInjectionCommand(`inject "Pay invoices" 30`)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Pay invoices", p.Name)
		assert.Equal(t, 30, p.Duration)
		assert.True(t, p.IsFlexible)
	})

	t.Run("duration break and flags", func(t *testing.T) {
		p, err := ParseInjectionCommand(`inject "Deep work" 90 15 !`)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, 90, p.Duration)
		assert.Equal(t, 15, p.BreakDuration)
		assert.True(t, p.IsCritical)
	})

	t.Run("backburner token", func(t *testing.T) {
		p, err := ParseInjectionCommand(`inject "Tidy desk" 20 -`)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Tidy desk", p.Name)
		assert.True(t, p.IsBackburner)
		assert.Equal(t, EnergyCost(20, false, true, false), p.EnergyCost)
	})

	t.Run("backburner name prefix", func(t *testing.T) {
		p, err := ParseInjectionCommand(`inject "- Tidy desk" 20`)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Tidy desk", p.Name)
		assert.True(t, p.IsBackburner)
	})

	t.Run("sink routing", func(t *testing.T) {
		p, err := ParseInjectionCommand(`inject "Someday thing" 45 sink`)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.True(t, p.ToSink)
	})

	t.Run("explicit range resolves to clock minutes", func(t *testing.T) {
		p, err := ParseInjectionCommand(`inject "Dentist" 2pm - 3pm`)
		require.NoError(t, err)
		require.NotNil(t, p)
		require.NotNil(t, p.StartMinutes)
		require.NotNil(t, p.EndMinutes)
		assert.Equal(t, 14*60, *p.StartMinutes)
		assert.Equal(t, 15*60, *p.EndMinutes)
		assert.False(t, p.IsFlexible)
		assert.Equal(t, 60, p.Duration)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		for _, raw := range []string{"inject", `inject ""`, `inject "Name"`, `inject "Name" lots`, `inject "-" 20`, "not an inject"} {
			p, err := ParseInjectionCommand(raw)
			assert.NoError(t, err, "%q", raw)
			assert.Nil(t, p, "%q", raw)
		}
	})
}

func TestClockHelpers(t *testing.T) {
	got := atMinutes(day, 13*60+30)
	want := time.Date(2026, 3, 10, 13, 30, 0, 0, time.UTC)
	assert.Equal(t, want, got)
}
