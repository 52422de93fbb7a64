package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnergyCost(t *testing.T) {
	t.Run("meal is a flat gain regardless of everything else", func(t *testing.T) {
		assert.Equal(t, MealEnergyGain, EnergyCost(30, false, false, true))
		assert.Equal(t, MealEnergyGain, EnergyCost(240, true, false, true))
		assert.Equal(t, MealEnergyGain, EnergyCost(0, false, true, true))
	})

	t.Run("zero or negative duration costs nothing", func(t *testing.T) {
		assert.Equal(t, 0, EnergyCost(0, false, false, false))
		assert.Equal(t, 0, EnergyCost(-15, true, false, false))
	})

	t.Run("five per started 15 minute chunk", func(t *testing.T) {
		cases := []struct {
			duration int
			want     int
		}{
			{1, 5},
			{15, 5},
			{16, 10},
			{30, 10},
			{45, 15},
			{60, 20},
			{90, 30},
		}
		for _, c := range cases {
			assert.Equal(t, c.want, EnergyCost(c.duration, false, false, false), "duration %d", c.duration)
		}
	})

	t.Run("critical multiplies by 1.5 rounding up", func(t *testing.T) {
		assert.Equal(t, 8, EnergyCost(15, true, false, false))  // ceil(5*1.5)
		assert.Equal(t, 15, EnergyCost(30, true, false, false)) // 10*1.5
		assert.Equal(t, 30, EnergyCost(60, true, false, false)) // 20*1.5
	})

	t.Run("backburner multiplies by 0.75 rounding up", func(t *testing.T) {
		assert.Equal(t, 5, EnergyCost(15, false, true, false))  // ceil(3.75) -> 4, clamped to 5
		assert.Equal(t, 8, EnergyCost(30, false, true, false))  // ceil(7.5)
		assert.Equal(t, 15, EnergyCost(60, false, true, false)) // 20*0.75
	})

	t.Run("minimum charge is five", func(t *testing.T) {
		assert.Equal(t, 5, EnergyCost(1, false, true, false))
	})

	t.Run("monotonic in duration for fixed flags", func(t *testing.T) {
		for _, crit := range []bool{false, true} {
			prev := 0
			for d := 1; d <= 300; d++ {
				cost := EnergyCost(d, crit, false, false)
				assert.GreaterOrEqual(t, cost, prev, "duration %d critical %v", d, crit)
				prev = cost
			}
		}
	})
}
