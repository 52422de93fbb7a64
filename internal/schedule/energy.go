package schedule

// Energy cost tuning. Meals restore a flat amount; everything else is charged
// per started 15-minute chunk.
const (
	MealEnergyGain     = -10
	energyChunkMinutes = 15
	energyPerChunk     = 5
	minEnergyCost      = 5

	criticalMultiplier   = 1.5
	backburnerMultiplier = 0.75
)

// EnergyCost maps a task's shape to a signed energy delta. Positive consumes
// energy, negative restores it. Pure integer output for any input.
func EnergyCost(durationMinutes int, isCritical, isBackburner, isMeal bool) int {
	if isMeal {
		return MealEnergyGain
	}
	if durationMinutes <= 0 {
		return 0
	}

	chunks := (durationMinutes + energyChunkMinutes - 1) / energyChunkMinutes
	cost := chunks * energyPerChunk

	if isCritical {
		cost = ceilMul(cost, criticalMultiplier)
	} else if isBackburner {
		cost = ceilMul(cost, backburnerMultiplier)
	}

	if cost < minEnergyCost {
		cost = minEnergyCost
	}
	return cost
}

// ceilMul multiplies an integer by a factor expressible in quarters,
// rounding up, without going through floating point.
func ceilMul(v int, factor float64) int {
	// both multipliers are exact quarters, so scale by 4
	num := v * int(factor*4)
	return (num + 3) / 4
}
