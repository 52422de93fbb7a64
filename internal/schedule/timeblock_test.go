package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC)
}

func block(sh, sm, eh, em int) TimeBlock {
	return NewTimeBlock(at(sh, sm), at(eh, em))
}

func TestMergeOverlappingBlocks(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, MergeOverlappingBlocks(nil))
	})

	t.Run("disjoint stay disjoint", func(t *testing.T) {
		got := MergeOverlappingBlocks([]TimeBlock{block(13, 0, 14, 0), block(9, 0, 10, 0)})
		require.Len(t, got, 2)
		assert.Equal(t, at(9, 0), got[0].Start)
		assert.Equal(t, at(13, 0), got[1].Start)
	})

	t.Run("overlapping merge", func(t *testing.T) {
		got := MergeOverlappingBlocks([]TimeBlock{
			block(9, 0, 10, 30),
			block(10, 0, 11, 0),
			block(10, 45, 11, 15),
		})
		require.Len(t, got, 1)
		assert.Equal(t, at(9, 0), got[0].Start)
		assert.Equal(t, at(11, 15), got[0].End)
		assert.Equal(t, 135, got[0].Duration)
	})

	t.Run("touching counts as overlapping", func(t *testing.T) {
		got := MergeOverlappingBlocks([]TimeBlock{block(9, 0, 10, 0), block(10, 0, 11, 0)})
		require.Len(t, got, 1)
		assert.Equal(t, 120, got[0].Duration)
	})

	t.Run("contained block does not shrink the runner", func(t *testing.T) {
		got := MergeOverlappingBlocks([]TimeBlock{block(9, 0, 12, 0), block(10, 0, 10, 30)})
		require.Len(t, got, 1)
		assert.Equal(t, at(12, 0), got[0].End)
	})

	t.Run("idempotent", func(t *testing.T) {
		in := []TimeBlock{block(9, 0, 10, 30), block(10, 0, 11, 0), block(14, 0, 15, 0)}
		once := MergeOverlappingBlocks(in)
		twice := MergeOverlappingBlocks(once)
		assert.Equal(t, once, twice)
	})

	t.Run("total covered minutes preserved", func(t *testing.T) {
		in := []TimeBlock{block(9, 0, 10, 0), block(9, 30, 11, 0), block(13, 0, 13, 30)}
		got := MergeOverlappingBlocks(in)
		total := 0
		for _, b := range got {
			total += b.Duration
		}
		assert.Equal(t, 150, total) // 9:00-11:00 plus 13:00-13:30
	})
}

func TestFreeTimeBlocks(t *testing.T) {
	winStart, winEnd := at(9, 0), at(17, 0)

	t.Run("empty occupied yields whole window", func(t *testing.T) {
		got := FreeTimeBlocks(nil, winStart, winEnd)
		require.Len(t, got, 1)
		assert.Equal(t, winStart, got[0].Start)
		assert.Equal(t, winEnd, got[0].End)
	})

	t.Run("gaps around occupied blocks", func(t *testing.T) {
		got := FreeTimeBlocks([]TimeBlock{block(10, 0, 11, 0), block(13, 0, 14, 0)}, winStart, winEnd)
		require.Len(t, got, 3)
		assert.Equal(t, block(9, 0, 10, 0), got[0])
		assert.Equal(t, block(11, 0, 13, 0), got[1])
		assert.Equal(t, block(14, 0, 17, 0), got[2])
	})

	t.Run("block outside window produces no negative gap", func(t *testing.T) {
		got := FreeTimeBlocks([]TimeBlock{block(7, 0, 8, 0), block(18, 0, 19, 0)}, winStart, winEnd)
		require.Len(t, got, 1)
		assert.Equal(t, block(9, 0, 17, 0), got[0])
	})

	t.Run("block straddling window start", func(t *testing.T) {
		got := FreeTimeBlocks([]TimeBlock{block(8, 0, 10, 0)}, winStart, winEnd)
		require.Len(t, got, 1)
		assert.Equal(t, block(10, 0, 17, 0), got[0])
	})

	t.Run("fully occupied window has no gaps", func(t *testing.T) {
		got := FreeTimeBlocks([]TimeBlock{block(8, 0, 18, 0)}, winStart, winEnd)
		assert.Empty(t, got)
	})

	t.Run("free and occupied partition the window", func(t *testing.T) {
		occupied := []TimeBlock{block(9, 30, 10, 15), block(12, 0, 13, 0), block(12, 30, 14, 0)}
		free := FreeTimeBlocks(occupied, winStart, winEnd)

		covered := 0
		for _, b := range free {
			covered += b.Duration
			assert.True(t, IsSlotFree(b.Start, b.End, occupied))
		}
		for _, b := range MergeOverlappingBlocks(occupied) {
			covered += b.Duration
			assert.False(t, IsSlotFree(b.Start, b.End, occupied))
		}
		assert.Equal(t, 8*60, covered)
	})
}

func TestIsSlotFree(t *testing.T) {
	occupied := []TimeBlock{block(10, 0, 11, 0)}

	assert.True(t, IsSlotFree(at(9, 0), at(10, 0), occupied), "touching before is free")
	assert.True(t, IsSlotFree(at(11, 0), at(12, 0), occupied), "touching after is free")
	assert.False(t, IsSlotFree(at(10, 30), at(10, 45), occupied), "inside collides")
	assert.False(t, IsSlotFree(at(9, 30), at(10, 30), occupied), "overlapping start collides")
	assert.False(t, IsSlotFree(at(9, 0), at(12, 0), occupied), "containing collides")
	assert.True(t, IsSlotFree(at(9, 0), at(12, 0), nil), "no obstacles")
}
