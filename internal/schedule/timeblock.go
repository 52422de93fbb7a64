package schedule

import (
	"sort"
	"time"
)

// TimeBlock is an ephemeral interval used for overlap and gap computation.
// Never persisted.
type TimeBlock struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Duration int       `json:"duration"` // minutes
}

func NewTimeBlock(start, end time.Time) TimeBlock {
	return TimeBlock{
		Start:    start,
		End:      end,
		Duration: int(end.Sub(start).Minutes()),
	}
}

// MergeOverlappingBlocks collapses an unordered set of blocks into the
// minimal set of disjoint blocks, sorted by start. Touching blocks count
// as overlapping.
func MergeOverlappingBlocks(blocks []TimeBlock) []TimeBlock {
	if len(blocks) == 0 {
		return nil
	}

	sorted := make([]TimeBlock, len(blocks))
	copy(sorted, blocks)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []TimeBlock{sorted[0]}
	for _, b := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !b.Start.After(last.End) {
			if b.End.After(last.End) {
				last.End = b.End
			}
			last.Duration = int(last.End.Sub(last.Start).Minutes())
			continue
		}
		merged = append(merged, b)
	}
	return merged
}

// FreeTimeBlocks returns the gaps inside [windowStart, windowEnd) not covered
// by any occupied block. Occupied blocks outside the window never produce
// negative gaps.
func FreeTimeBlocks(occupied []TimeBlock, windowStart, windowEnd time.Time) []TimeBlock {
	merged := MergeOverlappingBlocks(occupied)

	var free []TimeBlock
	cursor := windowStart
	for _, b := range merged {
		if !b.Start.Before(windowEnd) {
			break
		}
		if cursor.Before(b.Start) {
			free = append(free, NewTimeBlock(cursor, b.Start))
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(windowEnd) {
		free = append(free, NewTimeBlock(cursor, windowEnd))
	}
	return free
}

// IsSlotFree reports whether [proposedStart, proposedEnd) collides with no
// occupied block. This is the final authority before committing a placement;
// membership in a previously computed free block is not sufficient on its own.
func IsSlotFree(proposedStart, proposedEnd time.Time, occupied []TimeBlock) bool {
	for _, b := range occupied {
		if proposedStart.Before(b.End) && proposedEnd.After(b.Start) {
			return false
		}
	}
	return true
}
