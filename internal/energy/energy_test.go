package energy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForXP(t *testing.T) {
	cases := []struct {
		xp    int
		level int
	}{
		{0, 1},
		{-5, 1},
		{49, 1},
		{50, 2},
		{199, 2},
		{200, 3},
		{450, 4},
	}
	for _, c := range cases {
		assert.Equal(t, c.level, LevelForXP(c.xp), "xp %d", c.xp)
	}
}
