package energy

import (
	"context"
	"database/sql"
	"fmt"
	"math"
)

// Ledger tracks the gamified energy economy as insert-only rows: completing
// a task spends its energy cost (meals restore), and positive spends also
// accrue XP. Totals are derived, never stored.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Apply records one signed energy delta against the user. A positive delta
// is a spend, a negative one a restore.
func (l *Ledger) Apply(ctx context.Context, userID int, delta int, reason string, taskID string) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO energy_ledger (user_id, delta, reason, task_id)
		VALUES ($1, $2, $3, NULLIF($4, ''))
	`, userID, delta, reason, taskID)
	if err != nil {
		return fmt.Errorf("energy apply: %w", err)
	}
	return nil
}

// Stats is the profile snapshot the UI renders.
type Stats struct {
	Balance int `json:"balance"` // starting pool minus net spend
	XP      int `json:"xp"`
	Level   int `json:"level"`
}

// Daily energy pool a user starts from before any spends.
const DailyPool = 100

func (l *Ledger) Stats(ctx context.Context, userID int) (Stats, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(delta), 0),
		       COALESCE(SUM(delta) FILTER (WHERE delta > 0), 0)
		FROM energy_ledger
		WHERE user_id = $1
	`, userID)

	var net, spent int
	if err := row.Scan(&net, &spent); err != nil {
		return Stats{}, fmt.Errorf("energy stats: %w", err)
	}

	return Stats{
		Balance: DailyPool - net,
		XP:      spent,
		Level:   LevelForXP(spent),
	}, nil
}

// LevelForXP is the level curve: 50 XP to leave level 1, quadratically more
// after that.
func LevelForXP(xp int) int {
	if xp <= 0 {
		return 1
	}
	return int(math.Sqrt(float64(xp)/50)) + 1
}
