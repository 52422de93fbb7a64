package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dbuatti/productive-sloth-sub001/internal/schedule"
)

// Settings is the per-user schedule configuration: the workday window,
// fixed meal anchors, and the state of the energy regen pod.
type Settings struct {
	WorkdayStart string             `json:"workday_start"` // "HH:MM" local
	WorkdayEnd   string             `json:"workday_end"`
	Meals        schedule.MealTimes `json:"meals"`
	PodStartedAt *time.Time         `json:"pod_started_at"`
	PodDuration  int                `json:"pod_duration"` // minutes
}

func Defaults(workdayStart, workdayEnd string) Settings {
	return Settings{
		WorkdayStart: workdayStart,
		WorkdayEnd:   workdayEnd,
		Meals: schedule.MealTimes{
			Breakfast: "08:00",
			Lunch:     "12:30",
			Dinner:    "18:30",
			Duration:  30,
		},
		PodDuration: 25,
	}
}

type Store struct {
	db       *sql.DB
	defaults Settings
}

func NewStore(db *sql.DB, defaults Settings) *Store {
	return &Store{db: db, defaults: defaults}
}

// Get returns the user's settings, falling back to the defaults when the
// user never saved a row.
func (s *Store) Get(ctx context.Context, userID int) (Settings, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT workday_start, workday_end,
		       COALESCE(breakfast_start,''), COALESCE(lunch_start,''), COALESCE(dinner_start,''),
		       meal_duration, pod_started_at, pod_duration
		FROM user_settings
		WHERE user_id = $1
	`, userID)

	var (
		out        Settings
		podStarted sql.NullTime
	)
	err := row.Scan(
		&out.WorkdayStart, &out.WorkdayEnd,
		&out.Meals.Breakfast, &out.Meals.Lunch, &out.Meals.Dinner,
		&out.Meals.Duration, &podStarted, &out.PodDuration,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return s.defaults, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	if podStarted.Valid {
		out.PodStartedAt = &podStarted.Time
	}
	return out, nil
}

func (s *Store) Save(ctx context.Context, userID int, in Settings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_settings (
			user_id, workday_start, workday_end,
			breakfast_start, lunch_start, dinner_start, meal_duration,
			pod_started_at, pod_duration, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now())
		ON CONFLICT (user_id) DO UPDATE SET
			workday_start = EXCLUDED.workday_start,
			workday_end = EXCLUDED.workday_end,
			breakfast_start = EXCLUDED.breakfast_start,
			lunch_start = EXCLUDED.lunch_start,
			dinner_start = EXCLUDED.dinner_start,
			meal_duration = EXCLUDED.meal_duration,
			pod_started_at = EXCLUDED.pod_started_at,
			pod_duration = EXCLUDED.pod_duration,
			updated_at = now()
	`,
		userID, in.WorkdayStart, in.WorkdayEnd,
		in.Meals.Breakfast, in.Meals.Lunch, in.Meals.Dinner, in.Meals.Duration,
		in.PodStartedAt, in.PodDuration,
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// StartPod arms the regen pod from "now"; StopPod clears it.
func (s *Store) StartPod(ctx context.Context, userID int, now time.Time, duration int) (Settings, error) {
	cur, err := s.Get(ctx, userID)
	if err != nil {
		return Settings{}, err
	}
	if duration > 0 {
		cur.PodDuration = duration
	}
	cur.PodStartedAt = &now
	if err := s.Save(ctx, userID, cur); err != nil {
		return Settings{}, err
	}
	return cur, nil
}

func (s *Store) StopPod(ctx context.Context, userID int) (Settings, error) {
	cur, err := s.Get(ctx, userID)
	if err != nil {
		return Settings{}, err
	}
	cur.PodStartedAt = nil
	if err := s.Save(ctx, userID, cur); err != nil {
		return Settings{}, err
	}
	return cur, nil
}

// Window resolves the workday window onto a concrete day. A window end at or
// before the start means the workday runs past midnight, so the end lands on
// the next day.
func (s Settings) Window(day time.Time) (start, end time.Time, err error) {
	start, err = onDay(day, s.WorkdayStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("workday start: %w", err)
	}
	end, err = onDay(day, s.WorkdayEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("workday end: %w", err)
	}
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	return start, end, nil
}

// ActivePod returns the regen pod when one is armed.
func (s Settings) ActivePod() *schedule.RegenPod {
	if s.PodStartedAt == nil || s.PodDuration <= 0 {
		return nil
	}
	return &schedule.RegenPod{StartedAt: *s.PodStartedAt, Duration: s.PodDuration}
}

func onDay(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
