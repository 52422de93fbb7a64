package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/dbuatti/productive-sloth-sub001/internal/schedule"
)

var (
	ErrNotFound = errors.New("task not found")

	// ErrCalendarManaged guards rows imported from an external calendar:
	// they are never moved, completed, or deleted here.
	ErrCalendarManaged = errors.New("calendar-sourced task is read-only")
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const scheduledColumns = `
	id, name, start_time, end_time, scheduled_date, duration, break_duration,
	is_critical, is_backburner, is_flexible, is_locked, is_completed,
	energy_cost, is_custom_energy_cost, task_environment, source_calendar_id,
	created_at`

func scanScheduled(row interface{ Scan(...any) error }) (schedule.ScheduledTask, error) {
	var (
		t        schedule.ScheduledTask
		start    sql.NullTime
		end      sql.NullTime
		calendar sql.NullString
		dateStr  time.Time
	)
	err := row.Scan(
		&t.ID, &t.Name, &start, &end, &dateStr, &t.Duration, &t.BreakDuration,
		&t.IsCritical, &t.IsBackburner, &t.IsFlexible, &t.IsLocked, &t.IsCompleted,
		&t.EnergyCost, &t.IsCustomEnergyCost, &t.TaskEnvironment, &calendar,
		&t.CreatedAt,
	)
	if err != nil {
		return schedule.ScheduledTask{}, err
	}
	if start.Valid {
		t.StartTime = &start.Time
	}
	if end.Valid {
		t.EndTime = &end.Time
	}
	if calendar.Valid {
		t.SourceCalendarID = &calendar.String
	}
	t.ScheduledDate = dateStr.Format("2006-01-02")
	return t, nil
}

func (s *Store) ListForDay(ctx context.Context, userID int, date string) ([]schedule.ScheduledTask, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT`+scheduledColumns+`
		FROM scheduled_tasks
		WHERE user_id = $1 AND scheduled_date = $2
		ORDER BY start_time NULLS LAST, created_at
	`, userID, date)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var result []schedule.ScheduledTask
	for rows.Next() {
		t, err := scanScheduled(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.UserID = userID
		result = append(result, t)
	}
	return result, rows.Err()
}

func (s *Store) Get(ctx context.Context, userID int, id string) (schedule.ScheduledTask, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT`+scheduledColumns+`
		FROM scheduled_tasks
		WHERE user_id = $1 AND id = $2
	`, userID, id)

	t, err := scanScheduled(row)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.ScheduledTask{}, ErrNotFound
	}
	if err != nil {
		return schedule.ScheduledTask{}, err
	}
	t.UserID = userID
	return t, nil
}

func (s *Store) Insert(ctx context.Context, t schedule.ScheduledTask) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scheduled_tasks (
			id, user_id, name, start_time, end_time, scheduled_date, duration,
			break_duration, is_critical, is_backburner, is_flexible, is_locked,
			is_completed, energy_cost, is_custom_energy_cost, task_environment,
			source_calendar_id
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		t.ID, t.UserID, t.Name,
		nullTime(t.StartTime), nullTime(t.EndTime),
		t.ScheduledDate, t.Duration, t.BreakDuration,
		t.IsCritical, t.IsBackburner, t.IsFlexible, t.IsLocked, t.IsCompleted,
		t.EnergyCost, t.IsCustomEnergyCost, t.TaskEnvironment,
		nullString(t.SourceCalendarID),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// Update rewrites a task's editable details. Times are owned by the
// compaction flow and not touched here.
func (s *Store) Update(ctx context.Context, t schedule.ScheduledTask) (schedule.ScheduledTask, error) {
	if err := s.guardCalendar(ctx, t.UserID, t.ID); err != nil {
		return schedule.ScheduledTask{}, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_tasks
		SET name = $1, duration = $2, break_duration = $3,
		    task_environment = $4, energy_cost = $5, is_custom_energy_cost = $6,
		    is_flexible = $7
		WHERE id = $8 AND user_id = $9
	`,
		t.Name, t.Duration, t.BreakDuration,
		t.TaskEnvironment, t.EnergyCost, t.IsCustomEnergyCost,
		t.IsFlexible,
		t.ID, t.UserID,
	)
	if err != nil {
		return schedule.ScheduledTask{}, fmt.Errorf("update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ScheduledTask{}, ErrNotFound
	}
	return s.Get(ctx, t.UserID, t.ID)
}

// SetCompleted toggles completion. Calendar-sourced rows are refused.
func (s *Store) SetCompleted(ctx context.Context, userID int, id string, completed bool) (schedule.ScheduledTask, error) {
	if err := s.guardCalendar(ctx, userID, id); err != nil {
		return schedule.ScheduledTask{}, err
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_tasks SET is_completed = $1
		WHERE id = $2 AND user_id = $3
	`, completed, id, userID)
	if err != nil {
		return schedule.ScheduledTask{}, fmt.Errorf("set completed: %w", err)
	}
	return s.Get(ctx, userID, id)
}

func (s *Store) SetLocked(ctx context.Context, userID int, id string, locked bool) (schedule.ScheduledTask, error) {
	if err := s.guardCalendar(ctx, userID, id); err != nil {
		return schedule.ScheduledTask{}, err
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_tasks SET is_locked = $1
		WHERE id = $2 AND user_id = $3
	`, locked, id, userID)
	if err != nil {
		return schedule.ScheduledTask{}, fmt.Errorf("set locked: %w", err)
	}
	return s.Get(ctx, userID, id)
}

// SetUrgency sets the critical/backburner pair. The flags are mutually
// exclusive: setting one clears the other.
func (s *Store) SetUrgency(ctx context.Context, userID int, id string, critical, backburner bool) (schedule.ScheduledTask, error) {
	if critical && backburner {
		backburner = false
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_tasks SET is_critical = $1, is_backburner = $2
		WHERE id = $3 AND user_id = $4
	`, critical, backburner, id, userID)
	if err != nil {
		return schedule.ScheduledTask{}, fmt.Errorf("set urgency: %w", err)
	}
	return s.Get(ctx, userID, id)
}

func (s *Store) Delete(ctx context.Context, userID int, id string) error {
	if err := s.guardCalendar(ctx, userID, id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM scheduled_tasks WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Retire moves a scheduled task into the sink: delete the placement, insert
// a backlog row carrying the intended duration, one transaction.
func (s *Store) Retire(ctx context.Context, userID int, id string) (RetiredTask, error) {
	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return RetiredTask{}, err
	}
	if t.FromCalendar() {
		return RetiredTask{}, ErrCalendarManaged
	}

	rt := RetiredTask{
		ID:                    t.ID,
		UserID:                userID,
		Name:                  t.Name,
		Duration:              t.DurationMinutes(),
		BreakDuration:         t.BreakDuration,
		IsCritical:            t.IsCritical,
		IsBackburner:          t.IsBackburner,
		IsLocked:              t.IsLocked,
		EnergyCost:            t.EnergyCost,
		IsCustomEnergyCost:    t.IsCustomEnergyCost,
		TaskEnvironment:       t.TaskEnvironment,
		OriginalScheduledDate: t.ScheduledDate,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RetiredTask{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM scheduled_tasks WHERE id = $1 AND user_id = $2
	`, id, userID); err != nil {
		return RetiredTask{}, fmt.Errorf("retire delete: %w", err)
	}
	if err := insertRetired(ctx, tx, rt); err != nil {
		return RetiredTask{}, err
	}
	if err := tx.Commit(); err != nil {
		return RetiredTask{}, err
	}
	return rt, nil
}

// Rezone converts a retired task back into an unplaced scheduled row on the
// given day; compaction gives it a concrete time later.
func (s *Store) Rezone(ctx context.Context, userID int, id, date string) (schedule.ScheduledTask, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, duration, break_duration, is_critical, is_backburner,
		       is_locked, energy_cost, is_custom_energy_cost, task_environment,
		       original_scheduled_date, created_at
		FROM retired_tasks
		WHERE user_id = $1 AND id = $2
	`, userID, id)

	var rt RetiredTask
	var origDate time.Time
	err := row.Scan(
		&rt.ID, &rt.Name, &rt.Duration, &rt.BreakDuration,
		&rt.IsCritical, &rt.IsBackburner, &rt.IsLocked,
		&rt.EnergyCost, &rt.IsCustomEnergyCost, &rt.TaskEnvironment,
		&origDate, &rt.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.ScheduledTask{}, ErrNotFound
	}
	if err != nil {
		return schedule.ScheduledTask{}, err
	}

	t := schedule.ScheduledTask{
		ID:                 rt.ID,
		UserID:             userID,
		Name:               rt.Name,
		ScheduledDate:      date,
		Duration:           rt.Duration,
		BreakDuration:      rt.BreakDuration,
		IsCritical:         rt.IsCritical,
		IsBackburner:       rt.IsBackburner,
		IsFlexible:         true,
		IsLocked:           rt.IsLocked,
		EnergyCost:         rt.EnergyCost,
		IsCustomEnergyCost: rt.IsCustomEnergyCost,
		TaskEnvironment:    rt.TaskEnvironment,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return schedule.ScheduledTask{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM retired_tasks WHERE id = $1 AND user_id = $2
	`, id, userID); err != nil {
		return schedule.ScheduledTask{}, fmt.Errorf("rezone delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO scheduled_tasks (
			id, user_id, name, scheduled_date, duration, break_duration,
			is_critical, is_backburner, is_flexible, is_locked,
			energy_cost, is_custom_energy_cost, task_environment
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		t.ID, userID, t.Name, t.ScheduledDate, t.Duration, t.BreakDuration,
		t.IsCritical, t.IsBackburner, t.IsFlexible, t.IsLocked,
		t.EnergyCost, t.IsCustomEnergyCost, t.TaskEnvironment,
	); err != nil {
		return schedule.ScheduledTask{}, fmt.Errorf("rezone insert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return schedule.ScheduledTask{}, err
	}
	return t, nil
}

func (s *Store) ListRetired(ctx context.Context, userID int) ([]RetiredTask, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, duration, break_duration, is_critical, is_backburner,
		       is_locked, energy_cost, is_custom_energy_cost, task_environment,
		       original_scheduled_date, created_at
		FROM retired_tasks
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list retired: %w", err)
	}
	defer rows.Close()

	var result []RetiredTask
	for rows.Next() {
		var rt RetiredTask
		var origDate time.Time
		if err := rows.Scan(
			&rt.ID, &rt.Name, &rt.Duration, &rt.BreakDuration,
			&rt.IsCritical, &rt.IsBackburner, &rt.IsLocked,
			&rt.EnergyCost, &rt.IsCustomEnergyCost, &rt.TaskEnvironment,
			&origDate, &rt.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan retired: %w", err)
		}
		rt.UserID = userID
		rt.OriginalScheduledDate = origDate.Format("2006-01-02")
		result = append(result, rt)
	}
	return result, rows.Err()
}

func (s *Store) InsertRetired(ctx context.Context, rt RetiredTask) error {
	return insertRetired(ctx, s.db, rt)
}

// ReplaceDay persists a compaction result atomically: the superseded rows
// are deleted and the re-placed rows inserted in one transaction, so readers
// never observe a half-compacted day.
func (s *Store) ReplaceDay(ctx context.Context, userID int, placed []schedule.ScheduledTask) error {
	if len(placed) == 0 {
		return nil
	}

	ids := make([]string, 0, len(placed))
	for _, t := range placed {
		ids = append(ids, t.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM scheduled_tasks WHERE user_id = $1 AND id = ANY($2)
	`, userID, pq.Array(ids)); err != nil {
		return fmt.Errorf("replace day delete: %w", err)
	}

	for _, t := range placed {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO scheduled_tasks (
				id, user_id, name, start_time, end_time, scheduled_date, duration,
				break_duration, is_critical, is_backburner, is_flexible, is_locked,
				is_completed, energy_cost, is_custom_energy_cost, task_environment,
				source_calendar_id
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		`,
			t.ID, userID, t.Name,
			nullTime(t.StartTime), nullTime(t.EndTime),
			t.ScheduledDate, t.Duration, t.BreakDuration,
			t.IsCritical, t.IsBackburner, t.IsFlexible, t.IsLocked, t.IsCompleted,
			t.EnergyCost, t.IsCustomEnergyCost, t.TaskEnvironment,
			nullString(t.SourceCalendarID),
		); err != nil {
			return fmt.Errorf("replace day insert %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRetired(ctx context.Context, db execer, rt RetiredTask) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO retired_tasks (
			id, user_id, name, duration, break_duration, is_critical,
			is_backburner, is_locked, energy_cost, is_custom_energy_cost,
			task_environment, original_scheduled_date
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		rt.ID, rt.UserID, rt.Name, rt.Duration, rt.BreakDuration,
		rt.IsCritical, rt.IsBackburner, rt.IsLocked,
		rt.EnergyCost, rt.IsCustomEnergyCost, rt.TaskEnvironment,
		nullDate(rt.OriginalScheduledDate),
	)
	if err != nil {
		return fmt.Errorf("insert retired: %w", err)
	}
	return nil
}

func (s *Store) guardCalendar(ctx context.Context, userID int, id string) error {
	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if t.FromCalendar() {
		return ErrCalendarManaged
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullDate(date string) sql.NullString {
	if date == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: date, Valid: true}
}
