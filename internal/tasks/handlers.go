package tasks

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dbuatti/productive-sloth-sub001/internal/analytics"
	"github.com/dbuatti/productive-sloth-sub001/internal/auth"
	"github.com/dbuatti/productive-sloth-sub001/internal/energy"
	"github.com/dbuatti/productive-sloth-sub001/internal/schedule"
)

// parseDay resolves a "YYYY-MM-DD" query/body value, defaulting to today.
func parseDay(date string) (time.Time, error) {
	if date == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local), nil
	}
	return time.ParseInLocation("2006-01-02", date, time.Local)
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "task not found", http.StatusNotFound)
	case errors.Is(err, ErrCalendarManaged):
		http.Error(w, "calendar events are read-only", http.StatusForbidden)
	default:
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
	}
}

func GetTasksHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		day, err := parseDay(r.URL.Query().Get("date"))
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}

		list, err := store.ListForDay(r.Context(), uid, schedule.DateKey(day))
		if err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []schedule.ScheduledTask{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

func GetSinkHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		list, err := store.ListRetired(r.Context(), uid)
		if err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []RetiredTask{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

// QuickAddHandler runs the quick-add grammar over raw user text and inserts
// the resulting row: a scheduled task, or a sink entry when the text says so.
// Unparseable text is a 422, never a 500.
func QuickAddHandler(dbx *sql.DB, store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			Raw  string `json:"raw"`
			Date string `json:"date"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		day, err := parseDay(body.Date)
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}

		parsed, err := schedule.ParseQuickAddInput(body.Raw, day)
		if err != nil {
			http.Error(w, "parse error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if parsed == nil {
			http.Error(w, "could not understand input", http.StatusUnprocessableEntity)
			return
		}

		id := uuid.NewString()

		if parsed.ToSink {
			rt := RetiredTask{
				ID:                    id,
				UserID:                uid,
				Name:                  parsed.Name,
				Duration:              parsed.Duration,
				BreakDuration:         parsed.BreakDuration,
				IsCritical:            parsed.IsCritical,
				IsBackburner:          parsed.IsBackburner,
				EnergyCost:            parsed.EnergyCost,
				OriginalScheduledDate: schedule.DateKey(day),
			}
			if err := store.InsertRetired(r.Context(), rt); err != nil {
				http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
				return
			}

			logTaskEvent(r, dbx, uid, "task_sunk", id, parsed)

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(rt)
			return
		}

		t := schedule.ScheduledTask{
			ID:            id,
			UserID:        uid,
			Name:          parsed.Name,
			StartTime:     parsed.StartTime,
			EndTime:       parsed.EndTime,
			ScheduledDate: schedule.DateKey(day),
			Duration:      parsed.Duration,
			BreakDuration: parsed.BreakDuration,
			IsCritical:    parsed.IsCritical,
			IsBackburner:  parsed.IsBackburner,
			IsFlexible:    parsed.IsFlexible,
			EnergyCost:    parsed.EnergyCost,
		}
		if err := store.Insert(r.Context(), t); err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}

		logTaskEvent(r, dbx, uid, "task_created", id, parsed)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(t)
	}
}

// InjectHandler places a task into an explicit free-time gap. The command
// carries either its own time range or a duration paired with the gap start
// supplied by the caller. The slot is re-verified against the current rows
// before committing, since the gap the UI showed may be stale by now.
func InjectHandler(dbx *sql.DB, store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			Raw      string `json:"raw"`
			Date     string `json:"date"`
			GapStart string `json:"gap_start"` // RFC3339, optional
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		day, err := parseDay(body.Date)
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}

		parsed, err := schedule.ParseInjectionCommand(body.Raw)
		if err != nil {
			http.Error(w, "parse error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if parsed == nil {
			http.Error(w, "could not understand inject command", http.StatusUnprocessableEntity)
			return
		}

		if parsed.ToSink {
			http.Error(w, "inject cannot target the sink", http.StatusBadRequest)
			return
		}

		var start, end time.Time
		switch {
		case parsed.StartMinutes != nil && parsed.EndMinutes != nil:
			start = day.Add(time.Duration(*parsed.StartMinutes) * time.Minute)
			end = day.Add(time.Duration(*parsed.EndMinutes) * time.Minute)
			if !end.After(start) {
				end = end.Add(24 * time.Hour)
			}
		case body.GapStart != "":
			start, err = time.Parse(time.RFC3339, body.GapStart)
			if err != nil {
				http.Error(w, "invalid gap_start", http.StatusBadRequest)
				return
			}
			end = start.Add(time.Duration(parsed.Duration+parsed.BreakDuration) * time.Minute)
		default:
			http.Error(w, "no target slot: give a time range or gap_start", http.StatusBadRequest)
			return
		}

		existing, err := store.ListForDay(r.Context(), uid, schedule.DateKey(day))
		if err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		var occupied []schedule.TimeBlock
		for _, t := range existing {
			if t.StartTime != nil && t.EndTime != nil {
				occupied = append(occupied, schedule.NewTimeBlock(*t.StartTime, *t.EndTime))
			}
		}
		if !schedule.IsSlotFree(start, end, occupied) {
			http.Error(w, "slot is no longer free", http.StatusConflict)
			return
		}

		t := schedule.ScheduledTask{
			ID:            uuid.NewString(),
			UserID:        uid,
			Name:          parsed.Name,
			StartTime:     &start,
			EndTime:       &end,
			ScheduledDate: schedule.DateKey(day),
			Duration:      parsed.Duration,
			BreakDuration: parsed.BreakDuration,
			IsCritical:    parsed.IsCritical,
			IsBackburner:  parsed.IsBackburner,
			IsFlexible:    parsed.IsFlexible,
			EnergyCost:    parsed.EnergyCost,
		}
		if err := store.Insert(r.Context(), t); err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}

		// analytics: task_injected
		{
			env := analytics.FromRequest(r)
			env.UserID = uid
			props := map[string]any{
				"task_id":  t.ID,
				"duration": t.Duration,
				"critical": t.IsCritical,
			}
			_ = analytics.Log(r.Context(), dbx, env, "task_injected", props, analytics.SourceEventKeyFromRequest(r))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(t)
	}
}

// SetCompletedHandler toggles completion and settles the task's energy cost
// against the ledger: completing spends (or restores, for meals), and
// un-completing reverses the charge.
func SetCompletedHandler(dbx *sql.DB, store *Store, ledger *energy.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			TaskID    string `json:"task_id"`
			Completed bool   `json:"completed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.TaskID == "" {
			http.Error(w, "task_id required", http.StatusBadRequest)
			return
		}

		prev, err := store.Get(r.Context(), uid, body.TaskID)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		t, err := store.SetCompleted(r.Context(), uid, body.TaskID, body.Completed)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		if prev.IsCompleted != t.IsCompleted {
			delta := t.EnergyCost
			reason := "task_completed"
			if !t.IsCompleted {
				delta = -delta
				reason = "task_uncompleted"
			}
			if err := ledger.Apply(r.Context(), uid, delta, reason, t.ID); err != nil {
				log.Warn().Err(err).Str("task_id", t.ID).Msg("energy ledger write failed")
			}

			env := analytics.FromRequest(r)
			env.UserID = uid
			props := map[string]any{
				"task_id":     t.ID,
				"energy_cost": t.EnergyCost,
				"critical":    t.IsCritical,
			}
			_ = analytics.Log(r.Context(), dbx, env, reason, props, analytics.SourceEventKeyFromRequest(r))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(t)
	}
}

func SetLockedHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			TaskID string `json:"task_id"`
			Locked bool   `json:"locked"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.TaskID == "" {
			http.Error(w, "task_id required", http.StatusBadRequest)
			return
		}

		t, err := store.SetLocked(r.Context(), uid, body.TaskID, body.Locked)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(t)
	}
}

// SetUrgencyHandler flips the critical/backburner pair. The flags are
// mutually exclusive at this boundary; the scheduler trusts that.
func SetUrgencyHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			TaskID     string `json:"task_id"`
			Critical   bool   `json:"critical"`
			Backburner bool   `json:"backburner"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.TaskID == "" {
			http.Error(w, "task_id required", http.StatusBadRequest)
			return
		}

		t, err := store.SetUrgency(r.Context(), uid, body.TaskID, body.Critical, body.Backburner)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		// recompute the derived cost unless the user overrode it
		if !t.IsCustomEnergyCost {
			t.EnergyCost = schedule.EnergyCost(t.DurationMinutes(), t.IsCritical, t.IsBackburner, schedule.IsMealName(t.Name))
			if t, err = store.Update(r.Context(), t); err != nil {
				writeStoreError(w, err)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(t)
	}
}

func UpdateTaskHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			TaskID        string  `json:"task_id"`
			Name          *string `json:"name"`
			Duration      *int    `json:"duration"`
			BreakDuration *int    `json:"break_duration"`
			Environment   *string `json:"task_environment"`
			EnergyCost    *int    `json:"energy_cost"`
			Flexible      *bool   `json:"is_flexible"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.TaskID == "" {
			http.Error(w, "task_id required", http.StatusBadRequest)
			return
		}

		t, err := store.Get(r.Context(), uid, body.TaskID)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		if body.Name != nil {
			t.Name = *body.Name
		}
		if body.Duration != nil {
			t.Duration = *body.Duration
		}
		if body.BreakDuration != nil {
			t.BreakDuration = *body.BreakDuration
		}
		if body.Environment != nil {
			t.TaskEnvironment = *body.Environment
		}
		if body.Flexible != nil {
			t.IsFlexible = *body.Flexible
		}
		if body.EnergyCost != nil {
			t.EnergyCost = *body.EnergyCost
			t.IsCustomEnergyCost = true
		} else if !t.IsCustomEnergyCost {
			t.EnergyCost = schedule.EnergyCost(t.DurationMinutes(), t.IsCritical, t.IsBackburner, schedule.IsMealName(t.Name))
		}

		t, err = store.Update(r.Context(), t)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(t)
	}
}

func DeleteTaskHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			TaskID string `json:"task_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := store.Delete(r.Context(), uid, body.TaskID); err != nil {
			writeStoreError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

func RetireTaskHandler(dbx *sql.DB, store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			TaskID string `json:"task_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		rt, err := store.Retire(r.Context(), uid, body.TaskID)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		// analytics: task_retired
		{
			env := analytics.FromRequest(r)
			env.UserID = uid
			props := map[string]any{
				"task_id":  rt.ID,
				"duration": rt.Duration,
			}
			_ = analytics.Log(r.Context(), dbx, env, "task_retired", props, analytics.SourceEventKeyFromRequest(r))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rt)
	}
}

func RezoneTaskHandler(dbx *sql.DB, store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			TaskID string `json:"task_id"`
			Date   string `json:"date"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		day, err := parseDay(body.Date)
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}

		t, err := store.Rezone(r.Context(), uid, body.TaskID, schedule.DateKey(day))
		if err != nil {
			writeStoreError(w, err)
			return
		}

		// analytics: task_rezoned
		{
			env := analytics.FromRequest(r)
			env.UserID = uid
			props := map[string]any{
				"task_id": t.ID,
				"date":    t.ScheduledDate,
			}
			_ = analytics.Log(r.Context(), dbx, env, "task_rezoned", props, analytics.SourceEventKeyFromRequest(r))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(t)
	}
}

func logTaskEvent(r *http.Request, dbx *sql.DB, uid int, event, taskID string, p *schedule.ParsedTask) {
	env := analytics.FromRequest(r)
	env.UserID = uid

	props := map[string]any{
		"task_id":    taskID,
		"duration":   p.Duration,
		"critical":   p.IsCritical,
		"backburner": p.IsBackburner,
		"fixed":      p.StartTime != nil,
		"text_len":   len(p.Name),
	}
	_ = analytics.Log(r.Context(), dbx, env, event, props, analytics.SourceEventKeyFromRequest(r))
}
