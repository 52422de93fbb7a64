package tasks

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dbuatti/productive-sloth-sub001/internal/analytics"
	"github.com/dbuatti/productive-sloth-sub001/internal/auth"
	"github.com/dbuatti/productive-sloth-sub001/internal/schedule"
	"github.com/dbuatti/productive-sloth-sub001/internal/settings"
)

// GetScheduleHandler resolves one day into the display timeline: items,
// summary, and the free gaps the UI offers as "inject here" targets.
func GetScheduleHandler(store *Store, cfg *settings.Store) http.HandlerFunc {
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

		userCfg, err := cfg.Get(r.Context(), uid)
		if err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		winStart, winEnd, err := userCfg.Window(day)
		if err != nil {
			http.Error(w, "invalid workday window", http.StatusInternalServerError)
			return
		}

		list, err := store.ListForDay(r.Context(), uid, schedule.DateKey(day))
		if err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}

		now := time.Now()
		formatted := schedule.CalculateSchedule(list, day, winStart, winEnd, now, userCfg.ActivePod(), &userCfg.Meals)

		free := schedule.FreeTimeBlocks(formatted.OccupiedBlocks(), winStart, winEnd)
		if free == nil {
			free = []schedule.TimeBlock{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items":       formatted.Items,
			"summary":     formatted.Summary,
			"free_blocks": free,
		})
	}
}

// CompactScheduleHandler re-packs the day's flexible tasks and persists the
// result atomically. Meal and pod blocks are fed in as obstacles so the
// planner never parks a task on top of lunch.
func CompactScheduleHandler(dbx *sql.DB, store *Store, cfg *settings.Store) http.HandlerFunc {
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

		userCfg, err := cfg.Get(r.Context(), uid)
		if err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		winStart, winEnd, err := userCfg.Window(day)
		if err != nil {
			http.Error(w, "invalid workday window", http.StatusInternalServerError)
			return
		}

		list, err := store.ListForDay(r.Context(), uid, schedule.DateKey(day))
		if err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}

		now := time.Now()

		// synthesize meal/pod obstacles exactly the way the display does
		synthetic := schedule.CalculateSchedule(nil, day, winStart, winEnd, now, userCfg.ActivePod(), &userCfg.Meals)
		extra := synthetic.OccupiedBlocks()

		result, unplaced, err := schedule.CompactSchedule(list, day, winStart, winEnd, now, extra)
		if err != nil {
			http.Error(w, "compact error: "+err.Error(), http.StatusInternalServerError)
			return
		}

		// only movable rows got new times; fixed rows stay untouched in the DB
		var moved []schedule.ScheduledTask
		for _, t := range result {
			if t.IsFlexible && !t.IsLocked && !t.IsCompleted && !t.FromCalendar() {
				moved = append(moved, t)
			}
		}

		if err := store.ReplaceDay(r.Context(), uid, moved); err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}

		// analytics: schedule_compacted
		{
			env := analytics.FromRequest(r)
			env.UserID = uid
			props := map[string]any{
				"date":     schedule.DateKey(day),
				"placed":   len(moved),
				"unplaced": len(unplaced),
			}
			_ = analytics.Log(r.Context(), dbx, env, "schedule_compacted", props, analytics.SourceEventKeyFromRequest(r))
		}

		unplacedNames := make([]string, 0, len(unplaced))
		for _, t := range unplaced {
			unplacedNames = append(unplacedNames, t.Name)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"placed":         len(moved),
			"unplaced":       len(unplaced),
			"unplaced_names": unplacedNames,
		})
	}
}
