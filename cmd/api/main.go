package main

import (
	"net/http"
	"os"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dbuatti/productive-sloth-sub001/internal/auth"
	"github.com/dbuatti/productive-sloth-sub001/internal/config"
	"github.com/dbuatti/productive-sloth-sub001/internal/db"
	"github.com/dbuatti/productive-sloth-sub001/internal/energy"
	"github.com/dbuatti/productive-sloth-sub001/internal/settings"
	"github.com/dbuatti/productive-sloth-sub001/internal/tasks"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	database, err := db.Connect(cfg.ConnString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to PostgreSQL")
	}
	defer database.Close()

	log.Info().Msg("connected to PostgreSQL")

	secret := []byte(cfg.JWTSecret)
	mw := auth.New(secret)

	taskStore := tasks.NewStore(database)
	settingsStore := settings.NewStore(database, settings.Defaults(cfg.WorkdayStart, cfg.WorkdayEnd))
	ledger := energy.NewLedger(database)

	mux := http.NewServeMux()

	// Health endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// ----- AUTH -----
	mux.HandleFunc("/auth/register", auth.RegisterHandler(database, secret))
	mux.HandleFunc("/auth/login", auth.LoginHandler(database, secret))
	mux.HandleFunc("/auth/me", mw.Wrap(auth.MeHandler(database)))
	mux.HandleFunc("/auth/delete", mw.Wrap(auth.DeleteAccountHandler(database)))

	// ----- TASKS -----
	mux.HandleFunc("/tasks", mw.Wrap(tasks.GetTasksHandler(taskStore)))
	mux.HandleFunc("/tasks/quickadd", mw.Wrap(tasks.QuickAddHandler(database, taskStore)))
	mux.HandleFunc("/tasks/inject", mw.Wrap(tasks.InjectHandler(database, taskStore)))
	mux.HandleFunc("/tasks/update", mw.Wrap(tasks.UpdateTaskHandler(taskStore)))
	mux.HandleFunc("/tasks/complete", mw.Wrap(tasks.SetCompletedHandler(database, taskStore, ledger)))
	mux.HandleFunc("/tasks/lock", mw.Wrap(tasks.SetLockedHandler(taskStore)))
	mux.HandleFunc("/tasks/urgency", mw.Wrap(tasks.SetUrgencyHandler(taskStore)))
	mux.HandleFunc("/tasks/delete", mw.Wrap(tasks.DeleteTaskHandler(taskStore)))
	mux.HandleFunc("/tasks/retire", mw.Wrap(tasks.RetireTaskHandler(database, taskStore)))
	mux.HandleFunc("/tasks/rezone", mw.Wrap(tasks.RezoneTaskHandler(database, taskStore)))
	mux.HandleFunc("/sink", mw.Wrap(tasks.GetSinkHandler(taskStore)))

	// ----- SCHEDULE -----
	mux.HandleFunc("/schedule", mw.Wrap(tasks.GetScheduleHandler(taskStore, settingsStore)))
	mux.HandleFunc("/schedule/compact", mw.Wrap(tasks.CompactScheduleHandler(database, taskStore, settingsStore)))

	// ----- SETTINGS / POD -----
	mux.HandleFunc("/settings", mw.Wrap(methodSwitch(
		settings.GetSettingsHandler(settingsStore),
		settings.SaveSettingsHandler(settingsStore),
	)))
	mux.HandleFunc("/pod/start", mw.Wrap(settings.StartPodHandler(settingsStore)))
	mux.HandleFunc("/pod/stop", mw.Wrap(settings.StopPodHandler(settingsStore)))

	// ----- ENERGY -----
	mux.HandleFunc("/energy", mw.Wrap(energy.GetEnergyHandler(ledger)))

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	handler := c.Handler(mux)

	log.Info().Str("addr", cfg.ListenAddr).Msg("API server is running")
	if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func methodSwitch(get, post http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			get(w, r)
		case http.MethodPost:
			post(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
