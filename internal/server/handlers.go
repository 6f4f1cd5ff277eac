package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/liftbot/internal/models"
	"github.com/meltforce/liftbot/internal/sheet"
	"github.com/meltforce/liftbot/internal/storage"
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Pool.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// resolveUser maps the user query parameter (a Telegram id) to the user row.
func (s *Server) resolveUser(w http.ResponseWriter, r *http.Request) (models.UserRow, bool) {
	telegramID, err := strconv.ParseInt(r.URL.Query().Get("user"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user parameter required"})
		return models.UserRow{}, false
	}
	user, err := s.db.GetUserByTelegramID(r.Context(), telegramID)
	if errors.Is(err, storage.ErrUserNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown user"})
		return models.UserRow{}, false
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return models.UserRow{}, false
	}
	return user, true
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := s.resolveUser(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	last, err := s.db.LastWorkoutSummary(ctx, user.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	week, err := s.db.VolumeForPeriod(ctx, user.ID, 7)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	month, err := s.db.VolumeForPeriod(ctx, user.ID, 30)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	top, err := s.db.TopExercisesByTonnage(ctx, user.ID, 5)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"last_workout":  last,
		"volume_7d":     week,
		"volume_30d":    month,
		"top_exercises": top,
	})
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	user, ok := s.resolveUser(w, r)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	workouts, total, err := s.db.ListWorkouts(r.Context(), user.ID, (page-1)*limit, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"workouts": workouts,
		"total":    total,
		"page":     page,
	})
}

func (s *Server) handleWorkoutDetail(w http.ResponseWriter, r *http.Request) {
	workoutID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid workout id"})
		return
	}

	detail, err := s.db.WorkoutDetail(r.Context(), workoutID)
	if errors.Is(err, storage.ErrWorkoutNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleLatestPRs(w http.ResponseWriter, r *http.Request) {
	user, ok := s.resolveUser(w, r)
	if !ok {
		return
	}
	prs, err := s.db.LatestPRs(r.Context(), user.ID, 20)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, prs)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	user, ok := s.resolveUser(w, r)
	if !ok {
		return
	}
	rows, err := s.db.TrainingLog(r.Context(), user.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="training.csv"`)
	if err := sheet.WriteCSV(w, rows); err != nil {
		s.log.Error("writing csv export", "error", err)
	}
}

func (s *Server) handleMeasurements(w http.ResponseWriter, r *http.Request) {
	user, ok := s.resolveUser(w, r)
	if !ok {
		return
	}
	entries, err := s.db.LatestMetrics(r.Context(), user.ID, 30)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	user, ok := s.resolveUser(w, r)
	if !ok {
		return
	}
	logs, err := s.db.QueryImportLogs(r.Context(), user.ID, 20)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
