package reminders

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"med-reminder/internal/domain/medications"

	"github.com/go-chi/chi/v5"
)

type HandlerConfig struct {
	// DefaultPostponeMinutes se usa cuando el body de postpone no trae minutes.
	DefaultPostponeMinutes int
}

func RegisterRoutes(r chi.Router, drv *Driver, cfg HandlerConfig) {
	if cfg.DefaultPostponeMinutes <= 0 {
		cfg.DefaultPostponeMinutes = 10
	}

	r.Route("/alarm", func(ar chi.Router) {
		ar.Get("/", getAlarmHandler(drv))
		ar.Post("/acknowledge", acknowledgeHandler(drv))
		ar.Post("/postpone", postponeHandler(drv, cfg.DefaultPostponeMinutes))
		ar.Post("/stop", stopHandler(drv))
		ar.Post("/test", testAlarmHandler(drv))
	})

	r.Get("/schedule", scheduleHandler(drv))
}

type postponeRequest struct {
	Minutes *int `json:"minutes"`
}

type postponeResponse struct {
	MedicationID string    `json:"medication_id"`
	Until        time.Time `json:"until"`
}

type testAlarmRequest struct {
	MedicationID string `json:"medication_id"`
}

// getAlarmHandler godoc
// @Summary Alarma activa
// @Description Devuelve la sesión de alarma activa y la cola de pendientes. 204 si no hay alarma ni pendientes.
// @Tags alarm
// @Produce json
// @Success 200 {object} AlarmStatus
// @Success 204
// @Router /alarm [get]
func getAlarmHandler(drv *Driver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := drv.Status(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if !st.Active && len(st.Pending) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// acknowledgeHandler godoc
// @Summary Confirmar toma
// @Description Registra la toma de la alarma activa en el historial y cierra la alarma.
// @Tags alarm
// @Produce json
// @Success 200 {object} medications.Medication
// @Failure 409 {string} string "no active alarm"
// @Router /alarm/acknowledge [post]
func acknowledgeHandler(drv *Driver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := drv.Acknowledge(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

// postponeHandler godoc
// @Summary Posponer alarma
// @Description Pospone la alarma activa. No registra la toma.
// @Tags alarm
// @Accept json
// @Produce json
// @Param payload body postponeRequest false "Minutos a posponer (default 10)"
// @Success 200 {object} postponeResponse
// @Failure 400 {string} string "invalid minutes"
// @Failure 409 {string} string "no active alarm"
// @Router /alarm/postpone [post]
func postponeHandler(drv *Driver, defaultMinutes int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req postponeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		minutes := defaultMinutes
		if req.Minutes != nil {
			minutes = *req.Minutes
		}

		occ, err := drv.Postpone(r.Context(), minutes)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, postponeResponse{MedicationID: occ.MedicationID, Until: occ.DueAt})
	}
}

func stopHandler(drv *Driver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := drv.Dismiss(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// testAlarmHandler godoc
// @Summary Probar alarma
// @Description Notifica una vez para el medicamento, sin abrir sesión.
// @Tags alarm
// @Accept json
// @Param payload body testAlarmRequest true "Medicamento"
// @Success 202
// @Failure 404 {string} string "medication not found"
// @Router /alarm/test [post]
func testAlarmHandler(drv *Driver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req testAlarmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MedicationID == "" {
			http.Error(w, "medication_id is required", http.StatusBadRequest)
			return
		}
		if err := drv.TestAlarm(r.Context(), req.MedicationID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

// scheduleHandler godoc
// @Summary Próximas tomas
// @Tags alarm
// @Produce json
// @Success 200 {array} ScheduleEntry
// @Router /schedule [get]
func scheduleHandler(drv *Driver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := drv.Upcoming(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoActiveAlarm):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidPostpone):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, medications.ErrNotFound):
		http.Error(w, "medication not found", http.StatusNotFound)
	case errors.Is(err, ErrStopped):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
