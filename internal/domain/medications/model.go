package medications

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// Medication es el registro persistido de un medicamento y sus tomas.
// Los tags json definen el layout estable en los stores clave-valor
// (badger, sqlite); solo se agregan campos, nunca se renombran.
type Medication struct {
	ID string `json:"id"`

	Name            string `json:"name"`
	DoseDescription string `json:"dose_description"`

	StartTime       time.Time `json:"start_time"`
	IntervalMinutes int       `json:"interval_minutes"` // 0 = una sola toma

	PhotoRef string `json:"photo_ref,omitempty"`

	// History guarda cada toma confirmada en orden de inserción.
	// No está necesariamente ordenado (el reloj puede moverse).
	History []time.Time `json:"history"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Interval devuelve el intervalo de repetición; 0 si es one-shot.
func (m Medication) Interval() time.Duration {
	if m.IntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(m.IntervalMinutes) * time.Minute
}

func (m Medication) IsOneShot() bool { return m.IntervalMinutes == 0 }

// LastTaken devuelve la toma más reciente de History.
func (m Medication) LastTaken() (time.Time, bool) {
	if len(m.History) == 0 {
		return time.Time{}, false
	}
	last := m.History[0]
	for _, t := range m.History[1:] {
		if t.After(last) {
			last = t
		}
	}
	return last, true
}

// SortedHistory devuelve una copia de History en orden cronológico.
func (m Medication) SortedHistory() []time.Time {
	out := append(make([]time.Time, 0, len(m.History)), m.History...)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Clone copia el slice de History para que el llamador pueda mutarlo.
func (m Medication) Clone() Medication {
	c := m
	c.History = append(make([]time.Time, 0, len(m.History)), m.History...)
	return c
}

// ValidateSchedule verifica lo mínimo que necesita el calculador de ocurrencias.
func (m Medication) ValidateSchedule() error {
	switch {
	case strings.TrimSpace(m.ID) == "":
		return errors.New("medication id required")
	case m.IntervalMinutes < 0:
		return ErrMalformedSchedule
	case m.StartTime.IsZero():
		return ErrMalformedSchedule
	}
	return nil
}
