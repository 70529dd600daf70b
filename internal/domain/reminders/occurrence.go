package reminders

import (
	"time"

	"med-reminder/internal/domain/medications"
)

// GraceWindow es la tolerancia simétrica alrededor de una toma para
// considerarla "debida ahora".
const GraceWindow = 10 * time.Minute

// Occurrence es una toma concreta de un medicamento. No se persiste.
type Occurrence struct {
	MedicationID string    `json:"medication_id"`
	DueAt        time.Time `json:"due_at"`

	// Origin es la toma programada que una posposición reemplazó. Cero si
	// la toma no viene de una posposición.
	Origin time.Time `json:"origin,omitzero"`
}

// NextDue calcula la próxima toma de m vista desde now.
//
// Sin intervalo, la única toma es StartTime. Si no, se ancla en la última
// toma registrada (o en StartTime si no hay historial) y, cuando el
// candidato quedó más atrás que now-GraceWindow, se saltan los ciclos
// perdidos hasta el siguiente.
func NextDue(m medications.Medication, now time.Time) time.Time {
	if m.IsOneShot() {
		return m.StartTime
	}

	every := m.Interval()
	anchor := m.StartTime
	candidate := m.StartTime
	if last, ok := m.LastTaken(); ok {
		anchor = last
		candidate = last.Add(every)
	}

	if !candidate.Before(now.Add(-GraceWindow)) {
		return candidate
	}
	return fastForward(anchor, every, now)
}

func fastForward(anchor time.Time, every time.Duration, now time.Time) time.Time {
	cycles := now.Sub(anchor) / every
	return anchor.Add((cycles + 1) * every)
}

// InWindow indica si due cae dentro de (now-GraceWindow, now+GraceWindow).
func InWindow(due, now time.Time) bool {
	diff := due.Sub(now)
	return diff > -GraceWindow && diff < GraceWindow
}
