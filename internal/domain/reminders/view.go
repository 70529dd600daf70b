package reminders

import (
	"sort"
	"time"
)

// AlarmStatus es la foto de la alarma activa para la UI.
type AlarmStatus struct {
	Active       bool         `json:"active"`
	MedicationID string       `json:"medication_id,omitempty"`
	DueAt        time.Time    `json:"due_at,omitzero"`
	StartedAt    time.Time    `json:"started_at,omitzero"`
	Title        string       `json:"title,omitempty"`
	Body         string       `json:"body,omitempty"`
	Icon         string       `json:"icon,omitempty"`
	Deliveries   int          `json:"deliveries"`
	Pending      []Occurrence `json:"pending"`
}

func (e *Engine) Status() AlarmStatus {
	st := AlarmStatus{Pending: append([]Occurrence{}, e.state.Pending...)}
	s := e.session
	if s == nil {
		return st
	}
	st.Active = true
	st.MedicationID = s.Occurrence.MedicationID
	st.DueAt = s.Occurrence.DueAt
	st.StartedAt = s.StartedAt
	st.Title = s.Notification.Title
	st.Body = s.Notification.Body
	st.Icon = s.Notification.Icon
	st.Deliveries = s.Deliveries
	return st
}

// ScheduleEntry es la próxima toma de un medicamento.
type ScheduleEntry struct {
	MedicationID    string     `json:"medication_id"`
	Name            string     `json:"name"`
	DoseDescription string     `json:"dose_description"`
	NextDue         *time.Time `json:"next_due"`
	PostponedUntil  *time.Time `json:"postponed_until,omitempty"`
	Active          bool       `json:"active"`
	Completed       bool       `json:"completed"` // one-shot ya tomado
	Invalid         bool       `json:"invalid,omitempty"`
}

// Upcoming arma la agenda vista desde now, ordenada por próxima toma.
// No modifica el estado.
func (e *Engine) Upcoming(now time.Time) []ScheduleEntry {
	out := make([]ScheduleEntry, 0, len(e.meds))
	for _, m := range e.meds {
		entry := ScheduleEntry{
			MedicationID:    m.ID,
			Name:            m.Name,
			DoseDescription: m.DoseDescription,
			Active:          e.session != nil && e.session.Occurrence.MedicationID == m.ID,
		}

		switch {
		case m.ValidateSchedule() != nil:
			entry.Invalid = true
		case m.IsOneShot() && len(m.History) > 0:
			entry.Completed = true
		default:
			due := NextDue(m, now)
			if until, ok := e.state.Deferred[m.ID]; ok && now.Before(until) {
				u := until
				entry.PostponedUntil = &u
				due = until
			}
			entry.NextDue = &due
		}
		out = append(out, entry)
	}

	sort.SliceStable(out, func(i, j int) bool { return dueBefore(out[i], out[j]) })
	return out
}

func dueBefore(a, b ScheduleEntry) bool {
	switch {
	case a.NextDue == nil:
		return false
	case b.NextDue == nil:
		return true
	default:
		return a.NextDue.Before(*b.NextDue)
	}
}
