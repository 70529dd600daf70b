package reminders

import (
	"time"

	"med-reminder/internal/domain/medications"
)

// State es el contexto explícito del scheduler. Vive sólo mientras el
// proceso corre; no se persiste.
type State struct {
	// Dedup guarda, por medicamento, el DueAt de la última toma ya levantada.
	Dedup map[string]time.Time

	// Deferred guarda el instante hasta el que una toma fue pospuesta.
	Deferred map[string]time.Time

	// Origins guarda, junto a cada Deferred, la toma programada que la
	// posposición reemplazó.
	Origins map[string]time.Time

	// Pending son tomas que vencieron con el slot ocupado (FIFO, una por
	// medicamento).
	Pending []Occurrence

	// Active es la toma representada por la sesión de alarma actual.
	Active *Occurrence
}

func NewState() *State {
	return &State{
		Dedup:    map[string]time.Time{},
		Deferred: map[string]time.Time{},
		Origins:  map[string]time.Time{},
	}
}

// Forget borra todo rastro de un medicamento (dedup, deferral y pendientes).
func (s *State) Forget(id string) {
	delete(s.Dedup, id)
	s.undefer(id)
	s.dropPending(id)
}

// Reset vuelve al estado inicial.
func (s *State) Reset() {
	s.Dedup = map[string]time.Time{}
	s.Deferred = map[string]time.Time{}
	s.Origins = map[string]time.Time{}
	s.Pending = nil
	s.Active = nil
}

// Defer pospone la toma de id hasta until. origin es la toma programada
// que se está posponiendo.
func (s *State) Defer(id string, until, origin time.Time) {
	s.Deferred[id] = until
	s.Origins[id] = origin
	s.Dedup[id] = until.Add(-time.Millisecond)
}

func (s *State) undefer(id string) {
	delete(s.Deferred, id)
	delete(s.Origins, id)
}

func (s *State) dropPending(id string) {
	out := s.Pending[:0]
	for _, p := range s.Pending {
		if p.MedicationID != id {
			out = append(out, p)
		}
	}
	s.Pending = out
}

// enqueue agrega occ al final de la cola, o actualiza la entrada existente
// del mismo medicamento conservando su posición. Devuelve true si hubo cambio.
func (s *State) enqueue(occ Occurrence) bool {
	for i := range s.Pending {
		if s.Pending[i].MedicationID != occ.MedicationID {
			continue
		}
		if s.Pending[i].DueAt.Equal(occ.DueAt) {
			return false
		}
		s.Pending[i] = occ
		return true
	}
	s.Pending = append(s.Pending, occ)
	return true
}

// Skipped es un medicamento que no se pudo evaluar.
type Skipped struct {
	MedicationID string
	Err          error
}

// Decision es el resultado de un paso del despachador.
type Decision struct {
	// Raise es la toma que pasa a sesión activa, si alguna.
	Raise *Occurrence

	// Queued son las tomas nuevas (o actualizadas) en la cola de pendientes.
	Queued []Occurrence

	Skipped []Skipped

	// Busy indica que el slot ya estaba ocupado al empezar.
	Busy bool
}

// Evaluate es un paso del despachador sobre st. Levanta como mucho una toma:
// si el slot está ocupado, las tomas que vencen quedan pendientes y se
// levantan cuando se libere, aunque su ventana ya haya cerrado.
func Evaluate(st *State, meds []medications.Medication, now time.Time) Decision {
	var d Decision

	byID := make(map[string]medications.Medication, len(meds))
	for _, m := range meds {
		occ, ok, err := dueFor(st, m, now)
		if err != nil {
			d.Skipped = append(d.Skipped, Skipped{MedicationID: m.ID, Err: err})
			continue
		}
		byID[m.ID] = m
		if !ok {
			continue
		}
		if st.Active != nil && st.Active.MedicationID == m.ID {
			continue
		}
		if st.enqueue(occ) {
			d.Queued = append(d.Queued, occ)
		}
	}

	if st.Active != nil {
		d.Busy = true
		return d
	}

	for len(st.Pending) > 0 {
		occ := st.Pending[0]
		st.Pending = st.Pending[1:]

		m, ok := byID[occ.MedicationID]
		if !ok || !stillOwed(st, m, occ, now) {
			continue
		}

		st.Dedup[occ.MedicationID] = occ.DueAt
		st.undefer(occ.MedicationID)
		raised := occ
		st.Active = &raised
		d.Raise = &raised
		break
	}

	// Lo que se levantó no cuenta como "encolado".
	if d.Raise != nil {
		out := d.Queued[:0]
		for _, q := range d.Queued {
			if q.MedicationID != d.Raise.MedicationID {
				out = append(out, q)
			}
		}
		d.Queued = out
	}
	return d
}

// dueFor devuelve la toma de m si está recién vencida en now.
func dueFor(st *State, m medications.Medication, now time.Time) (Occurrence, bool, error) {
	if err := m.ValidateSchedule(); err != nil {
		return Occurrence{}, false, err
	}
	if m.IsOneShot() && len(m.History) > 0 {
		return Occurrence{}, false, nil
	}

	occ := Occurrence{MedicationID: m.ID}
	if until, ok := st.Deferred[m.ID]; ok {
		if now.Before(until) {
			return Occurrence{}, false, nil
		}
		occ.DueAt = until
		occ.Origin = st.Origins[m.ID]
	}
	if occ.DueAt.IsZero() || !InWindow(occ.DueAt, now) {
		// Sin posposición vigente (o su ventana ya pasó): horario normal.
		st.undefer(m.ID)
		occ = Occurrence{MedicationID: m.ID, DueAt: NextDue(m, now)}
	}

	if !InWindow(occ.DueAt, now) {
		return Occurrence{}, false, nil
	}
	if last, ok := st.Dedup[m.ID]; ok && last.Equal(occ.DueAt) {
		return Occurrence{}, false, nil
	}
	return occ, true, nil
}

// stillOwed revalida una toma pendiente al momento de levantarla. La
// ventana no se vuelve a mirar.
func stillOwed(st *State, m medications.Medication, occ Occurrence, now time.Time) bool {
	if m.IsOneShot() && len(m.History) > 0 {
		return false
	}
	if last, ok := m.LastTaken(); ok && !last.Before(occ.DueAt) {
		return false
	}
	if until, ok := st.Deferred[m.ID]; ok && now.Before(until) {
		return false
	}
	if last, ok := st.Dedup[m.ID]; ok && last.Equal(occ.DueAt) {
		return false
	}
	return true
}
