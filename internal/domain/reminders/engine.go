package reminders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"med-reminder/internal/domain/medications"
	"med-reminder/internal/platform/logger"
	"med-reminder/internal/ports/notify"
)

var (
	ErrNoActiveAlarm   = errors.New("no active alarm")
	ErrInvalidPostpone = errors.New("postpone minutes must be > 0")
	ErrStopped         = errors.New("reminder scheduler not running")
)

const (
	DefaultRepeatInterval = 10 * time.Second
	DefaultRecheckDelay   = time.Second
	DefaultTitle          = "Medication reminder"
)

type EngineConfig struct {
	Title          string
	RepeatInterval time.Duration
	RecheckDelay   time.Duration
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.Title == "" {
		c.Title = DefaultTitle
	}
	if c.RepeatInterval <= 0 {
		c.RepeatInterval = DefaultRepeatInterval
	}
	if c.RecheckDelay <= 0 {
		c.RecheckDelay = DefaultRecheckDelay
	}
	return c
}

// Engine es el motor de recordatorios. No es seguro para uso concurrente:
// todas las llamadas (incluidos los callbacks del Scheduler) deben correr en
// el mismo hilo lógico. Driver se encarga de eso.
type Engine struct {
	cfg EngineConfig

	meds    []medications.Medication
	state   *State
	session *Session

	store    medications.Repository
	notifier notify.Notifier
	sched    Scheduler
	log      logger.Logger
	now      func() time.Time

	// dirty son medicamentos cuya última escritura al store falló.
	dirty map[string]struct{}

	// testClear limpia la notificación de una alarma de prueba.
	testClear Task
}

type Deps struct {
	Store     medications.Repository
	Notifier  notify.Notifier
	Scheduler Scheduler // si es nil, lo asigna el Driver
	Logger    logger.Logger
	Now       func() time.Time
}

func NewEngine(deps Deps, cfg EngineConfig) *Engine {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		cfg:      cfg.withDefaults(),
		state:    NewState(),
		store:    deps.Store,
		notifier: deps.Notifier,
		sched:    deps.Scheduler,
		log:      log.With(map[string]any{"component": "reminders"}),
		now:      now,
		dirty:    map[string]struct{}{},
	}
}

// Load siembra el motor desde el store. Un error de lectura deja el motor
// vacío pero funcionando.
func (e *Engine) Load(ctx context.Context) {
	if e.store == nil {
		return
	}
	meds, err := e.store.List(ctx)
	if err != nil {
		e.log.Error("load medications failed", map[string]any{"error": err})
		return
	}
	e.Seed(meds)
}

// Seed reemplaza el arreglo de medicamentos. El orden es estable (por
// creación) para que el despacho sea determinista.
func (e *Engine) Seed(meds []medications.Medication) {
	e.meds = make([]medications.Medication, 0, len(meds))
	for _, m := range meds {
		e.meds = append(e.meds, m.Clone())
	}
	sort.SliceStable(e.meds, func(i, j int) bool {
		return e.meds[i].CreatedAt.Before(e.meds[j].CreatedAt)
	})
}

// Tick corre un paso del despachador. Nunca falla: los registros inválidos
// se saltan y se loguean uno por uno.
func (e *Engine) Tick(ctx context.Context, now time.Time) Decision {
	d := Evaluate(e.state, e.meds, now)

	for _, s := range d.Skipped {
		e.log.Warn("medication skipped", map[string]any{"medication_id": s.MedicationID, "error": s.Err})
	}
	for _, q := range d.Queued {
		e.log.Info("occurrence pending", map[string]any{"medication_id": q.MedicationID, "due_at": q.DueAt})
	}
	if d.Raise != nil {
		e.raise(ctx, *d.Raise, now)
	}

	recordTick(d, len(e.state.Pending))
	return d
}

func (e *Engine) raise(ctx context.Context, occ Occurrence, now time.Time) {
	m, ok := e.find(occ.MedicationID)
	if !ok {
		e.state.Active = nil
		return
	}

	s := &Session{
		Occurrence:   occ,
		Notification: e.notificationFor(m),
		StartedAt:    now,
	}
	e.stopTestClear()
	e.session = s
	s.start(ctx, e.notifier, e.sched, e.cfg.RepeatInterval, func(ctx context.Context) {
		// Un callback viejo no debe tocar una sesión nueva.
		if e.session != s {
			return
		}
		s.deliver(ctx, e.notifier)
	})

	e.log.Info("alarm raised", map[string]any{"medication_id": m.ID, "due_at": occ.DueAt})
}

func (e *Engine) notificationFor(m medications.Medication) notify.Notification {
	return notify.Notification{
		Title: e.cfg.Title,
		Body:  fmt.Sprintf("Time to take %s of %s", m.DoseDescription, m.Name),
		Icon:  m.PhotoRef,
	}
}

// Acknowledge registra la toma de la alarma activa.
func (e *Engine) Acknowledge(ctx context.Context) (medications.Medication, error) {
	s := e.session
	if s == nil {
		return medications.Medication{}, ErrNoActiveAlarm
	}
	id := s.Occurrence.MedicationID
	idx := e.indexOf(id)
	if idx < 0 {
		e.endSession(ctx)
		return medications.Medication{}, ErrNoActiveAlarm
	}

	now := e.now()
	m := &e.meds[idx]
	m.History = append(m.History, now)
	m.UpdatedAt = now

	e.endSession(ctx)
	e.state.Forget(id)

	e.markDirty(id)
	e.flush(ctx)

	recordOutcome(outcomeAcknowledged)
	e.log.Info("alarm acknowledged", map[string]any{"medication_id": id, "taken_at": now})
	return m.Clone(), nil
}

// Postpone difiere la alarma activa minutes minutos. No toca el historial.
// Devuelve la toma diferida: DueAt es cuándo se vuelve a levantar.
func (e *Engine) Postpone(ctx context.Context, minutes int) (Occurrence, error) {
	if minutes <= 0 {
		return Occurrence{}, ErrInvalidPostpone
	}
	s := e.session
	if s == nil {
		return Occurrence{}, ErrNoActiveAlarm
	}
	id := s.Occurrence.MedicationID
	m, ok := e.find(id)
	if !ok {
		e.endSession(ctx)
		return Occurrence{}, ErrNoActiveAlarm
	}

	now := e.now()
	base := NextDue(m, now)
	if base.Before(now) {
		base = now
	}
	until := base.Add(time.Duration(minutes) * time.Minute)

	// Posponer una toma ya pospuesta conserva la toma programada original.
	origin := s.Occurrence.Origin
	if origin.IsZero() {
		origin = s.Occurrence.DueAt
	}

	e.endSession(ctx)
	e.state.dropPending(id)
	e.state.Defer(id, until, origin)

	e.flush(ctx)
	e.sched.After(e.cfg.RecheckDelay, func(ctx context.Context) {
		e.Tick(ctx, e.now())
	})

	recordOutcome(outcomePostponed)
	e.log.Info("alarm postponed", map[string]any{"medication_id": id, "until": until})
	return Occurrence{MedicationID: id, DueAt: until, Origin: origin}, nil
}

// Dismiss cierra la alarma activa sin registrar la toma. La toma queda
// marcada como atendida y no se vuelve a levantar.
func (e *Engine) Dismiss(ctx context.Context) error {
	s := e.session
	if s == nil {
		return ErrNoActiveAlarm
	}
	id := s.Occurrence.MedicationID
	e.endSession(ctx)
	e.state.undefer(id)
	// Si la toma venía de una posposición, la programada que reemplazó
	// sigue en ventana: también queda atendida.
	if !s.Occurrence.Origin.IsZero() {
		e.state.Dedup[id] = s.Occurrence.Origin
	}

	recordOutcome(outcomeDismissed)
	e.log.Info("alarm dismissed", map[string]any{"medication_id": id})
	return nil
}

// cancel es la baja administrativa de la alarma de id (si es la activa):
// corta la sesión y borra el dedup. No toca el historial.
func (e *Engine) cancel(ctx context.Context, id string) {
	if e.session == nil || e.session.Occurrence.MedicationID != id {
		return
	}
	e.endSession(ctx)
	delete(e.state.Dedup, id)
	recordOutcome(outcomeCancelled)
	e.log.Info("alarm cancelled", map[string]any{"medication_id": id})
}

func (e *Engine) endSession(ctx context.Context) {
	if e.session != nil {
		e.session.end(ctx, e.notifier)
	}
	e.session = nil
	e.state.Active = nil
}

// Track agrega o actualiza un medicamento. El historial del motor manda
// sobre el que venga en m. Un cambio de horario descarta dedup, deferral,
// pendientes y la alarma activa de ese medicamento.
//
// Un update se persiste acá, en el mismo hilo que Acknowledge, para que
// nunca pise en el store una toma recién registrada.
func (e *Engine) Track(ctx context.Context, m medications.Medication) medications.Medication {
	m = m.Clone()

	idx := e.indexOf(m.ID)
	if idx < 0 {
		e.meds = append(e.meds, m)
		e.flush(ctx)
		return m.Clone()
	}

	current := e.meds[idx]
	m.History = current.History
	if !current.StartTime.Equal(m.StartTime) || current.IntervalMinutes != m.IntervalMinutes {
		e.cancel(ctx, m.ID)
		e.state.Forget(m.ID)
	} else if e.session != nil && e.session.Occurrence.MedicationID == m.ID {
		e.session.Notification = e.notificationFor(m)
	}
	e.meds[idx] = m
	e.markDirty(m.ID)

	e.flush(ctx)
	return m.Clone()
}

// Untrack cancela la alarma del medicamento (si la tiene) y lo olvida.
func (e *Engine) Untrack(ctx context.Context, id string) {
	e.cancel(ctx, id)
	e.state.Forget(id)
	delete(e.dirty, id)

	if idx := e.indexOf(id); idx >= 0 {
		e.meds = append(e.meds[:idx], e.meds[idx+1:]...)
	}
}

// UntrackAll cancela cualquier alarma y olvida todo.
func (e *Engine) UntrackAll(ctx context.Context) {
	if e.session != nil {
		e.cancel(ctx, e.session.Occurrence.MedicationID)
	}
	e.state.Reset()
	e.meds = nil
	e.dirty = map[string]struct{}{}
}

// TestAlarm notifica una vez para id sin abrir sesión ni tocar el dedup.
// Sin alarma activa, lo mostrado se limpia después de RepeatInterval.
func (e *Engine) TestAlarm(ctx context.Context, id string) error {
	m, ok := e.find(id)
	if !ok {
		return medications.ErrNotFound
	}
	if err := e.notifier.Notify(ctx, e.notificationFor(m)); err != nil {
		return err
	}
	if e.session != nil {
		// La próxima repetición de la sesión vuelve a mostrar lo suyo.
		return nil
	}

	e.stopTestClear()
	e.testClear = e.sched.After(e.cfg.RepeatInterval, func(ctx context.Context) {
		e.testClear = nil
		if e.session == nil {
			dismiss(ctx, e.notifier)
		}
	})
	return nil
}

func (e *Engine) stopTestClear() {
	if e.testClear != nil {
		e.testClear.Stop()
		e.testClear = nil
	}
}

// Shutdown detiene la alarma activa sin tocar el estado.
func (e *Engine) Shutdown(ctx context.Context) {
	if e.session != nil {
		e.session.end(ctx, e.notifier)
	}
	e.flush(ctx)
}

func (e *Engine) markDirty(id string) {
	e.dirty[id] = struct{}{}
}

// flush escribe los medicamentos pendientes de persistir. Un error se
// loguea y el registro queda para la próxima acción.
func (e *Engine) flush(ctx context.Context) {
	if e.store == nil || len(e.dirty) == 0 {
		return
	}
	for id := range e.dirty {
		m, ok := e.find(id)
		if !ok {
			delete(e.dirty, id)
			continue
		}
		if err := e.store.Put(ctx, m); err != nil {
			recordPersistFailure()
			e.log.Error("persist medication failed", map[string]any{"medication_id": id, "error": err})
			continue
		}
		delete(e.dirty, id)
	}
}

func (e *Engine) indexOf(id string) int {
	for i := range e.meds {
		if e.meds[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) find(id string) (medications.Medication, bool) {
	if i := e.indexOf(id); i >= 0 {
		return e.meds[i].Clone(), true
	}
	return medications.Medication{}, false
}
