package reminders

import (
	"context"
	"sync"
	"time"

	"med-reminder/internal/domain/medications"
	"med-reminder/internal/platform/logger"
)

const DefaultTickInterval = 10 * time.Second

// Driver es la única goroutine dueña del Engine. Ticks, callbacks de
// temporizadores y llamadas de la API se serializan en su loop.
type Driver struct {
	engine *Engine
	tick   time.Duration
	log    logger.Logger

	ops  chan func(ctx context.Context)
	done chan struct{}

	runOnce sync.Once
}

type DriverConfig struct {
	TickInterval time.Duration
}

var (
	_ Scheduler           = (*Driver)(nil)
	_ medications.Tracker = (*Driver)(nil)
)

func NewDriver(engine *Engine, cfg DriverConfig) *Driver {
	tick := cfg.TickInterval
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	d := &Driver{
		engine: engine,
		tick:   tick,
		log:    engine.log,
		ops:    make(chan func(ctx context.Context), 64),
		done:   make(chan struct{}),
	}
	if engine.sched == nil {
		engine.sched = d
	}
	return d
}

// Run siembra el motor desde el store, hace un tick inmediato y después
// uno cada TickInterval, hasta que ctx se cancela. Sólo corre una vez.
func (d *Driver) Run(ctx context.Context) error {
	started := false
	d.runOnce.Do(func() { started = true })
	if !started {
		return ErrStopped
	}
	defer close(d.done)

	d.engine.Load(ctx)
	d.engine.Tick(ctx, d.engine.now())

	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	d.log.Info("scheduler started", map[string]any{"tick": d.tick.String(), "medications": len(d.engine.meds)})
	for {
		select {
		case <-ctx.Done():
			d.engine.Shutdown(context.WithoutCancel(ctx))
			d.log.Info("scheduler stopped", nil)
			return nil
		case <-ticker.C:
			d.engine.Tick(ctx, d.engine.now())
		case op := <-d.ops:
			op(ctx)
		}
	}
}

// Done se cierra cuando Run termina.
func (d *Driver) Done() <-chan struct{} { return d.done }

func (d *Driver) post(fn func(ctx context.Context)) bool {
	select {
	case d.ops <- fn:
		return true
	case <-d.done:
		return false
	}
}

// do ejecuta fn en el loop y espera el resultado.
func (d *Driver) do(ctx context.Context, fn func(ctx context.Context) error) error {
	result := make(chan error, 1)
	op := func(loopCtx context.Context) { result <- fn(loopCtx) }

	select {
	case d.ops <- op:
	case <-d.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-d.done:
		// El loop pudo ejecutar op justo antes de terminar.
		select {
		case err := <-result:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// -------------------------
// Scheduler
// -------------------------

type timerTask struct {
	once sync.Once
	quit chan struct{}
}

func newTimerTask() *timerTask {
	return &timerTask{quit: make(chan struct{})}
}

func (t *timerTask) Stop() {
	t.once.Do(func() { close(t.quit) })
}

func (t *timerTask) stopped() bool {
	select {
	case <-t.quit:
		return true
	default:
		return false
	}
}

func (d *Driver) Every(interval time.Duration, fn func(ctx context.Context)) Task {
	t := newTimerTask()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-t.quit:
				return
			case <-d.done:
				return
			case <-ticker.C:
				d.post(d.guard(t, fn))
			}
		}
	}()
	return t
}

func (d *Driver) After(delay time.Duration, fn func(ctx context.Context)) Task {
	t := newTimerTask()
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-t.quit:
		case <-d.done:
		case <-timer.C:
			d.post(d.guard(t, fn))
		}
	}()
	return t
}

// guard descarta callbacks de tareas detenidas mientras esperaban en la cola.
func (d *Driver) guard(t *timerTask, fn func(ctx context.Context)) func(ctx context.Context) {
	return func(ctx context.Context) {
		if t.stopped() {
			return
		}
		fn(ctx)
	}
}

// -------------------------
// API (thread-safe)
// -------------------------

func (d *Driver) Track(ctx context.Context, m medications.Medication) (medications.Medication, error) {
	var out medications.Medication
	err := d.do(ctx, func(ctx context.Context) error {
		out = d.engine.Track(ctx, m)
		d.engine.sched.After(d.engine.cfg.RecheckDelay, func(ctx context.Context) {
			d.engine.Tick(ctx, d.engine.now())
		})
		return nil
	})
	return out, err
}

func (d *Driver) Untrack(ctx context.Context, id string) error {
	return d.do(ctx, func(ctx context.Context) error {
		d.engine.Untrack(ctx, id)
		return nil
	})
}

func (d *Driver) UntrackAll(ctx context.Context) error {
	return d.do(ctx, func(ctx context.Context) error {
		d.engine.UntrackAll(ctx)
		return nil
	})
}

func (d *Driver) Acknowledge(ctx context.Context) (medications.Medication, error) {
	var out medications.Medication
	err := d.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = d.engine.Acknowledge(ctx)
		return err
	})
	return out, err
}

func (d *Driver) Postpone(ctx context.Context, minutes int) (Occurrence, error) {
	var out Occurrence
	err := d.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = d.engine.Postpone(ctx, minutes)
		return err
	})
	return out, err
}

func (d *Driver) Dismiss(ctx context.Context) error {
	return d.do(ctx, d.engine.Dismiss)
}

func (d *Driver) TestAlarm(ctx context.Context, id string) error {
	return d.do(ctx, func(ctx context.Context) error {
		return d.engine.TestAlarm(ctx, id)
	})
}

func (d *Driver) Status(ctx context.Context) (AlarmStatus, error) {
	var out AlarmStatus
	err := d.do(ctx, func(context.Context) error {
		out = d.engine.Status()
		return nil
	})
	return out, err
}

func (d *Driver) Upcoming(ctx context.Context) ([]ScheduleEntry, error) {
	var out []ScheduleEntry
	err := d.do(ctx, func(context.Context) error {
		out = d.engine.Upcoming(d.engine.now())
		return nil
	})
	return out, err
}
