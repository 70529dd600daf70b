package reminders

import (
	"context"
	"time"

	"med-reminder/internal/ports/notify"
)

// Task es un temporizador cancelable. Stop es idempotente.
type Task interface {
	Stop()
}

// Scheduler arma temporizadores cuyos callbacks corren en el mismo hilo
// lógico que el motor.
type Scheduler interface {
	Every(d time.Duration, fn func(ctx context.Context)) Task
	After(d time.Duration, fn func(ctx context.Context)) Task
}

// Session es la alarma sostenida de una sola toma.
type Session struct {
	Occurrence   Occurrence
	Notification notify.Notification
	StartedAt    time.Time

	// Deliveries cuenta cuántas veces se invocó al notificador.
	Deliveries int

	repeat Task
}

// start notifica una vez y arma la re-notificación periódica.
func (s *Session) start(ctx context.Context, n notify.Notifier, sched Scheduler, every time.Duration, onRepeat func(ctx context.Context)) {
	s.deliver(ctx, n)
	s.repeat = sched.Every(every, onRepeat)
}

func (s *Session) deliver(ctx context.Context, n notify.Notifier) {
	s.Deliveries++
	// El Notifier no propaga fallas de canal; el error se ignora acá.
	_ = n.Notify(ctx, s.Notification)
}

// end detiene la re-notificación y limpia lo que el notificador muestre.
// Se puede llamar más de una vez.
func (s *Session) end(ctx context.Context, n notify.Notifier) {
	if s.repeat != nil {
		s.repeat.Stop()
		s.repeat = nil
	}
	dismiss(ctx, n)
}

func dismiss(ctx context.Context, n notify.Notifier) {
	if d, ok := n.(notify.Dismisser); ok {
		d.Dismiss(ctx)
	}
}
