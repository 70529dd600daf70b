package notifier

import (
	"context"
	"errors"

	"med-reminder/internal/platform/logger"
	"med-reminder/internal/ports/notify"
)

const (
	statusOK          = "ok"
	statusUnavailable = "unavailable"
	statusError       = "error"
)

type channel struct {
	name string
	n    notify.Notifier
}

// Fanout entrega a todos los canales. Un canal que falla se loguea y se
// cuenta, pero no corta a los demás ni propaga el error.
type Fanout struct {
	channels []channel
	log      logger.Logger
}

func NewFanout(log logger.Logger) *Fanout {
	if log == nil {
		log = logger.Nop()
	}
	return &Fanout{log: log}
}

// Add registra un canal. Se entrega en orden de registro.
func (f *Fanout) Add(name string, n notify.Notifier) *Fanout {
	if n != nil {
		f.channels = append(f.channels, channel{name: name, n: n})
	}
	return f
}

func (f *Fanout) Notify(ctx context.Context, n notify.Notification) error {
	for _, ch := range f.channels {
		err := ch.n.Notify(ctx, n)
		switch {
		case err == nil:
			recordDelivery(ch.name, statusOK)
		case errors.Is(err, notify.ErrUnavailable):
			recordDelivery(ch.name, statusUnavailable)
			f.log.Debug("notifier unavailable", map[string]any{"channel": ch.name})
		default:
			recordDelivery(ch.name, statusError)
			f.log.Warn("notifier failed", map[string]any{"channel": ch.name, "error": err})
		}
	}
	return nil
}

// Dismiss limpia los canales persistentes (overlay).
func (f *Fanout) Dismiss(ctx context.Context) {
	for _, ch := range f.channels {
		if d, ok := ch.n.(notify.Dismisser); ok {
			d.Dismiss(ctx)
		}
	}
}
