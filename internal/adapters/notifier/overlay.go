package notifier

import (
	"context"
	"sync"
	"time"

	"med-reminder/internal/ports/notify"
)

// Overlay es el canal base: guarda la última notificación para que la UI
// la muestre. Nunca falla.
type Overlay struct {
	mu      sync.RWMutex
	current *OverlayState
	now     func() time.Time
}

// OverlayState es lo que la UI dibuja mientras hay una alarma.
type OverlayState struct {
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Icon       string    `json:"icon,omitempty"`
	Deliveries int       `json:"deliveries"`
	FirstShown time.Time `json:"first_shown"`
	LastShown  time.Time `json:"last_shown"`
}

func NewOverlay() *Overlay {
	return &Overlay{now: time.Now}
}

func (o *Overlay) Notify(_ context.Context, n notify.Notification) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.now()
	if o.current == nil || o.current.Title != n.Title || o.current.Body != n.Body {
		o.current = &OverlayState{
			Title:      n.Title,
			Body:       n.Body,
			Icon:       n.Icon,
			FirstShown: now,
		}
	}
	o.current.Deliveries++
	o.current.LastShown = now
	return nil
}

func (o *Overlay) Dismiss(context.Context) {
	o.mu.Lock()
	o.current = nil
	o.mu.Unlock()
}

// Current devuelve una copia del overlay visible, si hay uno.
func (o *Overlay) Current() (OverlayState, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.current == nil {
		return OverlayState{}, false
	}
	return *o.current, true
}
