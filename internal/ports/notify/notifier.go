package notify

import (
	"context"
	"errors"
)

// ErrUnavailable indica que un canal de entrega no está disponible
// (sin permiso, sin configurar). Es un no-op para ese canal solamente.
var ErrUnavailable = errors.New("notification channel unavailable")

// Notification es la señal visible para el usuario.
type Notification struct {
	Title string
	Body  string
	Icon  string // referencia opaca (foto del medicamento)
}

// Notifier entrega una notificación. Puede invocarse muchas veces para la
// misma alarma.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Dismisser lo implementan los canales que muestran algo persistente
// (overlay) y deben limpiarlo cuando la alarma termina.
type Dismisser interface {
	Dismiss(ctx context.Context)
}
