package medications

import "context"

// Repository es el Medication Store: persistencia clave-valor por id.
// Put inserta o reemplaza el registro completo.
type Repository interface {
	Put(ctx context.Context, m Medication) error
	GetByID(ctx context.Context, id string) (Medication, error)
	List(ctx context.Context) ([]Medication, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// Tracker es el lado del scheduler que el servicio necesita.
// Se define acá para evitar el ciclo medications <-> reminders.
type Tracker interface {
	// Track registra o actualiza m y devuelve la versión con la History
	// que conoce el scheduler (la History nunca la pisa un update). Un
	// update de un registro ya conocido lo persiste el propio Tracker.
	Track(ctx context.Context, m Medication) (Medication, error)
	// Untrack cancela cualquier alarma activa de id y olvida su estado.
	Untrack(ctx context.Context, id string) error
	UntrackAll(ctx context.Context) error
}
