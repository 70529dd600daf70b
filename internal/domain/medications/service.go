package medications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("medication not found")

	// ErrMalformedSchedule: intervalo negativo o start_time ausente/inválido.
	// Se rechaza al crear; nunca llega al calculador de ocurrencias.
	ErrMalformedSchedule = fmt.Errorf("%w: malformed schedule", ErrInvalidInput)
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Service struct {
	repo    Repository
	tracker Tracker
	now     func() time.Time
}

// NewService crea el servicio. tracker puede ser nil (sin scheduler): los
// updates se escriben directo en el store.
func NewService(repo Repository, tracker Tracker) *Service {
	if tracker == nil {
		tracker = storeTracker{repo: repo}
	}
	return &Service{
		repo:    repo,
		tracker: tracker,
		now:     time.Now,
	}
}

type CreateInput struct {
	Name            string    `validate:"required,max=200"`
	DoseDescription string    `validate:"required,max=200"`
	StartTime       time.Time `validate:"required"`
	IntervalMinutes int       `validate:"gte=0"`
	PhotoRef        string
}

func (in *CreateInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.DoseDescription = strings.TrimSpace(in.DoseDescription)
	in.PhotoRef = strings.TrimSpace(in.PhotoRef)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Medication, error) {
	in.normalize()
	if err := validateInput(in); err != nil {
		return Medication{}, err
	}

	now := s.now()
	m := Medication{
		ID:              uuid.NewString(),
		Name:            in.Name,
		DoseDescription: in.DoseDescription,
		StartTime:       in.StartTime,
		IntervalMinutes: in.IntervalMinutes,
		PhotoRef:        in.PhotoRef,
		History:         []time.Time{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Put(ctx, m); err != nil {
		return Medication{}, err
	}
	if _, err := s.tracker.Track(ctx, m); err != nil {
		return Medication{}, err
	}
	return m, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Medication{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Medication, error) {
	return s.repo.List(ctx)
}

type UpdateInput struct {
	// Punteros para PATCH real: nil = no tocar.
	Name            *string
	DoseDescription *string
	StartTime       *time.Time
	IntervalMinutes *int
	PhotoRef        *string
}

// Update aplica un PATCH. La History no se toca: la gobierna el scheduler.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Medication, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return Medication{}, err
	}

	next := CreateInput{
		Name:            current.Name,
		DoseDescription: current.DoseDescription,
		StartTime:       current.StartTime,
		IntervalMinutes: current.IntervalMinutes,
		PhotoRef:        current.PhotoRef,
	}
	if in.Name != nil {
		next.Name = *in.Name
	}
	if in.DoseDescription != nil {
		next.DoseDescription = *in.DoseDescription
	}
	if in.StartTime != nil {
		next.StartTime = *in.StartTime
	}
	if in.IntervalMinutes != nil {
		next.IntervalMinutes = *in.IntervalMinutes
	}
	if in.PhotoRef != nil {
		next.PhotoRef = *in.PhotoRef
	}
	next.normalize()
	if err := validateInput(next); err != nil {
		return Medication{}, err
	}

	updated := current.Clone()
	updated.Name = next.Name
	updated.DoseDescription = next.DoseDescription
	updated.StartTime = next.StartTime
	updated.IntervalMinutes = next.IntervalMinutes
	updated.PhotoRef = next.PhotoRef
	updated.UpdatedAt = s.now()

	// El tracker persiste: una escritura acá podría pisar una toma que el
	// scheduler registró entre medio.
	return s.tracker.Track(ctx, updated)
}

// Delete cancela la alarma activa del medicamento (si la hay) antes de
// borrar el registro, para no dejar una alarma apuntando a datos borrados.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.tracker.Untrack(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Clear borra todos los medicamentos, cancelando antes cualquier alarma.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.tracker.UntrackAll(ctx); err != nil {
		return err
	}
	return s.repo.Clear(ctx)
}

func validateInput(in CreateInput) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	fe := verrs[0]
	switch fe.Field() {
	case "StartTime":
		return fmt.Errorf("%w: start_time is required", ErrMalformedSchedule)
	case "IntervalMinutes":
		return fmt.Errorf("%w: interval_minutes must be >= 0", ErrMalformedSchedule)
	case "Name":
		return fmt.Errorf("%w: name is required (max 200 chars)", ErrInvalidInput)
	case "DoseDescription":
		return fmt.Errorf("%w: dose_description is required (max 200 chars)", ErrInvalidInput)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidInput, fe.Field())
	}
}

// storeTracker es el Tracker sin scheduler: sólo persiste.
type storeTracker struct {
	repo Repository
}

func (t storeTracker) Track(ctx context.Context, m Medication) (Medication, error) {
	if err := t.repo.Put(ctx, m); err != nil {
		return Medication{}, err
	}
	return m, nil
}

func (storeTracker) Untrack(context.Context, string) error { return nil }
func (storeTracker) UntrackAll(context.Context) error      { return nil }
