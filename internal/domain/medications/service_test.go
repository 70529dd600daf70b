package medications

import (
	"context"
	"errors"
	"testing"
	"time"
)

// -------------------------
// Test repo / tracker
// -------------------------

type testRepo struct {
	byID map[string]Medication
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Medication{}}
}

func (r *testRepo) Put(ctx context.Context, m Medication) error {
	if m.ID == "" {
		return errors.New("repo: id required")
	}
	r.byID[m.ID] = m.Clone()
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Medication, error) {
	m, ok := r.byID[id]
	if !ok {
		return Medication{}, ErrNotFound
	}
	return m.Clone(), nil
}

func (r *testRepo) List(ctx context.Context) ([]Medication, error) {
	out := make([]Medication, 0, len(r.byID))
	for _, m := range r.byID {
		out = append(out, m.Clone())
	}
	return out, nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *testRepo) Clear(ctx context.Context) error {
	r.byID = map[string]Medication{}
	return nil
}

// testTracker simula el scheduler: conserva su propia History, persiste
// los updates y registra el orden de las llamadas para verificar
// cancelar-antes-de-borrar.
type testTracker struct {
	history map[string][]time.Time
	calls   []string
	repo    *testRepo

	// afterTrack corre apenas Track devuelve, como una acción del
	// scheduler que llega justo después.
	afterTrack func()
}

func (t *testTracker) Track(ctx context.Context, m Medication) (Medication, error) {
	t.calls = append(t.calls, "track:"+m.ID)
	if h, ok := t.history[m.ID]; ok {
		m.History = h
	}
	if err := t.repo.Put(ctx, m); err != nil {
		return Medication{}, err
	}
	if t.afterTrack != nil {
		t.afterTrack()
	}
	return m, nil
}

func (t *testTracker) Untrack(ctx context.Context, id string) error {
	// Al cancelar, el registro todavía debe existir.
	if _, ok := t.repo.byID[id]; !ok {
		return errors.New("untrack after delete")
	}
	t.calls = append(t.calls, "untrack:"+id)
	return nil
}

func (t *testTracker) UntrackAll(ctx context.Context) error {
	if len(t.repo.byID) == 0 {
		return errors.New("untrack all after clear")
	}
	t.calls = append(t.calls, "untrack-all")
	return nil
}

func newTestService() (*Service, *testRepo, *testTracker) {
	repo := newTestRepo()
	tr := &testTracker{history: map[string][]time.Time{}, repo: repo}
	svc := NewService(repo, tr)
	now := time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, repo, tr
}

var start = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

// -------------------------
// Tests
// -------------------------

func TestService_Create_PersistsAndTracks(t *testing.T) {
	svc, repo, tr := newTestService()

	m, err := svc.Create(context.Background(), CreateInput{
		Name:            "  Losartan ",
		DoseDescription: "50 mg",
		StartTime:       start,
		IntervalMinutes: 60,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if m.ID == "" {
		t.Fatalf("expected generated id")
	}
	if m.Name != "Losartan" {
		t.Fatalf("expected trimmed name, got %q", m.Name)
	}
	if m.History == nil || len(m.History) != 0 {
		t.Fatalf("expected empty non-nil history, got %#v", m.History)
	}
	if _, ok := repo.byID[m.ID]; !ok {
		t.Fatalf("expected medication persisted")
	}
	if len(tr.calls) != 1 || tr.calls[0] != "track:"+m.ID {
		t.Fatalf("expected a single track call, got %v", tr.calls)
	}
}

func TestService_Create_RejectsMalformedSchedule(t *testing.T) {
	tests := []struct {
		name      string
		in        CreateInput
		malformed bool
	}{
		{
			name:      "negative interval",
			in:        CreateInput{Name: "A", DoseDescription: "1", StartTime: start, IntervalMinutes: -5},
			malformed: true,
		},
		{
			name:      "missing start time",
			in:        CreateInput{Name: "A", DoseDescription: "1", IntervalMinutes: 60},
			malformed: true,
		},
		{
			name: "missing name",
			in:   CreateInput{Name: "   ", DoseDescription: "1", StartTime: start},
		},
		{
			name: "missing dose",
			in:   CreateInput{Name: "A", StartTime: start},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService()

			_, err := svc.Create(context.Background(), tt.in)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if got := errors.Is(err, ErrMalformedSchedule); got != tt.malformed {
				t.Fatalf("ErrMalformedSchedule match = %v, want %v (err=%v)", got, tt.malformed, err)
			}
			if len(repo.byID) != 0 {
				t.Fatalf("nothing should be persisted on validation error")
			}
		})
	}
}

func TestService_Create_OneShotAllowed(t *testing.T) {
	svc, _, _ := newTestService()

	m, err := svc.Create(context.Background(), CreateInput{
		Name: "Vacuna", DoseDescription: "1 dosis", StartTime: start, IntervalMinutes: 0,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if !m.IsOneShot() {
		t.Fatalf("expected one-shot medication")
	}
}

func TestService_Update_KeepsSchedulerHistory(t *testing.T) {
	svc, repo, tr := newTestService()
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateInput{Name: "A", DoseDescription: "1", StartTime: start, IntervalMinutes: 60})
	if err != nil {
		t.Fatal(err)
	}

	// El scheduler registró una toma que el store todavía no tiene.
	taken := start.Add(time.Minute)
	tr.history[m.ID] = []time.Time{taken}

	newName := "B"
	newInterval := 120
	updated, err := svc.Update(ctx, m.ID, UpdateInput{Name: &newName, IntervalMinutes: &newInterval})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Name != "B" || updated.IntervalMinutes != 120 {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if len(updated.History) != 1 || !updated.History[0].Equal(taken) {
		t.Fatalf("expected scheduler history preserved, got %v", updated.History)
	}
	if got := repo.byID[m.ID]; len(got.History) != 1 {
		t.Fatalf("expected persisted history, got %v", got.History)
	}
}

func TestService_Update_DoesNotOverwriteDoseTakenMeanwhile(t *testing.T) {
	svc, repo, tr := newTestService()
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateInput{Name: "A", DoseDescription: "1", StartTime: start, IntervalMinutes: 60})
	if err != nil {
		t.Fatal(err)
	}

	// Una confirmación que el scheduler persiste justo después del Track.
	taken := start.Add(time.Minute)
	tr.afterTrack = func() {
		rec := repo.byID[m.ID]
		rec.History = append(rec.History, taken)
		repo.byID[m.ID] = rec
	}

	newName := "B"
	if _, err := svc.Update(ctx, m.ID, UpdateInput{Name: &newName}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	got := repo.byID[m.ID]
	if got.Name != "B" || len(got.History) != 1 || !got.History[0].Equal(taken) {
		t.Fatalf("update overwrote the stored dose: %+v", got)
	}
}

func TestService_Update_WithoutSchedulerWritesStore(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateInput{Name: "A", DoseDescription: "1", StartTime: start, IntervalMinutes: 60})
	if err != nil {
		t.Fatal(err)
	}
	newDose := "2"
	if _, err := svc.Update(ctx, m.ID, UpdateInput{DoseDescription: &newDose}); err != nil {
		t.Fatal(err)
	}
	if got := repo.byID[m.ID]; got.DoseDescription != "2" {
		t.Fatalf("update not persisted: %+v", got)
	}
}

func TestService_Update_RejectsNegativeInterval(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateInput{Name: "A", DoseDescription: "1", StartTime: start, IntervalMinutes: 60})
	if err != nil {
		t.Fatal(err)
	}
	bad := -1
	if _, err := svc.Update(ctx, m.ID, UpdateInput{IntervalMinutes: &bad}); !errors.Is(err, ErrMalformedSchedule) {
		t.Fatalf("expected ErrMalformedSchedule, got %v", err)
	}
}

func TestService_Delete_UntracksBeforeRemoving(t *testing.T) {
	svc, repo, tr := newTestService()
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateInput{Name: "A", DoseDescription: "1", StartTime: start, IntervalMinutes: 60})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, ok := repo.byID[m.ID]; ok {
		t.Fatalf("expected record removed")
	}
	if last := tr.calls[len(tr.calls)-1]; last != "untrack:"+m.ID {
		t.Fatalf("expected untrack call, got %v", tr.calls)
	}

	if err := svc.Delete(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestService_Clear_UntracksAllFirst(t *testing.T) {
	svc, repo, tr := newTestService()
	ctx := context.Background()

	for _, name := range []string{"A", "B"} {
		if _, err := svc.Create(ctx, CreateInput{Name: name, DoseDescription: "1", StartTime: start, IntervalMinutes: 60}); err != nil {
			t.Fatal(err)
		}
	}
	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if len(repo.byID) != 0 {
		t.Fatalf("expected empty store")
	}
	if last := tr.calls[len(tr.calls)-1]; last != "untrack-all" {
		t.Fatalf("expected untrack-all, got %v", tr.calls)
	}
}

func TestMedication_LastTakenIgnoresInsertionOrder(t *testing.T) {
	m := Medication{History: []time.Time{
		start.Add(2 * time.Hour),
		start.Add(5 * time.Hour),
		start.Add(time.Hour), // el reloj retrocedió
	}}
	last, ok := m.LastTaken()
	if !ok || !last.Equal(start.Add(5*time.Hour)) {
		t.Fatalf("expected max history entry, got %v", last)
	}
	sorted := m.SortedHistory()
	if !sorted[0].Equal(start.Add(time.Hour)) || !sorted[2].Equal(start.Add(5*time.Hour)) {
		t.Fatalf("expected chronological order, got %v", sorted)
	}
}

func TestParseStartTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{in: "2024-01-01T08:00:00Z", want: start, ok: true},
		{in: "2024-01-01T08:00", want: start, ok: true},
		{in: "01/01/2024 08:00", ok: false},
		{in: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStartTime(tt.in)
			if (err == nil) != tt.ok {
				t.Fatalf("ParseStartTime(%q) err=%v, want ok=%v", tt.in, err, tt.ok)
			}
			if tt.ok && !got.Equal(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}
