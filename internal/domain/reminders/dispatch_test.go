package reminders

import (
	"errors"
	"testing"
	"time"

	"med-reminder/internal/domain/medications"
)

func TestEvaluate_RaisesOnceAndDedups(t *testing.T) {
	st := NewState()
	meds := []medications.Medication{med("a", t0, 60)}

	d := Evaluate(st, meds, t0.Add(30*time.Second))
	if d.Raise == nil || d.Raise.MedicationID != "a" || !d.Raise.DueAt.Equal(t0) {
		t.Fatalf("expected raise of a@08:00, got %+v", d.Raise)
	}
	if got := st.Dedup["a"]; !got.Equal(t0) {
		t.Fatalf("dedup = %v, want %v", got, t0)
	}

	// La sesión terminó sin registrar la toma; el mismo ciclo no se repite.
	st.Active = nil
	d = Evaluate(st, meds, t0.Add(40*time.Second))
	if d.Raise != nil {
		t.Fatalf("same occurrence raised twice: %+v", d.Raise)
	}
}

func TestEvaluate_NotDueOutsideWindow(t *testing.T) {
	st := NewState()
	meds := []medications.Medication{med("a", t0, 60)}

	if d := Evaluate(st, meds, t0.Add(-11*time.Minute)); d.Raise != nil {
		t.Fatalf("raised before window opened: %+v", d.Raise)
	}
	if d := Evaluate(st, meds, t0.Add(30*time.Minute)); d.Raise != nil {
		t.Fatalf("raised after window closed: %+v", d.Raise)
	}
}

func TestEvaluate_OneShotAfterAcknowledgeNeverDue(t *testing.T) {
	st := NewState()
	meds := []medications.Medication{med("a", t0, 0, t0.Add(time.Minute))}

	if d := Evaluate(st, meds, t0.Add(2*time.Minute)); d.Raise != nil {
		t.Fatalf("acknowledged one-shot raised again: %+v", d.Raise)
	}
}

func TestEvaluate_SingleSlotQueuesOthers(t *testing.T) {
	st := NewState()
	meds := []medications.Medication{med("a", t0, 60), med("b", t0, 60), med("c", t0, 60)}

	d := Evaluate(st, meds, t0.Add(30*time.Second))
	if d.Raise == nil || d.Raise.MedicationID != "a" {
		t.Fatalf("expected a raised first, got %+v", d.Raise)
	}
	if len(d.Queued) != 2 || d.Queued[0].MedicationID != "b" || d.Queued[1].MedicationID != "c" {
		t.Fatalf("expected b and c queued in order, got %+v", d.Queued)
	}

	// Slot ocupado: no se levanta nada y la cola no se duplica.
	d = Evaluate(st, meds, t0.Add(40*time.Second))
	if d.Raise != nil || !d.Busy || len(d.Queued) != 0 {
		t.Fatalf("busy tick changed state: %+v", d)
	}
	if len(st.Pending) != 2 {
		t.Fatalf("expected 2 pending, got %+v", st.Pending)
	}
}

func TestEvaluate_PendingFiresAfterWindowCloses(t *testing.T) {
	st := NewState()
	meds := []medications.Medication{med("a", t0, 60), med("b", t0, 60)}

	_ = Evaluate(st, meds, t0.Add(30*time.Second))

	// a se atiende recién a las 08:20; la ventana de b (08:00) ya cerró.
	st.Active = nil
	meds[0].History = []time.Time{t0.Add(20 * time.Minute)}

	d := Evaluate(st, meds, t0.Add(20*time.Minute+5*time.Second))
	if d.Raise == nil || d.Raise.MedicationID != "b" || !d.Raise.DueAt.Equal(t0) {
		t.Fatalf("expected late raise of b@08:00, got %+v", d.Raise)
	}
	if len(st.Pending) != 0 {
		t.Fatalf("expected empty queue, got %+v", st.Pending)
	}
}

func TestEvaluate_PendingDroppedWhenMedicationGone(t *testing.T) {
	st := NewState()
	meds := []medications.Medication{med("a", t0, 60), med("b", t0, 60)}
	_ = Evaluate(st, meds, t0.Add(30*time.Second))

	st.Active = nil
	d := Evaluate(st, meds[:1], t0.Add(time.Minute))
	if d.Raise != nil {
		t.Fatalf("raised occurrence of a removed medication: %+v", d.Raise)
	}
}

func TestEvaluate_DeferredFiresAtTarget(t *testing.T) {
	st := NewState()
	meds := []medications.Medication{med("a", t0, 60)}
	until := t0.Add(32 * time.Minute)
	st.Defer("a", until, t0)

	for _, at := range []time.Duration{5 * time.Minute, 31*time.Minute + 59*time.Second} {
		if d := Evaluate(st, meds, t0.Add(at)); d.Raise != nil {
			t.Fatalf("raised at +%v while deferred: %+v", at, d.Raise)
		}
	}

	d := Evaluate(st, meds, until.Add(2*time.Second))
	if d.Raise == nil || !d.Raise.DueAt.Equal(until) {
		t.Fatalf("expected raise at deferred target, got %+v", d.Raise)
	}
	if !d.Raise.Origin.Equal(t0) {
		t.Fatalf("raised occurrence lost its origin: %+v", d.Raise)
	}
	if _, ok := st.Deferred["a"]; ok {
		t.Fatalf("deferral should be consumed once raised")
	}
	if _, ok := st.Origins["a"]; ok {
		t.Fatalf("origin should be consumed once raised")
	}
}

func TestEvaluate_MalformedRecordIsolated(t *testing.T) {
	st := NewState()
	bad := med("bad", t0, -5)
	meds := []medications.Medication{bad, med("ok", t0, 60)}

	d := Evaluate(st, meds, t0.Add(time.Minute))
	if len(d.Skipped) != 1 || d.Skipped[0].MedicationID != "bad" {
		t.Fatalf("expected bad record skipped, got %+v", d.Skipped)
	}
	if !errors.Is(d.Skipped[0].Err, medications.ErrMalformedSchedule) {
		t.Fatalf("expected ErrMalformedSchedule, got %v", d.Skipped[0].Err)
	}
	if d.Raise == nil || d.Raise.MedicationID != "ok" {
		t.Fatalf("bad record blocked dispatch: %+v", d.Raise)
	}
}
