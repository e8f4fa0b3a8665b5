package moveslot

import "testing"

func TestTryPutThenTake(t *testing.T) {
	s := New()
	if s.Pending() {
		t.Fatalf("new Slot should not be pending")
	}

	m := Move{Target: []float64{1, 2, 3}, Feedrate: 1500}
	if !s.TryPut(m) {
		t.Fatalf("TryPut on empty slot should succeed")
	}
	if !s.Pending() {
		t.Fatalf("slot should be pending after TryPut")
	}

	got, ok := s.Take()
	if !ok {
		t.Fatalf("Take should succeed when pending")
	}
	if got.Feedrate != 1500 || len(got.Target) != 3 {
		t.Errorf("Take returned %+v, want feedrate 1500 and 3 target slots", got)
	}
	if s.Pending() {
		t.Errorf("slot should not be pending after Take")
	}
}

func TestTryPutRejectsWhilePending(t *testing.T) {
	s := New()
	first := Move{Feedrate: 100}
	second := Move{Feedrate: 200}

	if !s.TryPut(first) {
		t.Fatalf("first TryPut should succeed")
	}
	if s.TryPut(second) {
		t.Fatalf("second TryPut should fail while first is still pending")
	}

	got, ok := s.Take()
	if !ok || got.Feedrate != 100 {
		t.Fatalf("Take should return the first move unchanged, got %+v ok=%v", got, ok)
	}
}

func TestTakeOnEmptySlot(t *testing.T) {
	s := New()
	if _, ok := s.Take(); ok {
		t.Errorf("Take on an empty slot should report ok=false")
	}
}
