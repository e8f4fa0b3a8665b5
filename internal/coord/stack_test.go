package coord

import "testing"

func TestPushPopRoundTrip(t *testing.T) {
	s := NewStateStack()
	if err := s.Push(Snapshot{Feedrate: 100}); err != nil {
		t.Fatalf("unexpected push error: %v", err)
	}
	if s.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", s.Depth())
	}
	snap, err := s.Pop()
	if err != nil {
		t.Fatalf("unexpected pop error: %v", err)
	}
	if snap.Feedrate != 100 {
		t.Errorf("Pop() = %+v, want Feedrate 100", snap)
	}
	if s.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0 after pop", s.Depth())
	}
}

func TestPushOverflows(t *testing.T) {
	s := NewStateStack()
	for i := 0; i < StackDepth; i++ {
		if err := s.Push(Snapshot{}); err != nil {
			t.Fatalf("unexpected overflow at depth %d: %v", i, err)
		}
	}
	if err := s.Push(Snapshot{}); err == nil {
		t.Errorf("expected an overflow error pushing past StackDepth")
	}
	if s.Depth() != StackDepth {
		t.Errorf("Depth() = %d, want %d (rejected push must not grow the stack)", s.Depth(), StackDepth)
	}
}

func TestPopUnderflows(t *testing.T) {
	s := NewStateStack()
	if _, err := s.Pop(); err == nil {
		t.Errorf("expected an underflow error popping an empty stack")
	}
}

func TestPushPopIsLIFO(t *testing.T) {
	s := NewStateStack()
	s.Push(Snapshot{Feedrate: 1})
	s.Push(Snapshot{Feedrate: 2})
	first, _ := s.Pop()
	second, _ := s.Pop()
	if first.Feedrate != 2 || second.Feedrate != 1 {
		t.Errorf("Pop order = %v, %v, want LIFO 2, 1", first.Feedrate, second.Feedrate)
	}
}
