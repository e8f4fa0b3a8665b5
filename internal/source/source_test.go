package source

import (
	"testing"

	"github.com/Samuellynch1215/RepRapFirmware-1/internal/buffer"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/transport"
)

func TestOrderIsWebSerialFile(t *testing.T) {
	r := NewRegistry()
	got := r.Order()
	want := []buffer.Source{buffer.SourceWeb, buffer.SourceSerial, buffer.SourceFile}
	if len(got) != len(want) {
		t.Fatalf("Order() has %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Order()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStepUnboundSourceIsNotOk(t *testing.T) {
	r := NewRegistry()
	_, ok, err := r.Step(buffer.SourceSerial)
	if ok {
		t.Errorf("Step() on an unbound source should report ok=false")
	}
	if err != nil {
		t.Errorf("Step() on an unbound source should not return an error, got %v", err)
	}
}

func TestStepFeedsOneByteAtATime(t *testing.T) {
	r := NewRegistry()
	ft := transport.NewFake()
	ft.Feed("G28\n")
	r.Bind(buffer.SourceSerial, ft)

	armedCount := 0
	for i := 0; i < 10; i++ {
		armed, ok, err := r.Step(buffer.SourceSerial)
		if err != nil {
			t.Fatalf("Step() returned an error: %v", err)
		}
		if !ok {
			break
		}
		if armed {
			armedCount++
		}
	}
	if armedCount != 1 {
		t.Errorf("armedCount = %d, want exactly 1 for a single complete line", armedCount)
	}

	entry, bound := r.Entry(buffer.SourceSerial)
	if !bound {
		t.Fatalf("expected SourceSerial to be bound")
	}
	if entry.Buf.Line() != "G28" {
		t.Errorf("Buf.Line() = %q, want %q", entry.Buf.Line(), "G28")
	}
}

func TestUnbindRemovesEntry(t *testing.T) {
	r := NewRegistry()
	r.Bind(buffer.SourceFile, transport.NewFake())
	if _, ok := r.Entry(buffer.SourceFile); !ok {
		t.Fatalf("expected SourceFile to be bound after Bind()")
	}
	r.Unbind(buffer.SourceFile)
	if _, ok := r.Entry(buffer.SourceFile); ok {
		t.Errorf("expected SourceFile to be unbound after Unbind()")
	}
}

func TestBindReplacesExistingTransport(t *testing.T) {
	r := NewRegistry()
	first := transport.NewFake()
	first.Feed("G1\n")
	r.Bind(buffer.SourceWeb, first)

	second := transport.NewFake()
	second.Feed("G2\n")
	r.Bind(buffer.SourceWeb, second)

	entry, _ := r.Entry(buffer.SourceWeb)
	if entry.Transport != second {
		t.Errorf("Bind() should replace the previously bound transport")
	}
}
