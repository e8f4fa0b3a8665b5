package transport

import "testing"

func TestWebTransportWriteWithNoConnErrors(t *testing.T) {
	w := NewWebTransport()
	if _, err := w.Write([]byte("ok\n")); err == nil {
		t.Errorf("Write() before a client connects should return an error")
	}
}

func TestWebTransportAvailableFalseWithEmptyInbox(t *testing.T) {
	w := NewWebTransport()
	if w.Available() {
		t.Errorf("a freshly constructed WebTransport should report no data available")
	}
	if _, err := w.Read(); err == nil {
		t.Errorf("Read() with an empty inbox should return an error")
	}
}

func TestWebTransportReadDrainsInboxInOrder(t *testing.T) {
	w := NewWebTransport()
	w.mu.Lock()
	w.inbox = append(w.inbox, []byte("G28\n")...)
	w.mu.Unlock()

	var got []byte
	for w.Available() {
		b, err := w.Read()
		if err != nil {
			t.Fatalf("Read() returned an error while Available() was true: %v", err)
		}
		got = append(got, b)
	}
	if string(got) != "G28\n" {
		t.Errorf("read %q, want %q", got, "G28\n")
	}
}
