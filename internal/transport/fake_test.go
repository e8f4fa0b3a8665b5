package transport

import "testing"

func TestFakeFeedAndReadInOrder(t *testing.T) {
	f := NewFake()
	f.Feed("G28\n")

	var got []byte
	for f.Available() {
		b, err := f.Read()
		if err != nil {
			t.Fatalf("Read() returned an error while Available() was true: %v", err)
		}
		got = append(got, b)
	}
	if string(got) != "G28\n" {
		t.Errorf("read %q, want %q", got, "G28\n")
	}
}

func TestFakeReadOnEmptyErrors(t *testing.T) {
	f := NewFake()
	if f.Available() {
		t.Fatalf("a freshly constructed Fake should report no data available")
	}
	if _, err := f.Read(); err == nil {
		t.Errorf("Read() on an empty Fake should return an error")
	}
}

func TestFakeWriteAccumulates(t *testing.T) {
	f := NewFake()
	f.Write([]byte("ok\n"))
	f.Write([]byte("rs 12\n"))
	if string(f.Written) != "ok\nrs 12\n" {
		t.Errorf("Written = %q, want %q", f.Written, "ok\nrs 12\n")
	}
}
