package transport

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileTransportReadsBytesInOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "print.g")
	if err := os.WriteFile(path, []byte("G28\n"), 0o644); err != nil {
		t.Fatalf("writing fixture file: %v", err)
	}

	ft, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() returned an error: %v", err)
	}
	defer ft.Close()

	var got []byte
	for ft.Available() {
		b, err := ft.Read()
		if err != nil {
			t.Fatalf("Read() returned an error while Available() was true: %v", err)
		}
		got = append(got, b)
	}
	if string(got) != "G28\n" {
		t.Errorf("read %q, want %q", got, "G28\n")
	}
}

func TestFileTransportAvailableFalseAfterEOF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.g")
	if err := os.WriteFile(path, []byte("X"), 0o644); err != nil {
		t.Fatalf("writing fixture file: %v", err)
	}

	ft, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() returned an error: %v", err)
	}
	defer ft.Close()

	if !ft.Available() {
		t.Fatalf("Available() should be true before reading the single byte")
	}
	if _, err := ft.Read(); err != nil {
		t.Fatalf("Read() returned an error: %v", err)
	}
	if ft.Available() {
		t.Errorf("Available() should be false once the file is exhausted")
	}
}

func TestFileTransportOpenMissingFileErrors(t *testing.T) {
	if _, err := OpenFile(filepath.Join(t.TempDir(), "missing.g")); err == nil {
		t.Errorf("expected an error opening a file that doesn't exist")
	}
}

func TestFileTransportWriteDiscards(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.g")
	os.WriteFile(path, []byte("G1\n"), 0o644)
	ft, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() returned an error: %v", err)
	}
	defer ft.Close()

	n, err := ft.Write([]byte("ok\n"))
	if err != nil || n != 3 {
		t.Errorf("Write() = (%d, %v), want (3, nil)", n, err)
	}
}
