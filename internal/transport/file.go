package transport

import (
	"bufio"
	"os"
)

// FileTransport reads G-code from a plain file, the "file" Source
// Registry entry used for print-from-file and for the debug input file
// flag the command-line entrypoint accepts.
type FileTransport struct {
	f      *os.File
	reader *bufio.Reader
	done   bool
}

// OpenFile opens path for the "file" source.
func OpenFile(path string) (*FileTransport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &FileTransport{f: f, reader: bufio.NewReader(f)}, nil
}

func (t *FileTransport) Available() bool {
	if t.done {
		return false
	}
	_, err := t.reader.Peek(1)
	return err == nil
}

func (t *FileTransport) Read() (byte, error) {
	b, err := t.reader.ReadByte()
	if err != nil {
		t.done = true
		return 0, err
	}
	return b, nil
}

func (t *FileTransport) Write(p []byte) (int, error) {
	// Replies to a file source are discarded; nothing reads them back.
	return len(p), nil
}

func (t *FileTransport) Close() error {
	return t.f.Close()
}
