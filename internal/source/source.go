// Package source implements the Source Registry: the fixed set of input
// channels (web, serial, file) that feed the interpreter, each with its
// own Command Buffer and Transport. It is grounded on the teacher's
// GCodeIO (project/gcode.go upstream), generalized from the teacher's
// single pseudo-tty reader to the Source Registry's fixed multi-source
// set spec.md §4.1 describes.
package source

import (
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/buffer"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/transport"
)

// Entry pairs one source's Transport with its Command Buffer.
type Entry struct {
	Source    buffer.Source
	Transport transport.Transport
	Buf       *buffer.Buffer
}

// Registry holds the web/serial/file sources in the fixed priority order
// the Dispatcher polls them in: web outranks serial outranks file, so an
// operator's interactive command is never starved by a print running from
// file.
type Registry struct {
	order   []buffer.Source
	entries map[buffer.Source]*Entry
}

// NewRegistry returns an empty Registry with the fixed web > serial > file
// priority order established, but no transports bound yet.
func NewRegistry() *Registry {
	r := &Registry{
		order:   []buffer.Source{buffer.SourceWeb, buffer.SourceSerial, buffer.SourceFile},
		entries: make(map[buffer.Source]*Entry),
	}
	return r
}

// Bind attaches a live Transport to one of the fixed sources, replacing
// whatever was previously bound there.
func (r *Registry) Bind(src buffer.Source, t transport.Transport) {
	r.entries[src] = &Entry{Source: src, Transport: t, Buf: buffer.New(src)}
}

// Unbind detaches whatever Transport is bound to src (e.g. when a file
// print finishes).
func (r *Registry) Unbind(src buffer.Source) {
	delete(r.entries, src)
}

// Entry returns the Entry bound to src, if any.
func (r *Registry) Entry(src buffer.Source) (*Entry, bool) {
	e, ok := r.entries[src]
	return e, ok
}

// Order returns the fixed priority order the Dispatcher polls sources in.
func (r *Registry) Order() []buffer.Source {
	return r.order
}

// Step reads at most one byte from src's transport and feeds it to src's
// Command Buffer, returning whether that byte armed a complete line. It
// returns ok=false if src has no transport bound or has no byte ready.
func (r *Registry) Step(src buffer.Source) (armed bool, ok bool, err error) {
	e, bound := r.entries[src]
	if !bound {
		return false, false, nil
	}
	if !e.Transport.Available() {
		return false, false, nil
	}
	b, rerr := e.Transport.Read()
	if rerr != nil {
		return false, true, rerr
	}
	armed, err = e.Buf.Put(b)
	return armed, true, err
}
