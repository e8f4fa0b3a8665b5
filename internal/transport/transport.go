// Package transport defines the external byte-transport boundary (the
// teacher's GCodeIO pseudo-tty reader, project/gcode.go upstream,
// generalized to any of the Source Registry's concrete transports) and
// provides the real serial/websocket implementations plus an in-memory
// fake for tests.
package transport

// Transport is the boundary interface each concrete input/output channel
// (serial port, websocket, SD file) implements. Available/Read are
// non-blocking: Available reports whether at least one byte can be read
// without stalling the cooperative loop, and Read returns exactly one
// byte. Write sends bytes back out (replies, resend requests).
type Transport interface {
	Available() bool
	Read() (byte, error)
	Write(p []byte) (int, error)
}
