package transport

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Samuellynch1215/RepRapFirmware-1/common/value"
)

// WebTransport exposes the "web" Source Registry entry as a websocket
// server, grounded on AndySze-klipper's moonraker/API layer dependency
// (github.com/gorilla/websocket). Each inbound text/binary message is
// buffered into a byte queue the interpreter drains one byte at a time
// through the same Available/Read/Write shape every other transport uses.
type WebTransport struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	conn     *websocket.Conn
	inbox    []byte
}

// NewWebTransport returns a WebTransport with no connection yet accepted.
func NewWebTransport() *WebTransport {
	return &WebTransport{upgrader: websocket.Upgrader{}}
}

// HandleUpgrade is an http.HandlerFunc that accepts one websocket client
// as the transport's connection, replacing any previous one.
func (w *WebTransport) HandleUpgrade(rw http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		value.StaticValue.Error.Printf("web transport upgrade failed: %v", err)
		return
	}

	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()

	go w.pump(conn)
}

func (w *WebTransport) pump(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		w.mu.Lock()
		w.inbox = append(w.inbox, data...)
		w.mu.Unlock()
	}
}

func (w *WebTransport) Available() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.inbox) > 0
}

func (w *WebTransport) Read() (byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.inbox) == 0 {
		return 0, errNoData
	}
	b := w.inbox[0]
	w.inbox = w.inbox[1:]
	return b, nil
}

func (w *WebTransport) Write(p []byte) (int, error) {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return 0, errNoConn
	}
	if err := conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

type transportError string

func (e transportError) Error() string { return string(e) }

const (
	errNoData = transportError("no data available")
	errNoConn = transportError("no connection")
)
