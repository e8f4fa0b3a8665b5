// Package reply formats outgoing acknowledgements and messages in one of
// several host-software dialects. It is grounded on the teacher's
// Respond_raw/Respond_info/Respond_error (project/gcode.go upstream) for
// the native shape, generalized here into a per-dialect table the way the
// original firmware's HandleReply switches on output type.
package reply

import (
	"fmt"

	"github.com/Samuellynch1215/RepRapFirmware-1/common/errors"
)

// Dialect selects which host-software reply convention to emit.
type Dialect string

const (
	Native    Dialect = "native"
	Marlin    Dialect = "marlin"
	Teacup    Dialect = "teacup"
	Sprinter  Dialect = "sprinter"
	Repetier  Dialect = "repetier"
)

// Formatter renders command outcomes into the wire text a given dialect
// expects.
type Formatter struct {
	Dialect Dialect
}

// New returns a Formatter for the given dialect, defaulting to Native for
// an unrecognized value.
func New(d Dialect) *Formatter {
	switch d {
	case Marlin, Teacup, Sprinter, Repetier, Native:
		return &Formatter{Dialect: d}
	default:
		return &Formatter{Dialect: Native}
	}
}

// SetDialect changes the dialect a Formatter renders in at runtime (M555).
// An unrecognized value is ignored rather than falling back to Native, so
// a malformed M555 leaves the current dialect in effect.
func (f *Formatter) SetDialect(d Dialect) {
	switch d {
	case Marlin, Teacup, Sprinter, Repetier, Native:
		f.Dialect = d
	}
}

// Ack renders a successful command's standard acknowledgement, optionally
// annotated with a line number for host software (Marlin family) that
// echoes it back for flow control.
func (f *Formatter) Ack(lineNumber int) string {
	switch f.Dialect {
	case Marlin, Sprinter, Repetier:
		if lineNumber > 0 {
			return fmt.Sprintf("ok N%d", lineNumber)
		}
		return "ok"
	case Teacup:
		return "ok"
	default:
		return "ok"
	}
}

// Info renders an informational message (M117/M118-style or Respond_info).
func (f *Formatter) Info(msg string) string {
	switch f.Dialect {
	case Marlin, Sprinter, Repetier:
		return "echo:" + msg
	case Teacup:
		return msg
	default:
		return msg
	}
}

// Error renders a command failure. The dialect determines the prefix; the Code and Message are always included so a human or a log
// scraper can identify the fault without re-parsing free text.
func (f *Formatter) Error(err *errors.Error) string {
	switch f.Dialect {
	case Marlin, Sprinter, Repetier:
		return fmt.Sprintf("error %s: %s", err.Code, err.Message)
	case Teacup:
		return fmt.Sprintf("!! %s: %s", err.Code, err.Message)
	default:
		return fmt.Sprintf("Error:%s %s", err.Code, err.Message)
	}
}

// Resend renders a checksum-failure resend request. RepRapFirmware's
// original HandleReply emits "rs:<line>"; Marlin-family hosts expect
// "Resend:<line>" followed by an "ok".
func (f *Formatter) Resend(lineNumber int) []string {
	switch f.Dialect {
	case Marlin, Sprinter, Repetier:
		return []string{fmt.Sprintf("Resend:%d", lineNumber), "ok"}
	default:
		return []string{fmt.Sprintf("rs:%d", lineNumber)}
	}
}

// Busy renders the reply emitted when a command must retry because the
// Move Slot or planner queue is still occupied (§ PlannerBusy class).
func (f *Formatter) Busy() string {
	switch f.Dialect {
	case Marlin, Sprinter, Repetier:
		return "echo:busy processing"
	default:
		return "busy"
	}
}
