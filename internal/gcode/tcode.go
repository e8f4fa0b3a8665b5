package gcode

import (
	"github.com/Samuellynch1215/RepRapFirmware-1/common/errors"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/buffer"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/outcome"
)

// handleToolChange drives a T<n> command through the Canned-Cycle Driver's
// ToolChangeCycle. A tool number with no matching definition is not an
// error: it's handed through so ToolChangeCycle can null the active-tool
// pointer, the same way selecting a nonexistent tool deselects everything
// in the original firmware.
func (d *Dispatcher) handleToolChange(buf *buffer.Buffer, newTool int) step {
	started := false
	return func() (outcome.Outcome, *errors.Error, string) {
		if !started {
			d.ToolChange.Start(newTool)
			started = true
		}
		switch d.ToolChange.Poll() {
		case outcome.Done:
			return outcome.Done, nil, ""
		case outcome.Retry:
			return outcome.Retry, nil, ""
		default:
			return outcome.Err, d.ToolChange.LastError(), ""
		}
	}
}
