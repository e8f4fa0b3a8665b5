package gcode

import (
	"fmt"
	"time"

	"github.com/Samuellynch1215/RepRapFirmware-1/common/errors"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/buffer"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/coord"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/moveslot"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/outcome"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/planner"
)

func init() {
	registerG(0, handleMove)
	registerG(1, handleMove)
	registerG(4, handleDwell)
	registerG(10, handleG10)
	registerG(20, handleUnits(25.4))
	registerG(21, handleUnits(1.0))
	registerG(28, handleHome)
	registerG(30, handleProbeSingle)
	registerG(31, handleProbeConfig)
	registerG(32, handleProbeGrid)
	registerG(90, handleAbsolute(true))
	registerG(91, handleAbsolute(false))
	registerG(92, handleSetPosition)
}

// handleMove is G0/G1: fold any seen axis/extruder fields into a target
// position and hand it to the Move Slot, retrying until the slot accepts
// it. S1 marks the move as endstop-checking; such moves serialize against
// each other and against any plain move issued right after one, the same
// way a canned cycle waits out its own moves before advancing to the next
// phase.
func handleMove(d *Dispatcher, buf *buffer.Buffer) step {
	target := append([]float64(nil), d.Model.Position...)
	seen := make([]bool, len(target))
	any := false
	endstopMove := false
	if v, ok := buf.GetLong('S'); ok && v != 0 {
		endstopMove = true
	}

	for i, letter := range axisLetters {
		if v, ok := buf.GetFloat(letter); ok {
			d.Model.ApplyAxisWord(target, i, v*d.Model.DistanceScale)
			seen[i] = true
			any = true
		}
	}
	if v, ok := buf.GetFloat('E'); ok {
		if d.Model.ActiveTool < 0 {
			return immediate(func() (*errors.Error, string) {
				return errors.New(errors.NoToolSelectedCode, ""), ""
			})
		}
		tool, ok := d.Tools.Get(d.Model.ActiveTool)
		if !ok || tool.Extruder < 0 {
			return immediate(func() (*errors.Error, string) {
				return errors.New(errors.NoToolSelectedCode, ""), ""
			})
		}
		if err := d.Model.ApplyExtruderWord(target, tool.Extruder, v*d.Model.DistanceScale); err != nil {
			return immediate(func() (*errors.Error, string) { return err.(*errors.Error), "" })
		}
		seen[d.Model.NumAxes+tool.Extruder] = true
		any = true
	}

	feed := d.Model.Feedrate
	if v, ok := buf.GetFloat('F'); ok {
		feed = v * d.Model.DistanceScale
		d.Model.Feedrate = feed
	}
	effectiveFeed := feed * d.Model.SpeedFactor

	if !any {
		return immediate(func() (*errors.Error, string) { return nil, "" })
	}

	committed := false
	return func() (outcome.Outcome, *errors.Error, string) {
		if !committed {
			if d.pendingEndstopMove {
				if !d.Plan.AllMovesAreFinished() {
					return outcome.Retry, nil, ""
				}
				d.pendingEndstopMove = false
			}
			transformed := d.Plan.Transform(target)
			if !d.Slot.TryPut(moveslot.Move{Target: transformed, Feedrate: effectiveFeed, EndstopMove: endstopMove, Seen: seen}) {
				return outcome.Retry, nil, ""
			}
			d.Model.Commit(target)
			if endstopMove {
				d.pendingEndstopMove = true
			}
			committed = true
		}
		return outcome.Done, nil, ""
	}
}

// handleDwell is G4: drain the planner, then hold the handler in retry
// until wall-clock time has advanced by the requested number of
// milliseconds. P is milliseconds; S (seconds) is accepted for Marlin-style
// callers and converted the same way.
func handleDwell(d *Dispatcher, buf *buffer.Buffer) step {
	var ms int64
	if v, ok := buf.GetLong('P'); ok {
		ms = v
	} else if v, ok := buf.GetFloat('S'); ok {
		ms = int64(v * 1000)
	}
	var deadline time.Time
	armed := false
	return func() (outcome.Outcome, *errors.Error, string) {
		if !d.Plan.AllMovesAreFinished() {
			return outcome.Retry, nil, ""
		}
		if !armed {
			deadline = time.Now().Add(time.Duration(ms) * time.Millisecond)
			armed = true
		}
		if time.Now().Before(deadline) {
			return outcome.Retry, nil, ""
		}
		return outcome.Done, nil, ""
	}
}

// handleG10 sets a tool's nozzle offset and active/standby temperatures
// without moving or switching tools, restored from the original
// firmware's Tool::SetTemperature R/S parameter split.
func handleG10(d *Dispatcher, buf *buffer.Buffer) step {
	return immediate(func() (*errors.Error, string) {
		idx, ok := buf.GetLong('P')
		if !ok {
			return errors.New(errors.MissingFieldCode, "G10 requires P<tool>"), ""
		}
		tool, ok := d.Tools.Get(int(idx))
		if !ok {
			return errors.New(errors.UnknownCommandCode, fmt.Sprintf("tool %d not defined", idx)), ""
		}
		if off, ok := buf.GetFloatList('X', 1); ok {
			ensureOffset(tool, 0, off[0])
		}
		if off, ok := buf.GetFloatList('Y', 1); ok {
			ensureOffset(tool, 1, off[0])
		}
		if off, ok := buf.GetFloatList('Z', 1); ok {
			ensureOffset(tool, 2, off[0])
		}
		if r, ok := buf.GetFloat('R'); ok {
			tool.StandbyTemp = r
		}
		if s, ok := buf.GetFloat('S'); ok {
			tool.ActiveTemp = s
		}
		return nil, ""
	})
}

func ensureOffset(tool *coord.Tool, axis int, v float64) {
	for len(tool.Offset) <= axis {
		tool.Offset = append(tool.Offset, 0)
	}
	tool.Offset[axis] = v
}

func handleUnits(scale float64) handlerFn {
	return func(d *Dispatcher, buf *buffer.Buffer) step {
		return immediate(func() (*errors.Error, string) {
			d.Model.DistanceScale = scale
			return nil, ""
		})
	}
}

// handleAbsolute is G90/G91: spec.md requires both axesRelative and
// drivesRelative to move together, so a G91 also switches extrusion to
// relative rather than leaving it at whatever M82/M83 last set.
func handleAbsolute(abs bool) handlerFn {
	return func(d *Dispatcher, buf *buffer.Buffer) step {
		return immediate(func() (*errors.Error, string) {
			d.Model.AbsoluteCoord = abs
			d.Model.AbsoluteExtrude = abs
			return nil, ""
		})
	}
}

// handleSetPosition is G92: forces the model and planner position for any
// named axis/extruder without generating a move. For any axis letter
// present, the axis is also marked homed — spec.md is explicit that this
// is the intended behavior even though it lets an operator "fake" a home
// by forcing a position, and that forcing-homed is exactly what real
// firmware workflows rely on G92 for after a manual nudge or a recovered
// print.
func handleSetPosition(d *Dispatcher, buf *buffer.Buffer) step {
	return immediate(func() (*errors.Error, string) {
		n := len(d.Model.Position)
		slots := make([]*float64, n)
		for i, letter := range axisLetters {
			if v, ok := buf.GetFloat(letter); ok {
				scaled := v * d.Model.DistanceScale
				slots[i] = &scaled
				if i < len(d.Model.HomedAxes) {
					d.Model.HomedAxes[i] = true
				}
			}
		}
		if v, ok := buf.GetFloat('E'); ok && d.Model.ActiveTool >= 0 {
			if tool, ok := d.Tools.Get(d.Model.ActiveTool); ok && tool.Extruder >= 0 {
				scaled := v * d.Model.DistanceScale
				slots[d.Model.NumAxes+tool.Extruder] = &scaled
			}
		}
		d.Model.SetPosition(slots)
		d.Plan.SetPositions(d.Model.Position)
		return nil, ""
	})
}

// handleHome is G28: home the axes named by seen axis letters, or every
// axis together (via homeall.g) if none are named.
func handleHome(d *Dispatcher, buf *buffer.Buffer) step {
	var axes []int
	for i, letter := range axisLetters {
		if buf.Seen(letter) {
			axes = append(axes, i)
		}
	}
	all := len(axes) == 0
	if all {
		for i := range axisLetters {
			if i < d.Model.NumAxes {
				axes = append(axes, i)
			}
		}
	}
	started := false
	return func() (outcome.Outcome, *errors.Error, string) {
		if !started {
			d.Home.Start(axes, all)
			started = true
		}
		switch d.Home.Poll() {
		case outcome.Done:
			return outcome.Done, nil, ""
		case outcome.Retry:
			return outcome.Retry, nil, ""
		default:
			return outcome.Err, d.Home.LastError(), ""
		}
	}
}

// handleProbeSingle is G30: probe one point at the current XY.
func handleProbeSingle(d *Dispatcher, buf *buffer.Buffer) step {
	started := false
	return func() (outcome.Outcome, *errors.Error, string) {
		if !started {
			pt := planner.Point3{X: d.Model.Position[0], Y: d.Model.Position[1]}
			d.Probe.Start([]planner.Point3{pt})
			started = true
		}
		switch d.Probe.Poll() {
		case outcome.Done:
			return outcome.Done, nil, ""
		case outcome.Retry:
			return outcome.Retry, nil, ""
		default:
			return outcome.Err, errors.New(errors.TooFewProbePointsCode, ""), ""
		}
	}
}

// handleProbeConfig is G31: with no fields present, report the probe's
// current trigger-height offset; with a Z field present, set it. Every
// probed point recorded by the Canned-Cycle Driver is adjusted by this
// offset before being stored.
func handleProbeConfig(d *Dispatcher, buf *buffer.Buffer) step {
	return immediate(func() (*errors.Error, string) {
		if v, ok := buf.GetFloat('Z'); ok {
			d.Probe.SetZOffset(v)
			return nil, ""
		}
		return nil, fmt.Sprintf("Z probe offset: %.3f", d.Probe.ZOffset())
	})
}

// handleProbeGrid is G32: probe the configured multi-point grid (Dispatcher
// Probe Grid, set from configuration) and commit the result as the active
// bed-compensation transform. It requires X and Y to have already been
// homed, and at least as many configured points as the Probe's minimum,
// else the "≥ 3 required" rule it exists to enforce.
func handleProbeGrid(d *Dispatcher, buf *buffer.Buffer) step {
	if !d.Model.HomedXY() {
		return immediate(func() (*errors.Error, string) {
			return errors.New(errors.HomeXYFirstCode, ""), ""
		})
	}
	if len(d.ProbeGrid) < d.Probe.MinPoints() {
		return immediate(func() (*errors.Error, string) {
			return errors.New(errors.TooFewProbePointsCode, ""), ""
		})
	}
	started := false
	return func() (outcome.Outcome, *errors.Error, string) {
		if !started {
			d.Probe.Start(d.ProbeGrid)
			started = true
		}
		switch d.Probe.Poll() {
		case outcome.Done:
			return outcome.Done, nil, ""
		case outcome.Retry:
			return outcome.Retry, nil, ""
		default:
			return outcome.Err, errors.New(errors.TooFewProbePointsCode, ""), ""
		}
	}
}
