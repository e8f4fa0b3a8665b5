// Package canned implements the step-indexed state machines for the
// canned cycles: homing, single/multi-point bed probing, and tool change.
// The probe cycle hands one move at a time to the Move Slot and polls the
// planner for completion before advancing; homing and tool change run
// their steps as macro files through the Macro Engine. This is the same shape the teacher uses
// for extras_homing.go/extras_probe.go's step sequences, adapted from
// their greenlet-blocking calls to explicit poll() state machines per
// spec.md §9's preference for embedded targets.
package canned

import (
	"github.com/Samuellynch1215/RepRapFirmware-1/common/errors"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/coord"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/macro"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/outcome"
)

// AxisHomeConfig is the per-axis homing geometry: which way to seek the
// endstop, how far, and how fast. It's handed to the axis's homing macro as
// template parameters rather than driving a move directly — the macro file
// contains the actual motion, the same way homex.g/homey.g/homez.g/homeall.g
// do in the original firmware's sys directory.
type AxisHomeConfig struct {
	Direction float64 // +1 or -1
	Travel    float64 // mm, generous over-travel toward the endstop
	Feedrate  float64 // mm/min
}

// axisMacroNames maps an axis index onto its by-convention homing macro
// file. Only X/Y/Z have one; a fourth+ axis falls back to homeall.g's single
// axis treated as "no per-axis macro available".
var axisMacroNames = [...]string{"homex.g", "homey.g", "homez.g"}

type homePhase int

const (
	homeStartAxis homePhase = iota
	homeRunning
)

// HomeCycle drives a G28, one axis's macro at a time (or homeall.g once, for
// a bare G28 that homes every axis together). requireXYBeforeZ gates the Z
// axis on X and Y already being homed, the same MustHomeXYBeforeZ check the
// original firmware's DoHome applies before opening homez.g.
type HomeCycle struct {
	model  *coord.Model
	macros *macro.Engine
	cfg    map[int]AxisHomeConfig

	requireXYBeforeZ bool

	axes    []int
	all     bool
	idx     int
	phase   homePhase
	lastErr *errors.Error
}

// NewHomeCycle returns a HomeCycle wired to the given Coordinate Model,
// Macro Engine, and per-axis homing geometry.
func NewHomeCycle(model *coord.Model, macros *macro.Engine, cfg map[int]AxisHomeConfig, requireXYBeforeZ bool) *HomeCycle {
	return &HomeCycle{model: model, macros: macros, cfg: cfg, requireXYBeforeZ: requireXYBeforeZ}
}

// Start begins homing the given axes, in order. all marks a bare G28 (no
// axis letters, every axis being homed): that case runs homeall.g once
// instead of one macro per axis.
func (h *HomeCycle) Start(axes []int, all bool) {
	h.axes = axes
	h.all = all
	h.idx = 0
	h.phase = homeStartAxis
	h.lastErr = nil
}

// LastError reports the error that made the most recent Poll return
// outcome.Err, so a caller can surface the specific fault (e.g.
// HomeXYFirstCode) rather than a generic homing-failed message.
func (h *HomeCycle) LastError() *errors.Error { return h.lastErr }

// Poll advances the cycle by one unit of work and reports its outcome.
func (h *HomeCycle) Poll() outcome.Outcome {
	if h.all {
		return h.pollAll()
	}
	if h.idx >= len(h.axes) {
		return outcome.Done
	}
	return h.pollAxis(h.axes[h.idx])
}

func (h *HomeCycle) pollAll() outcome.Outcome {
	if h.phase == homeStartAxis {
		if err := h.macros.Start("homeall.g", nil); err != nil {
			if errors.As(err, errors.MacroNotFoundCode) {
				for i := range h.model.HomedAxes {
					h.model.HomedAxes[i] = true
				}
				h.all = false
				return outcome.Done
			}
			h.lastErr = err.(*errors.Error)
			return outcome.Err
		}
		h.phase = homeRunning
		return outcome.Retry
	}

	switch h.macros.Poll() {
	case outcome.Retry:
		return outcome.Retry
	case outcome.Done:
		for i := range h.model.HomedAxes {
			h.model.HomedAxes[i] = true
		}
		h.all = false
		return outcome.Done
	default:
		h.lastErr = errors.New(errors.NotHomedCode, "homeall.g failed")
		return outcome.Err
	}
}

func (h *HomeCycle) pollAxis(axis int) outcome.Outcome {
	if h.phase == homeStartAxis {
		if axis == 2 && h.requireXYBeforeZ && !h.model.HomedXY() {
			h.lastErr = errors.New(errors.HomeXYFirstCode, "")
			return outcome.Err
		}

		name := "homeall.g"
		if axis >= 0 && axis < len(axisMacroNames) {
			name = axisMacroNames[axis]
		}
		cfg := h.cfg[axis]
		params := map[string]interface{}{
			"axis":      axis,
			"direction": cfg.Direction,
			"travel":    cfg.Travel,
			"feedrate":  cfg.Feedrate,
		}
		if err := h.macros.Start(name, params); err != nil {
			if errors.As(err, errors.MacroNotFoundCode) {
				// No macro file for this axis: treat it as trivially homed
				// rather than stalling the cycle forever.
				h.model.HomedAxes[axis] = true
				h.advance()
				return outcome.Retry
			}
			h.lastErr = err.(*errors.Error)
			return outcome.Err
		}
		h.phase = homeRunning
		return outcome.Retry
	}

	switch h.macros.Poll() {
	case outcome.Retry:
		return outcome.Retry
	case outcome.Done:
		h.model.HomedAxes[axis] = true
		h.advance()
		return outcome.Retry
	default:
		h.lastErr = errors.New(errors.NotHomedCode, "homing macro failed")
		return outcome.Err
	}
}

func (h *HomeCycle) advance() {
	h.idx++
	h.phase = homeStartAxis
}
