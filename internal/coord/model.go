// Package coord holds the Coordinate Model: axis/extruder positions, the
// unit and motion-mode flags that govern how incoming G-code numbers turn
// into targets, and the bounded state stack macros push/pop against. It is
// grounded on the teacher's GCodeMove (project/extras_gcode_move.go
// upstream) — absolute_coord/absolute_extrude/base_position/last_position/
// speed_factor/extrude_factor map directly onto the fields below, adapted
// from the teacher's dynamic float64 slices to a fixed axis/extruder model.
package coord

import "github.com/Samuellynch1215/RepRapFirmware-1/common/errors"

// Model tracks the interpreter's view of machine position and the modal
// state (units, absolute/relative, feedrate, speed/extrusion factors) that
// determines how G-code numbers are turned into planner targets.
type Model struct {
	NumAxes      int
	NumExtruders int

	// Position is the last position the interpreter commanded, in mm,
	// axis order followed by extruders. It is the model's own bookkeeping
	// copy, independent of whatever the planner reports back.
	Position []float64

	AbsoluteCoord   bool // G90/G91 for axes
	AbsoluteExtrude bool // M82/M83 for extruders

	DistanceScale float64 // 1.0 for mm (G21), 25.4 for inches (G20)

	Feedrate     float64 // mm/min, last commanded or default
	SpeedFactor  float64 // M220, 1.0 == 100%
	ExtrudeFactor []float64 // M221 per-extruder, 1.0 == 100%

	HomedAxes []bool // per-axis homed flag, set by canned homing cycles

	ActiveTool int // currently selected tool index, -1 if none
}

// NewModel returns a Model with the defaults RepRapFirmware-style
// firmware boots into: mm units, absolute coordinates, relative extrusion,
// unity factors, nothing homed, no tool selected.
func NewModel(numAxes, numExtruders int) *Model {
	m := &Model{
		NumAxes:       numAxes,
		NumExtruders:  numExtruders,
		Position:      make([]float64, numAxes+numExtruders),
		AbsoluteCoord: true,
		DistanceScale: 1.0,
		Feedrate:      3000,
		SpeedFactor:   1.0,
		ExtrudeFactor: make([]float64, numExtruders),
		HomedAxes:     make([]bool, numAxes),
		ActiveTool:    -1,
	}
	for i := range m.ExtrudeFactor {
		m.ExtrudeFactor[i] = 1.0
	}
	return m
}

// AllHomed reports whether every axis has been homed.
func (m *Model) AllHomed() bool {
	for _, h := range m.HomedAxes {
		if !h {
			return false
		}
	}
	return true
}

// HomedXY reports whether the X and Y axes (indices 0 and 1) are homed,
// the gate G28 Z (when configured) and G32 apply before they start.
func (m *Model) HomedXY() bool {
	if m.NumAxes < 2 {
		return m.AllHomed()
	}
	return m.HomedAxes[0] && m.HomedAxes[1]
}

// ApplyAxisWord folds one incoming axis field (already distance-scaled by
// the caller) into target, honoring absolute/relative mode. index is the
// axis index within Position.
func (m *Model) ApplyAxisWord(target []float64, index int, value float64) {
	if m.AbsoluteCoord {
		target[index] = value
	} else {
		target[index] = m.Position[index] + value
	}
}

// ApplyExtruderWord folds one incoming extruder field into target for
// extruder e (0-based), honoring absolute/relative extrusion mode and the
// per-extruder extrusion factor.
func (m *Model) ApplyExtruderWord(target []float64, e int, value float64) error {
	if e < 0 || e >= m.NumExtruders {
		return errors.New(errors.WrongExtruderCountCode, "")
	}
	idx := m.NumAxes + e
	scaled := value * m.ExtrudeFactor[e]
	if m.AbsoluteExtrude {
		target[idx] = scaled
	} else {
		target[idx] = m.Position[idx] + scaled
	}
	return nil
}

// Commit records target as the model's new position, after a move has been
// successfully handed to the planner.
func (m *Model) Commit(target []float64) {
	copy(m.Position, target)
}

// SetPosition is G92: forces the model's position without requiring a
// move, for axes/extruders named in axes (nil entries left untouched).
func (m *Model) SetPosition(axes []*float64) {
	for i, v := range axes {
		if v != nil && i < len(m.Position) {
			m.Position[i] = *v
		}
	}
}

// Snapshot is the subset of modal state the State Stack saves across a
// macro push/pop, mirroring the teacher's Saved_states
// (project/extras_gcode_move.go upstream).
type Snapshot struct {
	AbsoluteCoord   bool
	AbsoluteExtrude bool
	Feedrate        float64
	SpeedFactor     float64
	DistanceScale   float64

	// FileReadPos is carried through push/pop unchanged and is opaque to
	// Model itself. Neither the macro engine nor M120 sets it, so every
	// pushed frame holds zero and no source resumes from it after a pop.
	FileReadPos int64
}

// Save captures the model's current modal state. FileReadPos is left zero.
func (m *Model) Save() Snapshot {
	return Snapshot{
		AbsoluteCoord:   m.AbsoluteCoord,
		AbsoluteExtrude: m.AbsoluteExtrude,
		Feedrate:        m.Feedrate,
		SpeedFactor:     m.SpeedFactor,
		DistanceScale:   m.DistanceScale,
	}
}

// Restore reinstates a previously captured Snapshot.
func (m *Model) Restore(s Snapshot) {
	m.AbsoluteCoord = s.AbsoluteCoord
	m.AbsoluteExtrude = s.AbsoluteExtrude
	m.Feedrate = s.Feedrate
	m.SpeedFactor = s.SpeedFactor
	m.DistanceScale = s.DistanceScale
}
