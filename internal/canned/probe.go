package canned

import (
	"github.com/Samuellynch1215/RepRapFirmware-1/common/errors"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/coord"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/moveslot"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/outcome"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/planner"
)

type probePhase int

const (
	probeMoveXY probePhase = iota
	probeWaitXY
	probeDown
	probeWaitDown
	probeRetract
	probeWaitRetract
)

// ProbeCycle drives a one-or-many-point Z probe: move to XY, probe down
// until the endstop triggers, record the height, retract, repeat. A
// single-point G30 is the n==1 case of the same machine a multi-point G32
// grid uses.
type ProbeCycle struct {
	slot  *moveslot.Slot
	plan  planner.Planner
	model *coord.Model

	points       []planner.Point3 // XY to visit; Z is filled in as probed
	probeFeed    float64
	travelFeed   float64
	retractDist  float64
	minPoints    int
	zOffset      float64

	idx   int
	phase probePhase
}

// SetZOffset sets the probe's trigger-height offset (G31 Z): every
// subsequently recorded probe point has this value added to its triggered
// Z height before it's stored.
func (p *ProbeCycle) SetZOffset(z float64) { p.zOffset = z }

// ZOffset returns the probe's current trigger-height offset.
func (p *ProbeCycle) ZOffset() float64 { return p.zOffset }

// MinPoints returns the fewest points a multi-point commit will accept.
func (p *ProbeCycle) MinPoints() int { return p.minPoints }

// NewProbeCycle returns a ProbeCycle wired to the given collaborators.
// probeFeed/travelFeed govern the downward probing move and the XY
// positioning moves respectively; minPoints is how many points a
// multi-point commit requires (checked before SetProbedBedEquation is
// called).
func NewProbeCycle(slot *moveslot.Slot, plan planner.Planner, model *coord.Model, probeFeed, travelFeed, retractDist float64, minPoints int) *ProbeCycle {
	return &ProbeCycle{slot: slot, plan: plan, model: model, probeFeed: probeFeed, travelFeed: travelFeed, retractDist: retractDist, minPoints: minPoints}
}

// Start begins probing the given XY points in order.
func (p *ProbeCycle) Start(points []planner.Point3) {
	p.points = points
	p.idx = 0
	p.phase = probeMoveXY
}

// Poll advances the cycle by one unit of work. When every point has been
// probed, multi-point cycles (len(points) > 1) commit the result as the
// active bed-compensation transform before reporting Done; a too-few-
// points configuration error surfaces as outcome.Err.
func (p *ProbeCycle) Poll() outcome.Outcome {
	if p.idx >= len(p.points) {
		return outcome.Done
	}
	pt := p.points[p.idx]

	switch p.phase {
	case probeMoveXY:
		target := append([]float64(nil), p.model.Position...)
		if len(target) > 0 {
			target[0] = pt.X
		}
		if len(target) > 1 {
			target[1] = pt.Y
		}
		move := moveslot.Move{Target: target, Feedrate: p.travelFeed}
		if !p.slot.TryPut(move) {
			return outcome.Retry
		}
		p.phase = probeWaitXY
		return outcome.Retry
	case probeWaitXY:
		if !p.plan.AllMovesAreFinished() {
			return outcome.Retry
		}
		p.phase = probeDown
		return outcome.Retry
	case probeDown:
		target := append([]float64(nil), p.model.Position...)
		if len(target) > 2 {
			target[2] = target[2] - 50 // generous over-travel; endstop cuts it short
		}
		move := moveslot.Move{Target: target, Feedrate: p.probeFeed, EndstopMove: true}
		if !p.slot.TryPut(move) {
			return outcome.Retry
		}
		p.phase = probeWaitDown
		return outcome.Retry
	case probeWaitDown:
		if !p.plan.AllMovesAreFinished() {
			return outcome.Retry
		}
		triggerZ := pt.Z
		if pos, ok := p.plan.GetCurrentUserPosition(); ok && len(pos) > 2 {
			triggerZ = pos[2] + p.zOffset
			p.model.Position[2] = pos[2]
		}
		p.plan.SetProbePoint(p.idx, planner.Point3{X: pt.X, Y: pt.Y, Z: triggerZ})
		p.phase = probeRetract
		return outcome.Retry
	case probeRetract:
		target := append([]float64(nil), p.model.Position...)
		if len(target) > 2 {
			target[2] = target[2] + p.retractDist
		}
		move := moveslot.Move{Target: target, Feedrate: p.travelFeed}
		if !p.slot.TryPut(move) {
			return outcome.Retry
		}
		p.phase = probeWaitRetract
		return outcome.Retry
	case probeWaitRetract:
		if !p.plan.AllMovesAreFinished() {
			return outcome.Retry
		}
		p.idx++
		p.phase = probeMoveXY
		if p.idx < len(p.points) {
			return outcome.Retry
		}
		if len(p.points) > 1 {
			sampled := make([]planner.Point3, 0, len(p.points))
			for i := range p.points {
				if pt, ok := p.plan.GetProbePoint(i); ok {
					sampled = append(sampled, pt)
				}
			}
			if len(sampled) < p.minPoints {
				return outcome.Err
			}
			if err := p.plan.SetProbedBedEquation(sampled); err != nil {
				return outcome.Err
			}
		}
		return outcome.Done
	}
	return outcome.Err
}

// ErrTooFewPoints is returned by callers that need to distinguish a
// configuration error from a transient probing failure.
var ErrTooFewPoints = errors.New(errors.TooFewProbePointsCode, "")
