// Package planner defines the external motion-planner boundary the
// interpreter drives moves through. It is an interface, not an
// implementation: step generation and kinematics live outside this core,
// the same way the teacher keeps Toolhead/kinematics behind the
// GCodeMove/toolhead split (project/toolhead.go upstream) rather than
// folding step timing into the command layer.
package planner

// Point3 is a bed-probe sample: XY location and the Z trigger height found
// there.
type Point3 struct {
	X, Y, Z float64
}

// Planner is the boundary interface a real motion-planning/kinematics
// subsystem implements. The interpreter only ever calls these methods; it
// never reaches into planner internals.
type Planner interface {
	// AllMovesAreFinished reports whether the downstream queue has fully
	// drained the moves handed to it so far.
	AllMovesAreFinished() bool

	// ResumeMoving releases a paused motion queue (after PAUSE/M25, or
	// after a canned cycle hands a move across).
	ResumeMoving()

	// GetCurrentUserPosition returns the planner's notion of the current
	// position in user (unscaled) coordinates, and whether it is known
	// (false immediately after a reset, before any homing).
	GetCurrentUserPosition() ([]float64, bool)

	// SetPositions forces the planner's internal position without
	// generating a move (G92).
	SetPositions(pos []float64)

	// SetLiveCoordinates updates the planner's live reporting position
	// without affecting queued motion.
	SetLiveCoordinates(pos []float64)

	// SetFeedrate sets the feedrate applied to subsequently queued moves
	// that don't specify their own.
	SetFeedrate(mmPerMin float64)

	// Transform maps a machine-independent target through the active
	// bed-compensation transform (identity until a probe grid is set).
	Transform(pos []float64) []float64

	// SetIdentityTransform clears any active bed-compensation transform.
	SetIdentityTransform()

	// GetProbePoint returns a previously recorded probe sample.
	GetProbePoint(index int) (Point3, bool)

	// SetProbePoint records one probe sample taken during a multi-point
	// probing cycle.
	SetProbePoint(index int, p Point3)

	// SetProbedBedEquation commits a completed set of probe points as the
	// active bed-compensation transform. It returns an error if too few
	// points were supplied for the configured compensation model.
	SetProbedBedEquation(points []Point3) error
}
