package planner

// Fake is an in-memory Planner used by the interpreter's own test suites
// and by any standalone tool that wants to drive the command layer without
// a real kinematics backend.
type Fake struct {
	Position    []float64
	Live        []float64
	PositionSet bool
	Feedrate    float64
	Transformed bool
	Finished    bool
	Points      map[int]Point3
	MinPoints   int
}

// NewFake returns a Fake sized for n axes/extruders, with moves reported
// as already finished (the common case for unit tests that don't model a
// queue drain delay).
func NewFake(n int) *Fake {
	return &Fake{
		Position: make([]float64, n),
		Live:     make([]float64, n),
		Finished: true,
		Points:   make(map[int]Point3),
	}
}

func (f *Fake) AllMovesAreFinished() bool { return f.Finished }

func (f *Fake) ResumeMoving() {}

func (f *Fake) GetCurrentUserPosition() ([]float64, bool) {
	if !f.PositionSet {
		return nil, false
	}
	out := make([]float64, len(f.Position))
	copy(out, f.Position)
	return out, true
}

func (f *Fake) SetPositions(pos []float64) {
	f.Position = append([]float64(nil), pos...)
	f.Live = append([]float64(nil), pos...)
	f.PositionSet = true
}

func (f *Fake) SetLiveCoordinates(pos []float64) {
	f.Live = append([]float64(nil), pos...)
}

func (f *Fake) SetFeedrate(mmPerMin float64) { f.Feedrate = mmPerMin }

func (f *Fake) Transform(pos []float64) []float64 {
	if !f.Transformed {
		return pos
	}
	out := make([]float64, len(pos))
	copy(out, pos)
	return out
}

func (f *Fake) SetIdentityTransform() { f.Transformed = false }

func (f *Fake) GetProbePoint(index int) (Point3, bool) {
	p, ok := f.Points[index]
	return p, ok
}

func (f *Fake) SetProbePoint(index int, p Point3) {
	f.Points[index] = p
}

func (f *Fake) SetProbedBedEquation(points []Point3) error {
	if f.MinPoints > 0 && len(points) < f.MinPoints {
		return errTooFewPoints
	}
	f.Transformed = true
	return nil
}

type probeError string

func (e probeError) Error() string { return string(e) }

const errTooFewPoints = probeError("too few probe points")
