package heater

// Fake is an in-memory Heater used by tests. Active/standby setpoints are
// tracked per index; GetTemperature reports whatever Current has been
// poked to (tests simulate heat-up by setting it directly), and
// AllHeatersAtSetTemperatures compares against a configurable tolerance.
type Fake struct {
	Active      map[int]float64
	StandbyTemp map[int]float64
	Current     map[int]float64
	ActiveSel   map[int]bool // true once Activate called, false after Standby
	Faulted     map[int]bool
	PID         map[int][3]float64 // p, i, d per heater
	Thermistor  map[int][2]float64 // beta, r25 per heater
	Tolerance   float64
}

func NewFake() *Fake {
	return &Fake{
		Active:      make(map[int]float64),
		StandbyTemp: make(map[int]float64),
		Current:     make(map[int]float64),
		ActiveSel:   make(map[int]bool),
		Faulted:     make(map[int]bool),
		PID:         make(map[int][3]float64),
		Thermistor:  make(map[int][2]float64),
		Tolerance:   2.0,
	}
}

func (f *Fake) SetActiveTemp(i int, c float64)  { f.Active[i] = c }
func (f *Fake) SetStandbyTemp(i int, c float64) { f.StandbyTemp[i] = c }
func (f *Fake) Activate(i int)                  { f.ActiveSel[i] = true }
func (f *Fake) Standby(i int)                   { f.ActiveSel[i] = false }
func (f *Fake) GetTemperature(i int) float64    { return f.Current[i] }
func (f *Fake) ResetFault(i int)                { f.Faulted[i] = false }

func (f *Fake) SetPID(i int, p, pi, d float64)         { f.PID[i] = [3]float64{p, pi, d} }
func (f *Fake) SetThermistor(i int, beta, r25 float64) { f.Thermistor[i] = [2]float64{beta, r25} }

func (f *Fake) AllHeatersAtSetTemperatures(indexes []int, waitForHot bool) bool {
	for _, i := range indexes {
		target := f.StandbyTemp[i]
		if f.ActiveSel[i] {
			target = f.Active[i]
		}
		if !waitForHot && target == 0 {
			continue
		}
		diff := f.Current[i] - target
		if diff < 0 {
			diff = -diff
		}
		if diff > f.Tolerance {
			return false
		}
	}
	return true
}
