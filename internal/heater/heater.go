// Package heater defines the external temperature-control boundary, the
// Heater analog of internal/planner. Real PID loops and ADC sampling stay
// outside this core, mirroring how the teacher keeps heater control behind
// homing_heaters.go's thin wrapper rather than inline in the command table.
package heater

// Heater is the boundary interface a real thermal-control subsystem
// implements, one instance per configured heater index (bed, tool 0, ...).
type Heater interface {
	SetActiveTemp(heaterIndex int, celsius float64)
	SetStandbyTemp(heaterIndex int, celsius float64)
	Activate(heaterIndex int)
	Standby(heaterIndex int)
	GetTemperature(heaterIndex int) float64
	AllHeatersAtSetTemperatures(heaterIndexes []int, waitForHot bool) bool
	ResetFault(heaterIndex int)

	// SetPID configures the control loop's proportional/integral/derivative
	// coefficients (M301).
	SetPID(heaterIndex int, p, i, d float64)

	// SetThermistor configures the temperature sensor's beta/R25
	// coefficients (M305).
	SetThermistor(heaterIndex int, beta, r25 float64)
}
