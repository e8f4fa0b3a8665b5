package gcode

// DebugFlags is a per-module bitmask, restored from the original
// RepRapFirmware's M111 (the distilled spec only names a single verbosity
// flag; the original firmware's debug support is a bitmask of named
// modules, which M122's diagnostic dump reports back bit-for-bit).
type DebugFlags uint32

const (
	DebugMove DebugFlags = 1 << iota
	DebugHeat
	DebugGCodes
	DebugNetwork
)

func (f DebugFlags) String() string {
	if f == 0 {
		return "none"
	}
	s := ""
	add := func(bit DebugFlags, name string) {
		if f&bit != 0 {
			if s != "" {
				s += ","
			}
			s += name
		}
	}
	add(DebugMove, "Move")
	add(DebugHeat, "Heat")
	add(DebugGCodes, "GCodes")
	add(DebugNetwork, "Network")
	return s
}
