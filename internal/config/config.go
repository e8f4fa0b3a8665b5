// Package config loads printer configuration (axis/extruder counts, tool
// table, macro directory, homing geometry) from an INI file, mirroring the
// teacher's ConfigWrapper accessor style over the reused common/ini File/
// Section/Key types (common/ini/file.go, common/ini/section.go upstream).
package config

import (
	"fmt"
	"sort"

	ourini "github.com/Samuellynch1215/RepRapFirmware-1/common/ini"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/canned"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/coord"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/planner"
)

// Printer is the parsed configuration needed to build a Coordinate Model,
// tool table, and homing geometry.
type Printer struct {
	NumAxes      int
	NumExtruders int
	MacroDir     string
	SerialDevice string
	SerialBaud   int
	WebAddr      string
	Dialect      string

	// RequireXYBeforeZ gates G28 Z on X and Y already being homed, the same
	// MustHomeXYBeforeZ check platforms with a bed-relative Z probe apply.
	RequireXYBeforeZ bool

	Tools     []*coord.Tool
	HomeCfg   map[int]canned.AxisHomeConfig
	ProbeGrid []planner.Point3
}

func keyString(sec *ourini.Section, name, def string) string {
	if sec == nil || !sec.HasKey(name) {
		return def
	}
	return sec.Key(name).String()
}

func keyInt(sec *ourini.Section, name string, def int) int {
	if sec == nil || !sec.HasKey(name) {
		return def
	}
	v, err := sec.Key(name).Int()
	if err != nil {
		return def
	}
	return v
}

func keyBool(sec *ourini.Section, name string, def bool) bool {
	if sec == nil || !sec.HasKey(name) {
		return def
	}
	v, err := sec.Key(name).Bool()
	if err != nil {
		return def
	}
	return v
}

func keyFloat(sec *ourini.Section, name string, def float64) float64 {
	if sec == nil || !sec.HasKey(name) {
		return def
	}
	v, err := sec.Key(name).Float64()
	if err != nil {
		return def
	}
	return v
}

// Load reads path and builds a Printer configuration from its [printer],
// [tool N], and [axis N] sections.
func Load(path string) (*Printer, error) {
	f, err := ourini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}

	p := &Printer{
		NumAxes:          3,
		NumExtruders:     1,
		MacroDir:         "macros",
		SerialDevice:     "/dev/ttyUSB0",
		SerialBaud:       115200,
		WebAddr:          ":7125",
		Dialect:          "native",
		RequireXYBeforeZ: true,
		HomeCfg:          make(map[int]canned.AxisHomeConfig),
	}

	if sec, err := f.GetSection("printer"); err == nil {
		p.NumAxes = keyInt(sec, "num_axes", p.NumAxes)
		p.NumExtruders = keyInt(sec, "num_extruders", p.NumExtruders)
		p.MacroDir = keyString(sec, "macro_dir", p.MacroDir)
		p.SerialDevice = keyString(sec, "serial_device", p.SerialDevice)
		p.SerialBaud = keyInt(sec, "serial_baud", p.SerialBaud)
		p.WebAddr = keyString(sec, "web_addr", p.WebAddr)
		p.Dialect = keyString(sec, "dialect", p.Dialect)
		p.RequireXYBeforeZ = keyBool(sec, "require_xy_before_z", p.RequireXYBeforeZ)
	}

	for i := 0; i < p.NumAxes; i++ {
		sec, err := f.GetSection(fmt.Sprintf("axis %d", i))
		if err != nil {
			continue
		}
		p.HomeCfg[i] = canned.AxisHomeConfig{
			Direction: keyFloat(sec, "home_direction", -1),
			Travel:    keyFloat(sec, "home_travel_mm", 300),
			Feedrate:  keyFloat(sec, "home_feedrate", 1800),
		}
	}

	points := make(map[int]planner.Point3)
	for _, name := range f.SectionString() {
		var idx int
		if n, _ := fmt.Sscanf(name, "probe point %d", &idx); n != 1 {
			continue
		}
		sec, _ := f.GetSection(name)
		points[idx] = planner.Point3{
			X: keyFloat(sec, "x", 0),
			Y: keyFloat(sec, "y", 0),
		}
	}
	if len(points) > 0 {
		idxs := make([]int, 0, len(points))
		for idx := range points {
			idxs = append(idxs, idx)
		}
		sort.Ints(idxs)
		for _, idx := range idxs {
			p.ProbeGrid = append(p.ProbeGrid, points[idx])
		}
	}

	for _, name := range f.SectionString() {
		var idx int
		if n, _ := fmt.Sscanf(name, "tool %d", &idx); n != 1 {
			continue
		}
		sec, _ := f.GetSection(name)
		tool := &coord.Tool{
			Index:       idx,
			Extruder:    keyInt(sec, "extruder", idx),
			HeaterIdx:   keyInt(sec, "heater", idx),
			ActiveTemp:  keyFloat(sec, "active_temp", 0),
			StandbyTemp: keyFloat(sec, "standby_temp", 0),
		}
		var offset []float64
		for axis, key := range []string{"offset_x", "offset_y", "offset_z"} {
			if sec.HasKey(key) {
				offset = growTo(offset, axis, keyFloat(sec, key, 0))
			}
		}
		tool.Offset = offset
		p.Tools = append(p.Tools, tool)
	}

	return p, nil
}

func growTo(s []float64, idx int, v float64) []float64 {
	for len(s) <= idx {
		s = append(s, 0)
	}
	s[idx] = v
	return s
}
