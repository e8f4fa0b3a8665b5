package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Samuellynch1215/RepRapFirmware-1/internal/coord"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "printer.cfg")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.cfg")); err == nil {
		t.Errorf("expected an error loading a config file that doesn't exist")
	}
}

func TestLoadAppliesDefaultsWhenSectionsAbsent(t *testing.T) {
	path := writeConfig(t, "; empty config\n")
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned an error: %v", err)
	}
	if p.NumAxes != 3 || p.NumExtruders != 1 || p.Dialect != "native" {
		t.Errorf("Load() with no [printer] section should keep defaults, got %+v", p)
	}
}

func TestLoadPrinterSectionOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `[printer]
num_axes = 4
num_extruders = 2
macro_dir = /srv/macros
dialect = marlin
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned an error: %v", err)
	}
	if p.NumAxes != 4 {
		t.Errorf("NumAxes = %d, want 4", p.NumAxes)
	}
	if p.NumExtruders != 2 {
		t.Errorf("NumExtruders = %d, want 2", p.NumExtruders)
	}
	if p.MacroDir != "/srv/macros" {
		t.Errorf("MacroDir = %q, want %q", p.MacroDir, "/srv/macros")
	}
	if p.Dialect != "marlin" {
		t.Errorf("Dialect = %q, want %q", p.Dialect, "marlin")
	}
}

func TestLoadAxisSectionsBuildHomeConfig(t *testing.T) {
	path := writeConfig(t, `[printer]
num_axes = 2

[axis 0]
home_direction = -1
home_travel_mm = 250
home_feedrate = 1500

[axis 1]
home_direction = 1
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned an error: %v", err)
	}
	if len(p.HomeCfg) != 2 {
		t.Fatalf("HomeCfg has %d entries, want 2", len(p.HomeCfg))
	}
	cfg0 := p.HomeCfg[0]
	if cfg0.Direction != -1 || cfg0.Travel != 250 || cfg0.Feedrate != 1500 {
		t.Errorf("HomeCfg[0] = %+v, want {Direction:-1 Travel:250 Feedrate:1500}", cfg0)
	}
	cfg1 := p.HomeCfg[1]
	if cfg1.Direction != 1 || cfg1.Travel != 300 {
		t.Errorf("HomeCfg[1] = %+v, want Direction 1 and the default 300mm travel", cfg1)
	}
}

func TestLoadToolSectionsParseOffsetsAndTemps(t *testing.T) {
	path := writeConfig(t, `[printer]
num_extruders = 2

[tool 0]
extruder = 0
heater = 0
active_temp = 200
standby_temp = 150

[tool 1]
extruder = 1
heater = 1
active_temp = 210
offset_x = 0
offset_y = 0
offset_z = 0.2
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned an error: %v", err)
	}
	if len(p.Tools) != 2 {
		t.Fatalf("Tools has %d entries, want 2", len(p.Tools))
	}

	var tool1 *coord.Tool
	for _, tl := range p.Tools {
		if tl.Index == 1 {
			tool1 = tl
		}
	}
	if tool1 == nil {
		t.Fatalf("tool 1 not found among %+v", p.Tools)
	}
	if len(tool1.Offset) != 3 || tool1.Offset[2] != 0.2 {
		t.Errorf("tool 1 Offset = %v, want a 3-length offset with Z=0.2", tool1.Offset)
	}
	if tool1.ActiveTemp != 210 {
		t.Errorf("tool 1 ActiveTemp = %v, want 210", tool1.ActiveTemp)
	}
}

func TestLoadProbePointSectionsBuildGridInOrder(t *testing.T) {
	path := writeConfig(t, `[probe point 1]
x = 50
y = 50

[probe point 0]
x = 10
y = 10

[probe point 2]
x = 90
y = 90
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned an error: %v", err)
	}
	if len(p.ProbeGrid) != 3 {
		t.Fatalf("ProbeGrid has %d entries, want 3", len(p.ProbeGrid))
	}
	if p.ProbeGrid[0].X != 10 || p.ProbeGrid[1].X != 50 || p.ProbeGrid[2].X != 90 {
		t.Errorf("ProbeGrid = %+v, want points ordered by their section index", p.ProbeGrid)
	}
}

func TestLoadRequireXYBeforeZDefaultsTrue(t *testing.T) {
	path := writeConfig(t, "; empty config\n")
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned an error: %v", err)
	}
	if !p.RequireXYBeforeZ {
		t.Errorf("RequireXYBeforeZ should default to true")
	}

	path = writeConfig(t, "[printer]\nrequire_xy_before_z = false\n")
	p, err = Load(path)
	if err != nil {
		t.Fatalf("Load() returned an error: %v", err)
	}
	if p.RequireXYBeforeZ {
		t.Errorf("RequireXYBeforeZ should be false when explicitly disabled")
	}
}

func TestLoadToolSectionsIgnoreNonToolSections(t *testing.T) {
	path := writeConfig(t, `[printer]
[axis 0]
home_direction = -1
[not a tool]
foo = bar
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned an error: %v", err)
	}
	if len(p.Tools) != 0 {
		t.Errorf("Tools = %+v, want none for a config with no [tool N] sections", p.Tools)
	}
}
