package canned

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Samuellynch1215/RepRapFirmware-1/internal/coord"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/macro"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/outcome"
)

func writeHomeMacro(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing test macro %s: %v", name, err)
	}
}

func noopExecutor(line string) outcome.Outcome { return outcome.Done }

func pollHomeToCompletion(t *testing.T, h *HomeCycle, budget int) outcome.Outcome {
	t.Helper()
	var oc outcome.Outcome
	for i := 0; i < budget; i++ {
		oc = h.Poll()
		if oc != outcome.Retry {
			return oc
		}
	}
	t.Fatalf("HomeCycle did not finish within %d polls", budget)
	return oc
}

func TestHomeCycleSingleAxisRunsItsMacro(t *testing.T) {
	dir := t.TempDir()
	writeHomeMacro(t, dir, "homex.g", "G1 X-300 F1800\n")

	model := coord.NewModel(3, 1)
	stack := coord.NewStateStack()
	macros := macro.NewEngine(dir, stack, model, noopExecutor)
	cfg := map[int]AxisHomeConfig{0: {Direction: -1, Travel: 300, Feedrate: 1800}}
	h := NewHomeCycle(model, macros, cfg, true)

	h.Start([]int{0}, false)
	if oc := pollHomeToCompletion(t, h, 200); oc != outcome.Done {
		t.Fatalf("Poll() = %v, want Done", oc)
	}
	if !model.HomedAxes[0] {
		t.Errorf("axis 0 should be marked homed after homex.g completes")
	}
}

func TestHomeCycleSkipsAxisWithNoMacroFile(t *testing.T) {
	dir := t.TempDir()
	model := coord.NewModel(3, 1)
	model.HomedAxes[0] = true
	model.HomedAxes[1] = true
	stack := coord.NewStateStack()
	macros := macro.NewEngine(dir, stack, model, noopExecutor)
	h := NewHomeCycle(model, macros, map[int]AxisHomeConfig{}, true)

	h.Start([]int{2}, false)
	if oc := pollHomeToCompletion(t, h, 200); oc != outcome.Done {
		t.Fatalf("Poll() = %v, want Done (trivially homed)", oc)
	}
	if !model.HomedAxes[2] {
		t.Errorf("an axis with no homing macro should still be marked homed")
	}
}

func TestHomeCycleMultipleAxesInOrder(t *testing.T) {
	dir := t.TempDir()
	writeHomeMacro(t, dir, "homex.g", "G1 X-300\n")
	writeHomeMacro(t, dir, "homey.g", "G1 Y-300\n")

	model := coord.NewModel(3, 1)
	stack := coord.NewStateStack()
	macros := macro.NewEngine(dir, stack, model, noopExecutor)
	h := NewHomeCycle(model, macros, map[int]AxisHomeConfig{
		0: {Direction: -1, Travel: 300, Feedrate: 1800},
		1: {Direction: -1, Travel: 300, Feedrate: 1800},
	}, true)
	h.Start([]int{0, 1}, false)

	if oc := pollHomeToCompletion(t, h, 400); oc != outcome.Done {
		t.Fatalf("Poll() = %v, want Done", oc)
	}
	if !model.HomedAxes[0] || !model.HomedAxes[1] {
		t.Errorf("both axes should end up homed: %v", model.HomedAxes)
	}
}

func TestHomeCycleBareG28RunsHomeallOnce(t *testing.T) {
	dir := t.TempDir()
	writeHomeMacro(t, dir, "homeall.g", "G1 X-300\nG1 Y-300\nG1 Z-300\n")

	model := coord.NewModel(3, 1)
	stack := coord.NewStateStack()
	macros := macro.NewEngine(dir, stack, model, noopExecutor)
	h := NewHomeCycle(model, macros, nil, true)
	h.Start([]int{0, 1, 2}, true)

	if oc := pollHomeToCompletion(t, h, 400); oc != outcome.Done {
		t.Fatalf("Poll() = %v, want Done", oc)
	}
	for i, homed := range model.HomedAxes {
		if !homed {
			t.Errorf("axis %d should be homed after homeall.g completes", i)
		}
	}
}

// S5: G28 Z is refused with HomeXYFirstCode until X and Y are already
// homed; once they are, G28 Z proceeds through homez.g.
func TestHomeCycleZRequiresXYFirst(t *testing.T) {
	dir := t.TempDir()
	writeHomeMacro(t, dir, "homez.g", "G1 Z-300\n")

	model := coord.NewModel(3, 1)
	stack := coord.NewStateStack()
	macros := macro.NewEngine(dir, stack, model, noopExecutor)
	h := NewHomeCycle(model, macros, map[int]AxisHomeConfig{2: {Direction: -1, Travel: 300, Feedrate: 600}}, true)

	h.Start([]int{2}, false)
	if oc := h.Poll(); oc != outcome.Err {
		t.Fatalf("Poll() = %v, want Err before X/Y are homed", oc)
	}
	if h.LastError() == nil {
		t.Fatalf("LastError() should report the gate failure")
	}
	if model.HomedAxes[2] {
		t.Errorf("Z should not be marked homed when the gate rejects it")
	}

	model.HomedAxes[0] = true
	model.HomedAxes[1] = true
	h.Start([]int{2}, false)
	if oc := pollHomeToCompletion(t, h, 200); oc != outcome.Done {
		t.Fatalf("Poll() = %v, want Done once X/Y are homed", oc)
	}
	if !model.HomedAxes[2] {
		t.Errorf("Z should be marked homed after homez.g completes")
	}
}
