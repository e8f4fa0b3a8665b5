package canned

import (
	"fmt"

	"github.com/Samuellynch1215/RepRapFirmware-1/common/errors"
	"github.com/Samuellynch1215/RepRapFirmware-1/common/value"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/coord"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/heater"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/macro"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/outcome"
)

type toolPhase int

const (
	toolFreeOld toolPhase = iota
	toolStandbyOld
	toolPreNew
	toolSelectNew
	toolPostNew
	toolDone
)

// ToolChangeCycle drives a T-command tool change through the original
// firmware's six-step ChangeTool switch: run the outgoing tool's tfreeN.g,
// stand its heater down, run the incoming tool's tpreN.g, select it (nulling
// the current-tool pointer if it doesn't exist), run its tpostN.g, done. Any
// step whose macro file is missing is skipped without error.
type ToolChangeCycle struct {
	heat  heater.Heater
	model *coord.Model
	tools *coord.ToolTable
	macros *macro.Engine

	oldTool, newTool int
	phase            toolPhase
	lastErr          *errors.Error
}

// NewToolChangeCycle returns a ToolChangeCycle wired to the given
// collaborators.
func NewToolChangeCycle(heat heater.Heater, model *coord.Model, tools *coord.ToolTable, macros *macro.Engine) *ToolChangeCycle {
	return &ToolChangeCycle{heat: heat, model: model, tools: tools, macros: macros}
}

// Start begins changing from the currently active tool to newTool.
func (c *ToolChangeCycle) Start(newTool int) {
	c.oldTool = c.model.ActiveTool
	c.newTool = newTool
	c.phase = toolFreeOld
	c.lastErr = nil
}

// LastError reports the error that made the most recent Poll return
// outcome.Err.
func (c *ToolChangeCycle) LastError() *errors.Error { return c.lastErr }

// Poll advances the cycle by one unit of work.
func (c *ToolChangeCycle) Poll() outcome.Outcome {
	switch c.phase {
	case toolFreeOld:
		if c.oldTool < 0 {
			c.phase = toolStandbyOld
			return outcome.Retry
		}
		return c.runMacro(fmt.Sprintf("tfree%d.g", c.oldTool), toolStandbyOld)
	case toolStandbyOld:
		if old, ok := c.tools.Get(c.oldTool); ok && old.HeaterIdx >= 0 {
			c.heat.SetStandbyTemp(old.HeaterIdx, old.StandbyTemp)
			c.heat.Standby(old.HeaterIdx)
		}
		c.phase = toolPreNew
		return outcome.Retry
	case toolPreNew:
		return c.runMacro(fmt.Sprintf("tpre%d.g", c.newTool), toolSelectNew)
	case toolSelectNew:
		// Selecting a tool number with no matching definition just
		// deselects every tool, the same as the original firmware's
		// SelectTool(-1) comment describes.
		if _, ok := c.tools.Get(c.newTool); ok {
			c.model.ActiveTool = c.newTool
		} else {
			c.model.ActiveTool = -1
		}
		c.phase = toolPostNew
		return outcome.Retry
	case toolPostNew:
		return c.runMacro(fmt.Sprintf("tpost%d.g", c.newTool), toolDone)
	case toolDone:
		return outcome.Done
	}
	return outcome.Err
}

// runMacro starts the named macro (if not already in flight) and polls it to
// completion, advancing to next on success or on a missing macro file, and
// failing the whole cycle on any other macro error.
func (c *ToolChangeCycle) runMacro(name string, next toolPhase) outcome.Outcome {
	if !c.macros.Active() {
		if err := c.macros.Start(name, map[string]interface{}{"old": c.oldTool, "new": c.newTool}); err != nil {
			if errors.As(err, errors.MacroNotFoundCode) {
				c.phase = next
				return outcome.Retry
			}
			value.StaticValue.Error.Printf("tool change macro %q: %v", name, err)
			c.lastErr = err.(*errors.Error)
			return outcome.Err
		}
	}
	switch c.macros.Poll() {
	case outcome.Retry:
		return outcome.Retry
	case outcome.Done:
		c.phase = next
		return outcome.Retry
	default:
		c.lastErr = errors.New(errors.UnknownCommandCode, fmt.Sprintf("tool change macro %q failed", name))
		return outcome.Err
	}
}
