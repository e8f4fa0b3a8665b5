// Package interpreter composes the Source Registry, Move Slot,
// Coordinate Model, Macro Engine, Canned-Cycle Driver, and Dispatcher into
// the single object a process entrypoint drives. It plays the role the
// teacher's Printer + GCodeDispatch pair does (project/k3c.go upstream),
// minus the greenlet Reactor: spec.md §9 prefers an explicit poll()-driven
// state machine for embedded targets over coroutine-based blocking, so
// this composition's only scheduling primitive is Spin() called in a
// plain loop by the entrypoint.
package interpreter

import (
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/buffer"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/canned"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/config"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/coord"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/gcode"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/heater"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/macro"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/moveslot"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/planner"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/reply"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/source"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/transport"
)

// Interpreter is the fully wired, ready-to-run command interpreter and
// motion coordinator.
type Interpreter struct {
	Registry   *source.Registry
	Dispatcher *gcode.Dispatcher
	Model      *coord.Model
	Tools      *coord.ToolTable
	Stack      *coord.StateStack
}

// New builds an Interpreter from configuration and external collaborators.
// plan and heat are the real (or fake, in tests) Planner/Heater
// implementations; they are never constructed by this package.
func New(cfg *config.Printer, plan planner.Planner, heat heater.Heater) *Interpreter {
	model := coord.NewModel(cfg.NumAxes, cfg.NumExtruders)
	tools := coord.NewToolTable()
	for _, t := range cfg.Tools {
		tools.Define(t)
	}
	stack := coord.NewStateStack()
	slot := moveslot.New()
	reg := source.NewRegistry()
	rep := reply.New(reply.Dialect(cfg.Dialect))

	disp := gcode.New(reg, slot, model, stack, tools, plan, heat, rep)
	disp.Macros = macro.NewEngine(cfg.MacroDir, stack, model, disp.Execute)
	disp.Home = canned.NewHomeCycle(model, disp.Macros, cfg.HomeCfg, cfg.RequireXYBeforeZ)
	disp.Probe = canned.NewProbeCycle(slot, plan, model, 300, 6000, 5, 3)
	disp.ToolChange = canned.NewToolChangeCycle(heat, model, tools, disp.Macros)
	disp.ProbeGrid = cfg.ProbeGrid

	return &Interpreter{
		Registry:   reg,
		Dispatcher: disp,
		Model:      model,
		Tools:      tools,
		Stack:      stack,
	}
}

// BindSerial opens and binds a real serial transport to the "serial"
// source.
func (ip *Interpreter) BindSerial(device string, baud int) error {
	t, err := transport.OpenSerial(device, baud)
	if err != nil {
		return err
	}
	ip.Registry.Bind(buffer.SourceSerial, t)
	return nil
}

// BindFile opens and binds a file transport to the "file" source, for
// print-from-file or the debug input-file entrypoint flag.
func (ip *Interpreter) BindFile(path string) error {
	t, err := transport.OpenFile(path)
	if err != nil {
		return err
	}
	ip.Registry.Bind(buffer.SourceFile, t)
	return nil
}

// BindWeb binds a websocket transport to the "web" source. The caller is
// responsible for serving wt.HandleUpgrade on an HTTP mux.
func (ip *Interpreter) BindWeb(wt *transport.WebTransport) {
	ip.Registry.Bind(buffer.SourceWeb, wt)
}

// Spin performs exactly one unit of work across the whole interpreter.
// The entrypoint calls this in a tight loop.
func (ip *Interpreter) Spin() {
	ip.Dispatcher.Spin()
}
