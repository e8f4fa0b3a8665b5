// Package macro implements the Macro Engine: invoking a named macro file
// redirects the "macro" source's Command Buffer to that file's (optionally
// templated) contents, drives it through the same Dispatcher the live
// sources use, and restores the caller's modal state on M99 or EOF. It is
// grounded on the teacher's GCodeMacro/TemplateWrapper
// (project/gcode_macro.go upstream) for the pongo2 templating shape, with
// the teacher's jinja2.Environment wrapper (common/jinja2/jinja2.go)
// reused as-is.
package macro

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/flosch/pongo2/v5"
	uuid "github.com/satori/go.uuid"

	"github.com/Samuellynch1215/RepRapFirmware-1/common/errors"
	"github.com/Samuellynch1215/RepRapFirmware-1/common/jinja2"
	"github.com/Samuellynch1215/RepRapFirmware-1/common/value"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/buffer"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/coord"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/outcome"
)

// Executor dispatches one fully-armed command line and reports whether it
// completed, needs to be retried, or failed. The Macro Engine is handed
// this as a callback by whatever owns the Dispatcher, rather than
// importing the dispatcher package directly, so a macro invocation can
// drive nested commands (including nested macro calls) without a circular
// package dependency.
type Executor func(line string) outcome.Outcome

type runPhase int

const (
	phaseFeeding runPhase = iota
	phaseAwaitingCommand
)

// Engine owns the macro directory, the templating environment, and the
// currently in-flight invocation (if any). Only one macro invocation runs
// at a time per Engine; nested CALLs push a new frame onto stack and
// recurse through Executor rather than this Engine itself being
// reentrant.
type Engine struct {
	dir   string
	env   *jinja2.Environment
	stack *coord.StateStack
	model *coord.Model
	exec  Executor

	content string
	pos     int
	buf     *buffer.Buffer
	phase   runPhase
	pending string
	id      uuid.UUID
	active  bool
}

// NewEngine returns a Macro Engine that reads macro files from dir.
func NewEngine(dir string, stack *coord.StateStack, model *coord.Model, exec Executor) *Engine {
	return &Engine{
		dir:   dir,
		env:   jinja2.NewEnvironment(),
		stack: stack,
		model: model,
		exec:  exec,
		buf:   buffer.New(buffer.SourceMacro),
	}
}

// Active reports whether a macro invocation is currently in flight.
func (e *Engine) Active() bool { return e.active }

// Start begins invoking the named macro file with the given template
// parameters. It reads and renders the file, pushes the caller's modal
// state, and tags the invocation with a UUID for diagnostic logging. The
// first Poll call after Start performs the actual byte feeding.
func (e *Engine) Start(name string, params map[string]interface{}) error {
	path := filepath.Join(e.dir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		value.StaticValue.Error.Printf("macro %q not found under %s: %v", name, e.dir, err)
		return errors.New(errors.MacroNotFoundCode, fmt.Sprintf("macro %q not found", name))
	}

	tpl, err := e.env.From_string(string(raw))
	if err != nil {
		return errors.New(errors.MalformedLineCode, fmt.Sprintf("macro %q failed to parse: %v", name, err))
	}
	ctx := pongo2.Context{}
	for k, v := range params {
		ctx[k] = v
	}
	rendered, err := tpl.Render(ctx)
	if err != nil {
		return errors.New(errors.MalformedLineCode, fmt.Sprintf("macro %q failed to render: %v", name, err))
	}

	snap := e.model.Save()
	if err := e.stack.Push(snap); err != nil {
		return err
	}

	e.id = uuid.NewV4()
	e.content = rendered
	e.pos = 0
	e.buf.Reset()
	e.phase = phaseFeeding
	e.pending = ""
	e.active = true
	value.StaticValue.Debug.Printf("macro %q invocation %s started", name, e.id)
	return nil
}

// Poll advances the in-flight invocation by one unit of work: either one
// byte fed into the macro Command Buffer, or one retry of a command still
// in flight from a previously completed line.
func (e *Engine) Poll() outcome.Outcome {
	if !e.active {
		return outcome.Done
	}

	if e.phase == phaseAwaitingCommand {
		if e.pending == "M99" {
			return e.finish()
		}
		switch e.exec(e.pending) {
		case outcome.Done:
			e.phase = phaseFeeding
			e.pending = ""
			return outcome.Retry
		case outcome.Retry:
			return outcome.Retry
		default:
			value.StaticValue.Error.Printf("macro invocation %s: nested command %q failed", e.id, e.pending)
			e.finish()
			return outcome.Err
		}
	}

	if e.pos >= len(e.content) {
		return e.finish()
	}

	c := e.content[e.pos]
	e.pos++
	armed, err := e.buf.Put(c)
	if err != nil {
		// Checksums don't apply inside macro files; a malformed line is
		// logged and skipped rather than aborting the whole invocation.
		value.StaticValue.Error.Printf("macro invocation %s: %v", e.id, err)
		return outcome.Retry
	}
	if !armed {
		return outcome.Retry
	}

	line := e.buf.Line()
	e.buf.Reset()
	if line == "" {
		return outcome.Retry
	}
	e.pending = line
	e.phase = phaseAwaitingCommand
	return outcome.Retry
}

func (e *Engine) finish() outcome.Outcome {
	snap, err := e.stack.Pop()
	if err != nil {
		value.StaticValue.Error.Printf("macro invocation %s: %v", e.id, err)
		e.active = false
		return outcome.Err
	}
	e.model.Restore(snap)
	value.StaticValue.Debug.Printf("macro invocation %s finished", e.id)
	e.active = false
	return outcome.Done
}
