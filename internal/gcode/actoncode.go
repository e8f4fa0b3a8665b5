package gcode

import (
	"strconv"

	"github.com/Samuellynch1215/RepRapFirmware-1/common/errors"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/buffer"
)

// actOnCode classifies the armed line by its leading tag (M, G, or T,
// checked in that order so M-prefixed diagnostic commands never get
// mistaken for a bare G move) and returns the step that will run it.
// Unrecognized commands produce a step that fails immediately with
// UnknownCommandCode.
func (d *Dispatcher) actOnCode(buf *buffer.Buffer) step {
	word := buf.Command()
	if word == "" {
		return immediate(func() (*errors.Error, string) { return nil, "" })
	}

	tag := word[0]
	num, err := strconv.Atoi(word[1:])
	if err != nil {
		return immediate(func() (*errors.Error, string) {
			return errors.New(errors.MalformedLineCode, "malformed command word "+word), ""
		})
	}

	switch tag {
	case 'M', 'm':
		if h, ok := mcodeHandlers[num]; ok {
			return h(d, buf)
		}
	case 'G', 'g':
		if h, ok := gcodeHandlers[num]; ok {
			return h(d, buf)
		}
	case 'T', 't':
		return d.handleToolChange(buf, num)
	}

	return immediate(func() (*errors.Error, string) {
		return errors.New(errors.UnknownCommandCode, "unrecognized command "+word), ""
	})
}

type handlerFn func(d *Dispatcher, buf *buffer.Buffer) step

var gcodeHandlers = map[int]handlerFn{}
var mcodeHandlers = map[int]handlerFn{}

func registerG(code int, fn handlerFn) { gcodeHandlers[code] = fn }
func registerM(code int, fn handlerFn) { mcodeHandlers[code] = fn }

var axisLetters = []byte{'X', 'Y', 'Z'}
