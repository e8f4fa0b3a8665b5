// Command firmware is the process entrypoint: it loads configuration,
// wires the interpreter to its transports, and drives Spin() in a tight
// loop. Flag-parsed the way the teacher's K3C.Main() is
// (project/k3c.go upstream), adapted from its dynamic module-loading
// flags to this core's fixed collaborator set.
package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/Samuellynch1215/RepRapFirmware-1/common/value"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/config"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/heater"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/interpreter"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/planner"
	"github.com/Samuellynch1215/RepRapFirmware-1/internal/transport"
)

func main() {
	var (
		configPath = flag.String("c", "printer.cfg", "path to printer configuration file")
		serialDev  = flag.String("d", "", "serial device override, empty to use config")
		debugFile  = flag.String("i", "", "debug: replay G-code from this file as the 'file' source")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	value.SetDebug(*verbose)

	cfg, err := config.Load(*configPath)
	if err != nil {
		value.StaticValue.Error.Printf("config load failed, using defaults: %v", err)
		cfg = &config.Printer{NumAxes: 3, NumExtruders: 1, MacroDir: "macros", Dialect: "native"}
	}
	if *serialDev != "" {
		cfg.SerialDevice = *serialDev
	}

	plan := planner.NewFake(cfg.NumAxes + cfg.NumExtruders)
	heat := heater.NewFake()

	ip := interpreter.New(cfg, plan, heat)

	if *debugFile != "" {
		if err := ip.BindFile(*debugFile); err != nil {
			value.StaticValue.Error.Printf("debug input file %q: %v", *debugFile, err)
		}
	} else if cfg.SerialDevice != "" {
		if err := ip.BindSerial(cfg.SerialDevice, cfg.SerialBaud); err != nil {
			value.StaticValue.Error.Printf("serial device %q: %v", cfg.SerialDevice, err)
		}
	}

	if cfg.WebAddr != "" {
		wt := transport.NewWebTransport()
		ip.BindWeb(wt)
		mux := http.NewServeMux()
		mux.HandleFunc("/gcode", wt.HandleUpgrade)
		go func() {
			if err := http.ListenAndServe(cfg.WebAddr, mux); err != nil {
				value.StaticValue.Error.Printf("web transport server stopped: %v", err)
			}
		}()
	}

	value.StaticValue.Debug.Printf("interpreter running, %d axes, %d extruders", cfg.NumAxes, cfg.NumExtruders)

	for {
		ip.Spin()
		time.Sleep(time.Microsecond * 100)
	}
}
