package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"

	"github.com/tigerbot-team/tigerbot/nav-controller/internal/log"
	"github.com/tigerbot-team/tigerbot/nav-controller/pkg/bus"
	"github.com/tigerbot-team/tigerbot/nav-controller/pkg/hardware"
	"github.com/tigerbot-team/tigerbot/nav-controller/pkg/navconfig"
	"github.com/tigerbot-team/tigerbot/nav-controller/pkg/navmode"
	"github.com/tigerbot-team/tigerbot/nav-controller/pkg/propeller"
	"github.com/tigerbot-team/tigerbot/nav-controller/pkg/rover"
	"github.com/tigerbot-team/tigerbot/nav-controller/pkg/serialdrive"
)

var CLI struct {
	Config     string        `help:"Nav config file; built-in defaults are used if it is missing." default:"/cfg/nav.yaml" type:"path"`
	Sink       string        `help:"Motor output." enum:"dummy,propeller,serial" default:"dummy"`
	SerialPort string        `help:"Serial device for the serial sink." default:"/dev/ttyUSB0"`
	Baud       int           `help:"Baud rate for the serial sink." default:"115200"`
	I2CDevice  string        `name:"i2c-device" help:"I2C bus for the propeller sink." default:"/dev/i2c-1"`
	Firmware   string        `help:"Flash this propeller image before starting."`
	SpeedLimit float64       `help:"Fraction of full motor speed used at full command." default:"1.0"`
	Listen     string        `help:"Address for the websocket bridge, e.g. :8080. Disabled if empty."`
	Tick       time.Duration `help:"Control loop period." default:"100ms"`
	LogLevel   string        `help:"debug, info, warn or error." default:"info"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("navcontroller"),
		kong.Description("Waypoint-following rover navigation controller."))
	log.Init(CLI.LogLevel)
	log.Info("---- navcontroller ----", "GOMAXPROCS", runtime.GOMAXPROCS(0))

	if err := run(); err != nil {
		log.Error("navcontroller failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(CLI.Config)
	if err != nil {
		return err
	}
	if err := cfg.Save(navconfig.InUsePath(CLI.Config)); err != nil {
		log.Warn("Failed to save in-use config", "error", err)
	}

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	registerSignalHandlers(cancel)

	motors, closeMotors, err := openSink()
	if err != nil {
		return err
	}
	defer closeMotors()

	b := bus.New()
	_, driveMsgs := b.Subscribe(cfg.Channels.AutonDriveControl)
	_, statusMsgs := b.Subscribe(cfg.Channels.RoverStatus)

	// The sink drains until the bus closes so the final stop reaches the motors.
	sinkDone := make(chan struct{})
	go func() {
		defer close(sinkDone)
		hardware.NewMotorSink(motors).WithSpeedLimit(CLI.SpeedLimit).Run(context.Background(), driveMsgs)
	}()

	r, err := rover.New(cfg, b)
	if err != nil {
		b.Close()
		<-sinkDone
		return err
	}

	var srv *http.Server
	if CLI.Listen != "" {
		bridge := bus.NewBridge(b,
			[]string{cfg.Channels.AutonDriveControl},
			map[string]bus.Decoder{
				cfg.Channels.RoverStatus: bus.JSONDecoder[rover.Snapshot](),
			})
		mux := http.NewServeMux()
		mux.Handle("/ws", bridge)
		srv = &http.Server{Addr: CLI.Listen, Handler: mux}
		go func() {
			log.Info("Websocket bridge listening", "addr", CLI.Listen)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("Websocket bridge failed", "error", err)
				cancel()
			}
		}()
	}

	mode := navmode.New(r, statusMsgs, CLI.Tick)
	log.Info("----- " + mode.Name() + " -----")
	mode.Start(ctx)

	watchdog := time.NewTicker(5 * time.Second)
	defer watchdog.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("Context done, stopping nav mode and shutting down")
			mode.Stop()
			if srv != nil {
				shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
				_ = srv.Shutdown(shutdownCtx)
				done()
			}
			b.Close()
			<-sinkDone
			if n := b.Dropped(); n > 0 {
				log.Warn("Bus dropped messages", "count", n)
			}
			return nil
		case <-watchdog.C:
			log.Debug("Main loop still running")
		}
	}
}

func loadConfig(path string) (*navconfig.Config, error) {
	cfg, err := navconfig.Load(path)
	if err == nil {
		log.Info("Loaded nav config", "path", path)
		return cfg, nil
	}
	if os.IsNotExist(errors.Cause(err)) {
		log.Warn("No nav config, using defaults", "path", path)
		return navconfig.Default(), nil
	}
	return nil, err
}

func openSink() (hardware.RawControl, func(), error) {
	switch CLI.Sink {
	case "propeller":
		var opts []propeller.Option
		if CLI.Firmware != "" {
			opts = append(opts, propeller.WithFirmware(CLI.Firmware))
		}
		p, err := propeller.New(propeller.I2COpener(CLI.I2CDevice), opts...)
		if err != nil {
			return nil, nil, err
		}
		return p, func() { _ = p.Close() }, nil
	case "serial":
		d, err := serialdrive.Open(CLI.SerialPort, CLI.Baud)
		if err != nil {
			return nil, nil, err
		}
		return d, func() { _ = d.Close() }, nil
	default:
		return hardware.NewDummy(), func() {}, nil
	}
}

func registerSignalHandlers(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Info("Signal", "signal", s.String())
		cancelFunc()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()
}
