// calibrator-sim runs the calibrator service and its console against a
// simulated current loop. The console reads stdin and writes stdout.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"loopcal-go/bus"
	"loopcal-go/drivers/simloop"
	"loopcal-go/services/calibrator"
	"loopcal-go/services/config"
	"loopcal-go/services/console"
	"loopcal-go/services/heartbeat"
	"loopcal-go/services/settings"
)

const (
	flagMode         = "mode"
	flagDevice       = "device"
	flagLoadOhms     = "load-ohms"
	flagLeakUA       = "leak-ua"
	flagOpenLoop     = "open-loop"
	flagSettingsFile = "settings-file"
	flagLogFile      = "log-file"
	flagLogLevel     = "log-level"
)

func main() {
	app := &cli.App{
		Name:  "calibrator-sim",
		Usage: "run the loop calibrator against a simulated 4-20 mA loop",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagMode,
				Value: "normal",
				Usage: "device mode: normal or service",
			},
			&cli.StringFlag{
				Name:  flagDevice,
				Value: config.DefaultDevice,
				Usage: "embedded configuration to publish",
			},
			&cli.IntFlag{
				Name:  flagLoadOhms,
				Value: 250,
				Usage: "simulated loop load",
			},
			&cli.IntFlag{
				Name:  flagLeakUA,
				Usage: "leakage current injected into the loop",
			},
			&cli.BoolFlag{
				Name:  flagOpenLoop,
				Usage: "start with the loop broken",
			},
			&cli.StringFlag{
				Name:    flagSettingsFile,
				Aliases: []string{"s"},
				Usage:   "persist settings to `FILE` (memory only when empty)",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "write logs to `FILE` with rotation (stderr when empty)",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Value: "info",
				Usage: "debug, info, warn or error",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	log, sync, err := newLogger(c.String(flagLogLevel), c.String(flagLogFile))
	if err != nil {
		return err
	}
	defer sync()

	mode, err := calibrator.ParseDeviceMode(c.String(flagMode))
	if err != nil {
		return errors.Wrapf(err, "--%s %q", flagMode, c.String(flagMode))
	}

	loop := simloop.New(simloop.Config{
		LoadOhms:        int32(c.Int(flagLoadOhms)),
		ConversionPolls: 1,
	})
	loop.SetLeak(int32(c.Int(flagLeakUA)))
	loop.SetBreak(c.Bool(flagOpenLoop))

	var store settings.Store
	if path := c.String(flagSettingsFile); path != "" {
		store = settings.NewFile(path)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()
	ctx = context.WithValue(ctx, config.CtxDeviceKey, c.String(flagDevice))

	b := bus.NewBus(16)
	svc := calibrator.New(b.NewConnection("calibrator"),
		calibrator.Hardware{
			ADC:       loop,
			CurrentCh: simloop.ChCurrent,
			VoltageCh: simloop.ChVoltage,
			DAC:       loop,
		},
		store,
		calibrator.WithLogger(log),
		calibrator.WithMode(mode),
	)
	con := console.New(b.NewConnection("console"), newStdioPort(os.Stdin, os.Stdout),
		console.WithLogger(log))

	log.Infow("starting", "mode", mode, "device", c.String(flagDevice))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		svc.Run(gctx)
		return nil
	})
	g.Go(func() error {
		// Console EOF ends the run.
		defer stop()
		return con.Run(gctx)
	})
	g.Go(func() error {
		heartbeat.New(b.NewConnection("heartbeat"), heartbeat.WithLogger(log)).Run(gctx)
		return nil
	})
	g.Go(func() error {
		return config.NewConfigService(log).Publish(gctx, b.NewConnection("config"))
	})
	return g.Wait()
}
