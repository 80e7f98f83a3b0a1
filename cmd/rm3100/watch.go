package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/gophertribe/rm3100/cmd/rm3100/console"
)

var watchCmd = cli.Command{
	Name:  "watch",
	Usage: "stream readings in continuous mode until interrupted",
	Flags: append(busFlags(),
		&cli.Float64Flag{
			Name:    "frequency",
			Aliases: []string{"f"},
			Usage:   "sample rate in Hz (600 down to 0.0075, power-of-two steps)",
			Value:   9,
		},
	),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig(c)
		if err != nil {
			return console.Exit(1, "configuration error: %s", console.Red(err))
		}
		if !hasDRDY(cfg) {
			console.Warnf("no DRDY line configured; polling the status register adds measurement noise")
			answer, err := console.YesOrNo("continue without DRDY?")
			if err != nil {
				return console.Exit(1, "prompt error: %s", console.Red(err))
			}
			if answer == console.No {
				console.PInfof(console.PictoStop, "aborted")
				return nil
			}
		}
		mag, cleanup, err := openSensor(ctx, cfg)
		if err != nil {
			return console.Exit(1, "sensor initialization error: %s", console.Red(err))
		}
		defer cleanup()

		if err := mag.StartContinuousReading(ctx, c.Float64("frequency")); err != nil {
			return console.Exit(1, "error starting continuous mode: %s", console.Red(err))
		}
		console.PInfof(console.PictoCompass, "watching (ctrl-c to stop)")
		for {
			x, y, z, err := mag.GetNextReading(ctx)
			if errors.Is(err, context.Canceled) {
				break
			}
			if err != nil {
				console.Errorf("read error: %s", console.Red(err))
				break
			}
			mx, my, mz := mag.ConvertToMicroteslas(x, y, z)
			console.Printf("x=%.3fµT y=%.3fµT z=%.3fµT\n", mx, my, mz)
		}
		if err := mag.Stop(context.Background()); err != nil {
			return console.Exit(1, "error stopping continuous mode: %s", console.Red(err))
		}
		console.PInfof(console.PictoStop, "stopped")
		return nil
	},
}
