package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/gophertribe/rm3100/cmd/rm3100/console"
)

var readCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Usage:   "take a single measurement",
	Flags:   busFlags(),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Exit(1, "configuration error: %s", console.Red(err))
		}
		mag, cleanup, err := openSensor(ctx, cfg)
		if err != nil {
			return console.Exit(1, "sensor initialization error: %s", console.Red(err))
		}
		defer cleanup()

		mx, my, mz, err := mag.Magnetic(ctx)
		if err != nil {
			return console.Exit(1, "error reading measurement: %s", console.Red(err))
		}
		// the result registers hold their value until the next trigger
		x, y, z, err := mag.GetLastReading(ctx)
		if err != nil {
			return console.Exit(1, "error reading raw measurement: %s", console.Red(err))
		}
		console.PInfof(console.PictoCompass, "raw: x=%d y=%d z=%d", x, y, z)
		console.PInfof(console.PictoCompass, "field: x=%.3fµT y=%.3fµT z=%.3fµT", mx, my, mz)
		return nil
	},
}
