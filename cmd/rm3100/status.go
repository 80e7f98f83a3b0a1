package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/gophertribe/rm3100/adapter"
	"github.com/gophertribe/rm3100/cmd/rm3100/console"
)

var statusCmd = cli.Command{
	Name:  "status",
	Usage: "show sensor configuration and data-ready state",
	Flags: busFlags(),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Exit(1, "configuration error: %s", console.Red(err))
		}
		if cfg.Bus == "mcp2221" {
			ad := adapter.NewMCP2221()
			st, err := ad.Status(ctx)
			if err != nil {
				return console.Exit(1, "adapter status error: %s", console.Red(err))
			}
			console.Infof("adapter: divider=%d timeout=%d pending=%d addr=%s",
				st.I2CSpeedDivider, st.I2CTimeout, st.ReadPending, st.CurrentAddress)
		}
		mag, cleanup, err := openSensor(ctx, cfg)
		if err != nil {
			return console.Exit(1, "sensor initialization error: %s", console.Red(err))
		}
		defer cleanup()

		console.PInfof(console.PictoPin, "cycle count: %d", mag.CycleCount())
		console.PInfof(console.PictoPin, "measurement time: %s", mag.MeasurementTime())
		ready, err := mag.MeasurementComplete(ctx)
		if err != nil {
			return console.Exit(1, "error checking data ready: %s", console.Red(err))
		}
		if ready {
			console.PInfof(console.PictoPin, "data ready: %s", console.Green("yes"))
		} else {
			console.PInfof(console.PictoPin, "data ready: %s", console.Yellow("no"))
		}
		return nil
	},
}
