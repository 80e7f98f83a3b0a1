package main

import (
	"context"
	"fmt"

	"github.com/gophertribe/rm3100"
	"github.com/gophertribe/rm3100/adapter"
	"github.com/gophertribe/rm3100/gpio"
	"github.com/gophertribe/rm3100/i2c"
	"github.com/gophertribe/rm3100/spi"
)

// openSensor builds the transport and DRDY line described by the config and
// hands back a configured driver plus a cleanup function. The cleanup stops
// continuous mode if it is still running and releases the bus.
func openSensor(ctx context.Context, cfg Config) (*rm3100.RM3100, func(), error) {
	opts := []rm3100.Opt{
		rm3100.WithCycleCount(cfg.CycleCount),
		rm3100.WithPollInterval(cfg.PollInterval),
	}
	var transport rm3100.RegisterBus
	cleanup := func() {}

	switch cfg.Bus {
	case "i2c":
		bus, err := i2c.NewGenericBus(cfg.Device)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open i2c bus: %w", err)
		}
		transport = i2c.NewTransport(bus, byte(cfg.Address))
		cleanup = func() { _ = bus.Close() }
	case "spi":
		t, err := spi.New(cfg.Device)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open spi port: %w", err)
		}
		transport = t
		cleanup = func() { _ = t.Close() }
	case "mcp2221":
		ad := adapter.NewMCP2221()
		transport = i2c.NewTransport(ad, byte(cfg.Address))
		cleanup = func() { _ = ad.Release(context.Background()) }
		if cfg.DRDY.Pin >= 0 {
			opts = append(opts, rm3100.WithReadyLine(ad.ReadyPin(cfg.DRDY.Pin)))
		}
	default:
		return nil, nil, fmt.Errorf("unknown bus type %q", cfg.Bus)
	}

	if cfg.DRDY.Chip != "" && cfg.Bus != "mcp2221" {
		line, err := gpio.NewCdevLine(cfg.DRDY.Chip, cfg.DRDY.Line)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("could not open DRDY line: %w", err)
		}
		opts = append(opts, rm3100.WithReadyLine(line))
		busCleanup := cleanup
		cleanup = func() {
			_ = line.Close()
			busCleanup()
		}
	}

	mag, err := rm3100.New(ctx, transport, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	driverCleanup := cleanup
	cleanup = func() {
		_ = mag.Close(context.Background())
		driverCleanup()
	}
	return mag, cleanup, nil
}

func hasDRDY(cfg Config) bool {
	if cfg.Bus == "mcp2221" {
		return cfg.DRDY.Pin >= 0
	}
	return cfg.DRDY.Chip != ""
}
