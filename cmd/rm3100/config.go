package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Config holds CLI defaults; command line flags override individual fields.
type Config struct {
	Bus        string `yaml:"bus"`         // i2c, spi or mcp2221
	Device     string `yaml:"device"`      // i2c bus or spi port name
	Address    int    `yaml:"address"`     // 7-bit i2c address
	CycleCount int    `yaml:"cycle_count"` //
	DRDY       struct {
		Chip string `yaml:"chip"` // gpiochip for the DRDY line, empty disables DRDY
		Line int    `yaml:"line"` // line offset on the chip
		Pin  int    `yaml:"pin"`  // MCP2221 GP pin, -1 disables
	} `yaml:"drdy"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

func defaultConfig() Config {
	cfg := Config{
		Bus:          "i2c",
		Device:       "/dev/i2c-1",
		Address:      0x20,
		CycleCount:   200,
		PollInterval: 10 * time.Millisecond,
	}
	cfg.DRDY.Pin = -1
	return cfg
}

// loadConfig reads the yaml file named by the global --config flag and
// applies per-command flag overrides. A missing file is not an error, the
// defaults apply.
func loadConfig(c *cli.Context) (Config, error) {
	cfg := defaultConfig()
	raw, err := os.ReadFile(c.String("config"))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("could not read config file: %w", err)
		}
	} else if err = yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("could not parse config file: %w", err)
	}
	if c.IsSet("bus") {
		cfg.Bus = c.String("bus")
	}
	if c.IsSet("device") {
		cfg.Device = c.String("device")
	}
	if c.IsSet("address") {
		cfg.Address = c.Int("address")
	}
	if c.IsSet("cycle-count") {
		cfg.CycleCount = c.Int("cycle-count")
	}
	if c.IsSet("drdy-chip") {
		cfg.DRDY.Chip = c.String("drdy-chip")
	}
	if c.IsSet("drdy-line") {
		cfg.DRDY.Line = c.Int("drdy-line")
	}
	if c.IsSet("drdy-pin") {
		cfg.DRDY.Pin = c.Int("drdy-pin")
	}
	return cfg, nil
}

func busFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "bus",
			Aliases: []string{"b"},
			Usage:   "bus type: i2c, spi or mcp2221",
		},
		&cli.StringFlag{
			Name:    "device",
			Aliases: []string{"d"},
			Usage:   "i2c bus or spi port name",
		},
		&cli.IntFlag{
			Name:    "address",
			Aliases: []string{"a"},
			Usage:   "7-bit i2c address",
		},
		&cli.IntFlag{
			Name:  "cycle-count",
			Usage: "oscillation cycles per axis per measurement (1-65535)",
		},
		&cli.StringFlag{
			Name:  "drdy-chip",
			Usage: "gpiochip carrying the DRDY line",
		},
		&cli.IntFlag{
			Name:  "drdy-line",
			Usage: "DRDY line offset on the gpiochip",
		},
		&cli.IntFlag{
			Name:  "drdy-pin",
			Usage: "MCP2221 GP pin wired to DRDY",
		},
	}
}
