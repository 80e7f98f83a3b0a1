package spi

import (
	"context"
	"fmt"

	"github.com/gophertribe/rm3100"
	"gobot.io/x/gobot/v2/drivers/spi"
)

var _ rm3100.RegisterBus = &GobotConnection{}

// GobotConnection adapts a Gobot SPI connection to the register transport,
// for boards driven through a Gobot adaptor instead of periph. Gobot does
// not expose a true full-duplex exchange, so register reads use the
// command/data form and the pipeline byte handling is left to the adaptor.
type GobotConnection struct {
	conn spi.Connection
}

func NewGobotConnection(conn spi.Connection) *GobotConnection {
	return &GobotConnection{conn: conn}
}

func (g *GobotConnection) WriteReg(ctx context.Context, reg byte, data []byte) error {
	frame := make([]byte, 1+len(data))
	frame[0] = reg
	copy(frame[1:], data)
	if err := g.conn.WriteBytes(frame); err != nil {
		return fmt.Errorf("could not write register %#02x: %w", reg, err)
	}
	return nil
}

func (g *GobotConnection) ReadReg(ctx context.Context, reg byte, buffer []byte) error {
	if err := g.conn.ReadCommandData([]byte{reg | readFlag}, buffer); err != nil {
		return fmt.Errorf("could not read register %#02x: %w", reg, err)
	}
	return nil
}
