package i2c

import (
	"context"
	"fmt"

	"github.com/gophertribe/rm3100"
)

// DefaultAddr is the RM3100 7-bit I2C address with SA0/SA1 low.
const DefaultAddr = 0x20

var _ rm3100.RegisterBus = &Transport{}

// Transport frames register operations for the RM3100 on an addressed bus.
// A write is a single transaction sending the register address followed by
// the payload. A read first sends the register address as a pointer write,
// then reads; when the underlying bus supports combined transactions the two
// phases happen without releasing the bus in between.
type Transport struct {
	bus  rm3100.I2CBus
	addr byte
}

func NewTransport(bus rm3100.I2CBus, addr byte) *Transport {
	if addr == 0 {
		addr = DefaultAddr
	}
	return &Transport{bus: bus, addr: addr}
}

func (t *Transport) WriteReg(ctx context.Context, reg byte, data []byte) error {
	frame := make([]byte, 1+len(data))
	frame[0] = reg
	copy(frame[1:], data)
	err := t.bus.WriteToAddr(ctx, t.addr, frame)
	if err != nil {
		return fmt.Errorf("could not write register %#02x: %w", reg, err)
	}
	return nil
}

func (t *Transport) ReadReg(ctx context.Context, reg byte, buffer []byte) error {
	if tx, ok := t.bus.(rm3100.I2CTransactor); ok {
		err := tx.TxToAddr(ctx, t.addr, []byte{reg}, buffer)
		if err != nil {
			return fmt.Errorf("could not read register %#02x: %w", reg, err)
		}
		return nil
	}
	err := t.bus.WriteToAddr(ctx, t.addr, []byte{reg})
	if err != nil {
		return fmt.Errorf("could not set register pointer %#02x: %w", reg, err)
	}
	err = t.bus.ReadFromAddr(ctx, t.addr, buffer)
	if err != nil {
		return fmt.Errorf("could not read register %#02x: %w", reg, err)
	}
	return nil
}
