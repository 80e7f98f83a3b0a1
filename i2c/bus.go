package i2c

import (
	"context"
	"fmt"

	"github.com/gophertribe/rm3100"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

var _ rm3100.I2CBus = &GenericBus{}
var _ rm3100.I2CTransactor = &GenericBus{}

// GenericBus is a periph.io backed I2C bus. It supports combined
// write-then-read transactions, so register reads do not release the bus
// between the pointer write and the data read.
type GenericBus struct {
	bus i2c.BusCloser
}

func NewGenericBus(dev string) (*GenericBus, error) {
	_, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	return &GenericBus{
		bus: bus,
	}, nil
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) TxToAddr(ctx context.Context, address byte, w, r []byte) error {
	err := b.bus.Tx(uint16(address), w, r)
	if err != nil {
		return fmt.Errorf("could not transact on i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) SetSpeed(hz int64) error {
	return b.bus.SetSpeed(physic.Frequency(hz) * physic.Hertz)
}

func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}
