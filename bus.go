package rm3100

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// RegisterWriter writes data to a single device register in one bus transaction.
type RegisterWriter interface {
	WriteReg(ctx context.Context, reg byte, data []byte) error
}

// RegisterReader fills buffer with consecutive bytes starting at reg, in one
// bus transaction.
type RegisterReader interface {
	ReadReg(ctx context.Context, reg byte, buffer []byte) error
}

// RegisterBus is the transport the driver talks to. Implementations hide the
// bus-specific framing (register pointer writes on I2C, the read flag and
// pipeline byte on SPI).
type RegisterBus interface {
	RegisterWriter
	RegisterReader
}

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is a raw addressed byte bus (controller side).
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// I2CTransactor is implemented by buses that can combine a register pointer
// write and the following read into a single transaction without releasing
// the bus in between. The i2c transport prefers it over separate write/read
// calls when available.
type I2CTransactor interface {
	TxToAddr(ctx context.Context, address byte, w, r []byte) error
}

// ReadyLine reports the logical level of a data-ready (DRDY) signal.
type ReadyLine interface {
	Ready(ctx context.Context) (bool, error)
}
