package spi

import (
	"context"
	"fmt"

	"github.com/gophertribe/rm3100"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// readFlag is OR'd into the register address byte to signal a read.
const readFlag = 0x80

var _ rm3100.RegisterBus = &Transport{}

// Transport frames register operations for the RM3100 on a chip-select bus.
// The underlying spi.Conn asserts chip-select for the duration of each Tx
// and releases it on every exit path, which keeps transactions atomic with
// respect to other users of the bus.
//
// Reads are full-duplex: the address byte with the read flag set is clocked
// out followed by zero bytes, and the first byte clocked back is discarded
// since the device only starts answering after the address has been
// received.
type Transport struct {
	conn spi.Conn
	port spi.PortCloser
}

// New opens the named SPI port and connects to it in mode 0 at 1MHz, the
// maximum the RM3100 supports.
func New(port string) (*Transport, error) {
	_, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	p, err := spireg.Open(port)
	if err != nil {
		return nil, fmt.Errorf("could not open spi port: %w", err)
	}
	conn, err := p.Connect(physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("could not connect to spi port: %w", err)
	}
	return &Transport{conn: conn, port: p}, nil
}

// NewFromConn wraps an already connected spi.Conn.
func NewFromConn(conn spi.Conn) *Transport {
	return &Transport{conn: conn}
}

func (t *Transport) WriteReg(ctx context.Context, reg byte, data []byte) error {
	frame := make([]byte, 1+len(data))
	frame[0] = reg
	copy(frame[1:], data)
	if err := t.conn.Tx(frame, nil); err != nil {
		return fmt.Errorf("could not write register %#02x: %w", reg, err)
	}
	return nil
}

func (t *Transport) ReadReg(ctx context.Context, reg byte, buffer []byte) error {
	w := make([]byte, 1+len(buffer))
	r := make([]byte, 1+len(buffer))
	w[0] = reg | readFlag
	if err := t.conn.Tx(w, r); err != nil {
		return fmt.Errorf("could not read register %#02x: %w", reg, err)
	}
	copy(buffer, r[1:])
	return nil
}

func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	return t.port.Close()
}
