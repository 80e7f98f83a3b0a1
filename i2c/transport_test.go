package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// splitBus is a fake addressed bus without combined transaction support.
type splitBus struct {
	writes   [][]byte
	reads    int
	response []byte
	err      error
}

func (b *splitBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	frame := make([]byte, len(buffer))
	copy(frame, buffer)
	b.writes = append(b.writes, append([]byte{address}, frame...))
	return b.err
}

func (b *splitBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	b.reads++
	copy(buffer, b.response)
	return b.err
}

func (b *splitBus) Release(ctx context.Context) error { return nil }

// txBus is a fake addressed bus with combined write-then-read support.
type txBus struct {
	splitBus
	txW [][]byte
	txR int
}

func (b *txBus) TxToAddr(ctx context.Context, address byte, w, r []byte) error {
	frame := make([]byte, len(w))
	copy(frame, w)
	b.txW = append(b.txW, append([]byte{address}, frame...))
	b.txR++
	copy(r, b.response)
	return b.err
}

func TestTransport_WriteFraming(t *testing.T) {
	bus := &splitBus{}
	tr := NewTransport(bus, 0)

	err := tr.WriteReg(context.Background(), 0x04, []byte{0x00, 0xC8, 0x00, 0xC8, 0x00, 0xC8})
	assert.NoError(t, err)
	// one transaction: device address, register address, payload
	assert.Len(t, bus.writes, 1)
	assert.Equal(t, []byte{DefaultAddr, 0x04, 0x00, 0xC8, 0x00, 0xC8, 0x00, 0xC8}, bus.writes[0])
}

func TestTransport_ReadSplit(t *testing.T) {
	bus := &splitBus{response: []byte{0x80}}
	tr := NewTransport(bus, 0x23)

	buf := make([]byte, 1)
	err := tr.ReadReg(context.Background(), 0x34, buf)
	assert.NoError(t, err)
	// register pointer write, then a separate read
	assert.Equal(t, [][]byte{{0x23, 0x34}}, bus.writes)
	assert.Equal(t, 1, bus.reads)
	assert.Equal(t, []byte{0x80}, buf)
}

func TestTransport_ReadCombined(t *testing.T) {
	bus := &txBus{}
	bus.response = []byte{0x12, 0x34, 0x56}
	tr := NewTransport(bus, 0)

	buf := make([]byte, 3)
	err := tr.ReadReg(context.Background(), 0x24, buf)
	assert.NoError(t, err)
	// the combined transaction is preferred, no separate write/read
	assert.Equal(t, [][]byte{{DefaultAddr, 0x24}}, bus.txW)
	assert.Empty(t, bus.writes)
	assert.Equal(t, 0, bus.reads)
	assert.Equal(t, []byte{0x12, 0x34, 0x56}, buf)
}

func TestTransport_Errors(t *testing.T) {
	fault := errors.New("nack")
	bus := &splitBus{err: fault}
	tr := NewTransport(bus, 0)

	err := tr.WriteReg(context.Background(), 0x00, []byte{0x70})
	assert.ErrorIs(t, err, fault)

	err = tr.ReadReg(context.Background(), 0x34, make([]byte, 1))
	assert.ErrorIs(t, err, fault)
}
