// Package adapter contains USB bus adapters that expose the raw buses the
// rm3100 transports run on. The only adapter implemented so far is the
// Microchip MCP2221(A) USB-to-I2C/GPIO bridge.
package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/gophertribe/rm3100"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

var ErrCommandFailed = errors.New("command failed")

var _ rm3100.I2CBus = &MCP2221{}

// MCP2221 drives the I2C engine and GPIO pins of an MCP2221 bridge over USB
// HID. Each bus operation opens the HID device, performs one 64-byte
// command/response exchange and closes it again.
type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration
}

type Status struct {
	I2CDataBufferCounter   int
	I2CSpeedDivider        int
	I2CTimeout             int
	CurrentAddress         string
	LastWriteRequestedSize uint16
	LastWriteSentSize      uint16
	ReadPending            int
}

func NewMCP2221() *MCP2221 {
	return &MCP2221{
		request:      make([]byte, 64),
		response:     make([]byte, 64),
		responseWait: 50 * time.Millisecond,
	}
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = 0x90
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	if len(buffer) > 0 {
		copy(d.request[4:], buffer)
	}
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("write to %x failed: %w", address, err)
	}
	if d.response[1] == 0x01 {
		slog.Debug("mcp2221 adapter busy")
		return rm3100.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = 0x91
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 + 1
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	d.request[0] = 0x40
	resetBuffer(d.response)
	err = d.send(ctx)
	if err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	if d.response[1] == 0x41 {
		return fmt.Errorf("error reading the I2C slave data from the I2C engine")
	}
	if d.response[3] == 127 || int(d.response[3]) != len(buffer) {
		return fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), d.response[3])
	}

	copy(buffer, d.response[4:])
	return nil
}

// ReadPin returns the logical level of one of the four GP pins. The pin has
// to be configured as a GPIO input beforehand (command 0xB1, or permanently
// through flash settings).
func (d *MCP2221) ReadPin(ctx context.Context, pin int) (bool, error) {
	if pin < 0 || pin > 3 {
		return false, fmt.Errorf("invalid GP pin %d", pin)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = 0x51
	err := d.send(ctx)
	if err != nil {
		return false, fmt.Errorf("read GPIO values command write failed: %w", err)
	}
	if d.response[1] == 0x01 {
		return false, ErrCommandFailed
	}
	// pin values sit at even offsets starting at byte 2
	value := d.response[2+pin*2]
	if value == 0xEE {
		return false, fmt.Errorf("GP pin %d is not in GPIO mode", pin)
	}
	return value != 0, nil
}

// ReadyPin exposes a GP pin as a DRDY line for the driver.
func (d *MCP2221) ReadyPin(pin int) rm3100.ReadyLine {
	return readyPin{adapter: d, pin: pin}
}

type readyPin struct {
	adapter *MCP2221
	pin     int
}

func (r readyPin) Ready(ctx context.Context) (bool, error) {
	return r.adapter.ReadPin(ctx, r.pin)
}

func (d *MCP2221) Status(ctx context.Context) (*Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = 0x10
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func bufferToStatus(buffer []byte) *Status {
	/*
		9: Lower byte (16-bit value) of the requested I2C transfer length
		10: Higher byte (16-bit value) of the requested I2C transfer length
		11:	Lower byte (16-bit value) of the already transferred (through I2C) number of bytes
		12:	Higher byte (16-bit value) of the already transferred (through I2C) number of bytes
		13:	Internal I2C data buffer counter
		14: Current I2C communication speed divider value
		15: Current I2C timeout value
		16:	Lower byte (16-bit value) of the I2C address being used
		17:	Higher byte (16-bit value) of the I2C address being used
	*/
	status := &Status{
		I2CDataBufferCounter: int(buffer[13]),
		I2CSpeedDivider:      int(buffer[14]),
		I2CTimeout:           int(buffer[15]),
		ReadPending:          int(buffer[25]),
		CurrentAddress:       hex.EncodeToString(buffer[16:18]),
	}
	status.LastWriteRequestedSize = binary.LittleEndian.Uint16(buffer[9:11])
	status.LastWriteSentSize = binary.LittleEndian.Uint16(buffer[11:13])
	return status
}

// Release cancels any pending transfer and frees the I2C engine.
func (d *MCP2221) Release(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = 0x10
	d.request[2] = 0x10
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("bus release failed: %w", err)
	}
	return nil
}

func (d *MCP2221) send(ctx context.Context) error {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return fmt.Errorf("MCP2221 device not found")
	}
	if len(devs) > 1 {
		return fmt.Errorf("ambiguous device identification")
	}
	dev, err := devs[0].Open()
	if err != nil {
		return fmt.Errorf("error opening device: %w", err)
	}
	defer func() {
		_ = dev.Close()
	}()
	slog.Debug("sending message to adapter", "request", hex.Dump(d.request))
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short write: %d", n)
	}
	time.Sleep(d.responseWait)
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short read: %d", n)
	}
	slog.Debug("read message from adapter", "response", hex.Dump(d.response))
	return nil
}

func (d *MCP2221) resetBuffers() {
	resetBuffer(d.request)
	resetBuffer(d.response)
}

func resetBuffer(buf []byte) {
	for i := 0; i < len(buf)-1; i++ {
		buf[i] = 0x00
	}
}
