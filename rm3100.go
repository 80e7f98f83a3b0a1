package rm3100

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"
)

// Register map (PNI RM3100 datasheet, all multi-byte fields big-endian)
const (
	regPoll   byte = 0x00 // single measurement trigger
	regCMM    byte = 0x01 // continuous measurement mode
	regCCX    byte = 0x04 // cycle counts, 3x16-bit fields (X, Y, Z)
	regTMRC   byte = 0x0B // continuous mode sample rate
	regMX     byte = 0x24 // measurement results, 3x24-bit fields (X, Y, Z)
	regStatus byte = 0x34 // data ready status
)

const (
	pollAllAxes byte = 0x70 // PMX | PMY | PMZ
	cmmAllAxes  byte = 0x79 // START + CMX | CMY | CMZ
	cmmStop     byte = 0x70
	tmrcBase    byte = 0x92 // 600 Hz, each increment halves the rate
	statusDRDY  byte = 0x80

	// TMRC supports 600 Hz down to ~0.0075 Hz in power-of-two steps
	maxRateExponent = 13
	maxFrequency    = 600.0
)

const (
	// measurement duration per oscillation cycle, all three axes
	cycleDuration = 36 * time.Microsecond
	// µT per lsb per cycle count
	utPerCycle = 2.5
)

const DefaultCycleCount = 200
const DefaultPollInterval = 10 * time.Millisecond

var ErrCycleCount = fmt.Errorf("rm3100: cycle count must be between 1 and 65535")
var ErrFrequency = fmt.Errorf("rm3100: frequency must be positive")
var ErrNotContinuous = fmt.Errorf("rm3100: not in continuous mode (no reading pending)")

type Opts struct {
	CycleCount   int
	ReadyLine    ReadyLine
	PollInterval time.Duration
	WaitTimeout  time.Duration
}

type Opt func(*Opts)

// WithCycleCount sets the oscillation count per axis per measurement.
// Higher values lower the noise floor but lengthen each measurement
// (roughly 36µs per cycle). Valid range is 1-65535, default 200.
func WithCycleCount(count int) Opt {
	return func(o *Opts) {
		o.CycleCount = count
	}
}

// WithReadyLine attaches a DRDY line. When present, measurement completion is
// observed by reading the line level instead of polling the STATUS register.
// Polling over the bus generates electrical noise that degrades accuracy, so
// wiring DRDY is recommended for continuous mode.
func WithReadyLine(line ReadyLine) Opt {
	return func(o *Opts) {
		o.ReadyLine = line
	}
}

// WithPollInterval sets how often GetNextReading checks for completion when
// no DRDY line is configured. Default is 10ms.
func WithPollInterval(interval time.Duration) Opt {
	return func(o *Opts) {
		o.PollInterval = interval
	}
}

// WithWaitTimeout bounds the time GetNextReading waits for a measurement.
// Zero (the default) waits until the context is cancelled.
func WithWaitTimeout(timeout time.Duration) Opt {
	return func(o *Opts) {
		o.WaitTimeout = timeout
	}
}

// RM3100 represents the PNI RM3100 geomagnetic sensor. A driver instance
// owns its transport; accessing the same transport from elsewhere while the
// driver is in use requires external synchronization.
//
// Typical usage:
//
//	mag, err := rm3100.New(ctx, transport)
//	x, y, z, err := mag.Magnetic(ctx)
type RM3100 struct {
	mx         sync.Mutex
	continuous bool

	transport RegisterBus
	drdy      ReadyLine

	cycleCount   uint16
	pollInterval time.Duration
	waitTimeout  time.Duration

	buf [9]byte
}

// New configures the sensor and returns a driver in single-shot (idle) mode.
// The cycle count is written to the CCX block as the same 16-bit big-endian
// value for all three axes.
func New(ctx context.Context, transport RegisterBus, opts ...Opt) (*RM3100, error) {
	config := Opts{
		CycleCount:   DefaultCycleCount,
		PollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.CycleCount < 1 || config.CycleCount > 0xFFFF {
		return nil, ErrCycleCount
	}
	d := &RM3100{
		transport:    transport,
		drdy:         config.ReadyLine,
		cycleCount:   uint16(config.CycleCount),
		pollInterval: config.PollInterval,
		waitTimeout:  config.WaitTimeout,
	}
	var cycles [6]byte
	binary.BigEndian.PutUint16(cycles[0:2], d.cycleCount)
	binary.BigEndian.PutUint16(cycles[2:4], d.cycleCount)
	binary.BigEndian.PutUint16(cycles[4:6], d.cycleCount)
	if err := transport.WriteReg(ctx, regCCX, cycles[:]); err != nil {
		return nil, fmt.Errorf("rm3100: could not write cycle counts: %w", err)
	}
	return d, nil
}

// CycleCount returns the configured oscillation count per axis.
func (d *RM3100) CycleCount() uint16 {
	return d.cycleCount
}

// MeasurementTime is the time a single measurement takes to become valid
// after triggering, proportional to the cycle count.
func (d *RM3100) MeasurementTime() time.Duration {
	return cycleDuration * time.Duration(d.cycleCount)
}

// Continuous reports whether the device is in continuous measurement mode.
func (d *RM3100) Continuous() bool {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.continuous
}

// StartSingleReading triggers one measurement cycle on all three axes and
// returns immediately. The result is valid after MeasurementTime.
func (d *RM3100) StartSingleReading(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.transport.WriteReg(ctx, regPoll, []byte{pollAllAxes}); err != nil {
		return fmt.Errorf("rm3100: could not trigger measurement: %w", err)
	}
	return nil
}

// StartContinuousReading puts the device in free-running mode at the nearest
// supported rate. Valid rates are 600Hz down to ~0.0075Hz in power-of-two
// steps; the requested frequency is rounded to the closest one. Note that a
// large cycle count can cap the effective rate below the requested one when
// a single measurement takes longer than the sample interval; the device
// resolves that on its own.
func (d *RM3100) StartContinuousReading(ctx context.Context, frequency float64) error {
	if frequency <= 0 {
		return ErrFrequency
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.transport.WriteReg(ctx, regTMRC, []byte{tmrcValue(frequency)}); err != nil {
		return fmt.Errorf("rm3100: could not set sample rate: %w", err)
	}
	if err := d.transport.WriteReg(ctx, regCMM, []byte{cmmAllAxes}); err != nil {
		return fmt.Errorf("rm3100: could not enable continuous mode: %w", err)
	}
	d.continuous = true
	return nil
}

// Stop leaves continuous mode and returns the device to idle. Safe to call
// when already idle.
func (d *RM3100) Stop(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.stop(ctx)
}

func (d *RM3100) stop(ctx context.Context) error {
	// the flag is cleared even on a failed write so that cleanup does not
	// retry a dead bus
	d.continuous = false
	if err := d.transport.WriteReg(ctx, regCMM, []byte{cmmStop}); err != nil {
		return fmt.Errorf("rm3100: could not disable continuous mode: %w", err)
	}
	return nil
}

// Close stops continuous mode if it is active. The transport error, if any,
// is returned so callers can decide whether teardown failures matter; the
// driver itself always ends up idle.
func (d *RM3100) Close(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if !d.continuous {
		return nil
	}
	return d.stop(ctx)
}

// MeasurementComplete reports whether the most recent measurement has
// finished, reading the DRDY line when one is configured and the STATUS
// register (bit 7) otherwise.
func (d *RM3100) MeasurementComplete(ctx context.Context) (bool, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.measurementComplete(ctx)
}

func (d *RM3100) measurementComplete(ctx context.Context) (bool, error) {
	if d.drdy != nil {
		ready, err := d.drdy.Ready(ctx)
		if err != nil {
			return false, fmt.Errorf("rm3100: could not read DRDY line: %w", err)
		}
		return ready, nil
	}
	var status [1]byte
	if err := d.transport.ReadReg(ctx, regStatus, status[:]); err != nil {
		return false, fmt.Errorf("rm3100: could not read status: %w", err)
	}
	return status[0]&statusDRDY != 0, nil
}

// GetLastReading returns the most recent raw measurement without waiting for
// completion. The caller is responsible for making sure a valid reading
// exists. Values are signed 24-bit counts.
func (d *RM3100) GetLastReading(ctx context.Context) (int32, int32, int32, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.getLastReading(ctx)
}

func (d *RM3100) getLastReading(ctx context.Context) (int32, int32, int32, error) {
	if err := d.transport.ReadReg(ctx, regMX, d.buf[:]); err != nil {
		return 0, 0, 0, fmt.Errorf("rm3100: could not read measurement: %w", err)
	}
	x := signExtend24(uint32(d.buf[0])<<16 | uint32(d.buf[1])<<8 | uint32(d.buf[2]))
	y := signExtend24(uint32(d.buf[3])<<16 | uint32(d.buf[4])<<8 | uint32(d.buf[5]))
	z := signExtend24(uint32(d.buf[6])<<16 | uint32(d.buf[7])<<8 | uint32(d.buf[8]))
	return x, y, z, nil
}

// GetNextReading blocks until the pending continuous-mode measurement
// completes, then returns it. Returns ErrNotContinuous when the device is
// idle, since no reading would ever arrive. The wait honors ctx cancellation
// and the optional WithWaitTimeout bound.
func (d *RM3100) GetNextReading(ctx context.Context) (int32, int32, int32, error) {
	if !d.Continuous() {
		return 0, 0, 0, ErrNotContinuous
	}
	return d.waitReading(ctx)
}

// Magnetic returns the field strength on X, Y and Z in µT. In idle mode it
// triggers a single measurement and waits MeasurementTime for it; in
// continuous mode it returns the next reading as it arrives.
func (d *RM3100) Magnetic(ctx context.Context) (float64, float64, float64, error) {
	if !d.Continuous() {
		if err := d.StartSingleReading(ctx); err != nil {
			return 0, 0, 0, err
		}
		if err := sleep(ctx, d.MeasurementTime()); err != nil {
			return 0, 0, 0, err
		}
	}
	x, y, z, err := d.waitReading(ctx)
	if err != nil {
		return 0, 0, 0, err
	}
	mx, my, mz := d.ConvertToMicroteslas(x, y, z)
	return mx, my, mz, nil
}

// ConvertToMicroteslas converts a raw reading to µT. The scale depends on
// the configured cycle count.
func (d *RM3100) ConvertToMicroteslas(x, y, z int32) (float64, float64, float64) {
	factor := utPerCycle / float64(d.cycleCount)
	return float64(x) * factor, float64(y) * factor, float64(z) * factor
}

func (d *RM3100) waitReading(ctx context.Context) (int32, int32, int32, error) {
	if d.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.waitTimeout)
		defer cancel()
	}
	for {
		done, err := d.MeasurementComplete(ctx)
		if err != nil {
			return 0, 0, 0, err
		}
		if done {
			return d.GetLastReading(ctx)
		}
		if err := sleep(ctx, d.pollInterval); err != nil {
			return 0, 0, 0, err
		}
	}
}

func sleep(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// tmrcValue maps a requested frequency to the TMRC register code. The rate
// divider is a power of two: code 0x92 is 600Hz, 0x93 is 300Hz and so on
// down to 0x9F.
func tmrcValue(frequency float64) byte {
	exponent := math.Round(math.Log2(maxFrequency / frequency))
	if exponent < 0 {
		exponent = 0
	}
	if exponent > maxRateExponent {
		exponent = maxRateExponent
	}
	return tmrcBase + byte(exponent)
}

// signExtend24 reinterprets a 24-bit field as two's complement.
func signExtend24(value uint32) int32 {
	if value >= 0x800000 {
		return int32(value) - 0x1000000
	}
	return int32(value)
}
