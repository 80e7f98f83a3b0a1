package gpio

import (
	"context"
	"fmt"

	"github.com/gophertribe/rm3100"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

var _ rm3100.ReadyLine = &PeriphPin{}

// PeriphPin reads DRDY through a periph.io pin, for setups already using a
// periph bus for the sensor itself.
type PeriphPin struct {
	pin gpio.PinIn
}

// NewPeriphPin looks the pin up by name in the periph registry and
// configures it as a floating input.
func NewPeriphPin(name string) (*PeriphPin, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("unknown gpio pin %q", name)
	}
	if err := pin.In(gpio.Float, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("could not configure pin %q as input: %w", name, err)
	}
	return &PeriphPin{pin: pin}, nil
}

// NewPeriphPinFrom wraps an already configured input pin.
func NewPeriphPinFrom(pin gpio.PinIn) *PeriphPin {
	return &PeriphPin{pin: pin}
}

func (p *PeriphPin) Ready(ctx context.Context) (bool, error) {
	return p.pin.Read() == gpio.High, nil
}
