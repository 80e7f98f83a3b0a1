// Package gpio provides DRDY line adapters for the rm3100 driver. The RM3100
// raises DRDY when a measurement completes; reading the line instead of
// polling the STATUS register keeps bus traffic (and the electrical noise it
// causes) away from the measurement.
package gpio

import (
	"context"
	"fmt"

	"github.com/gophertribe/rm3100"
	"github.com/warthog618/go-gpiocdev"
)

var _ rm3100.ReadyLine = &CdevLine{}

// CdevLine reads DRDY through the Linux GPIO character device.
type CdevLine struct {
	line *gpiocdev.Line
}

// NewCdevLine requests the given line offset on a gpiochip (e.g. "gpiochip0")
// as an input.
func NewCdevLine(chip string, offset int) (*CdevLine, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsInput)
	if err != nil {
		return nil, fmt.Errorf("could not request line %d on %s: %w", offset, chip, err)
	}
	return &CdevLine{line: line}, nil
}

func (l *CdevLine) Ready(ctx context.Context) (bool, error) {
	value, err := l.line.Value()
	if err != nil {
		return false, fmt.Errorf("could not read line value: %w", err)
	}
	return value != 0, nil
}

func (l *CdevLine) Close() error {
	return l.line.Close()
}
