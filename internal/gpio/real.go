//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

var _ Output = (*RealLine)(nil)

// RealLine is an output line on actual hardware.
type RealLine struct {
	name   string
	offset int
	line   *gpiocdev.Line
}

// High drives the line high.
func (l *RealLine) High() error {
	if err := l.line.SetValue(1); err != nil {
		return fmt.Errorf("set %s pin %d high: %w", l.name, l.offset, err)
	}
	return nil
}

// Low drives the line low.
func (l *RealLine) Low() error {
	if err := l.line.SetValue(0); err != nil {
		return fmt.Errorf("set %s pin %d low: %w", l.name, l.offset, err)
	}
	return nil
}

// RealChain holds the data, latch and clock lines of one shift register
// chain on a GPIO chip.
type RealChain struct {
	chip  *gpiocdev.Chip
	Data  *RealLine
	Latch *RealLine
	Clock *RealLine
}

// NewRealChain requests the three lines as outputs, initially low.
func NewRealChain(chipName string, pinData, pinLatch, pinClock int) (*RealChain, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	c := &RealChain{chip: chip}
	for _, req := range []struct {
		name   string
		offset int
		dst    **RealLine
	}{
		{"data", pinData, &c.Data},
		{"latch", pinLatch, &c.Latch},
		{"clock", pinClock, &c.Clock},
	} {
		line, err := chip.RequestLine(req.offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("shifter"))
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", req.name, req.offset, err)
		}
		*req.dst = &RealLine{name: req.name, offset: req.offset, line: line}
	}
	return c, nil
}

// Close releases the lines and the chip.
// Lines are reconfigured to input with pull-down (matching Pi boot defaults)
// so the chain is not left driven after shutdown.
func (c *RealChain) Close() error {
	var errs []error

	for _, l := range []*RealLine{c.Data, c.Latch, c.Clock} {
		if l == nil {
			continue
		}
		if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", l.name, err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", l.name, err))
		}
	}
	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
