//go:build !linux

package gpio

import "errors"

var _ Output = (*RealLine)(nil)

// RealLine is not available on non-Linux platforms.
type RealLine struct{}

// High is not implemented on non-Linux platforms.
func (l *RealLine) High() error {
	return errors.New("gpio: not supported")
}

// Low is not implemented on non-Linux platforms.
func (l *RealLine) Low() error {
	return errors.New("gpio: not supported")
}

// RealChain is not available on non-Linux platforms.
type RealChain struct {
	Data  *RealLine
	Latch *RealLine
	Clock *RealLine
}

// NewRealChain returns an error on non-Linux platforms.
func NewRealChain(chipName string, pinData, pinLatch, pinClock int) (*RealChain, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Close is not implemented on non-Linux platforms.
func (c *RealChain) Close() error {
	return nil
}
