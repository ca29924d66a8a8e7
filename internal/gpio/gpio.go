// Package gpio provides the digital output lines that drive a shift register
// chain. The real implementation uses the Linux GPIO character device.
// The fake implementation records every transition for tests.
package gpio

// Output is a single digital output line.
type Output interface {
	High() error
	Low() error
}

// Default wiring (BCM numbering): the last three pins on the bottom right
// of the Raspberry Pi header.
const (
	DefaultChip     = "gpiochip0"
	DefaultPinData  = 21
	DefaultPinLatch = 20
	DefaultPinClock = 16
)
