// Package shift drives a chain of serial-in/parallel-out shift registers
// (74HC595 and similar) from three digital output lines: data, latch and clock.
//
// The Shifter keeps the state of every register in memory so single pins can
// be changed without disturbing their neighbours. Changes are only pushed to
// the hardware by Apply, which lets callers batch many changes into a single
// latch cycle and avoid flicker.
//
// A Shifter is not safe for concurrent use.
package shift

import (
	"errors"
	"fmt"
)

// Line is a single digital output.
type Line interface {
	High() error
	Low() error
}

var (
	// ErrNoRegister is returned for an index that Add never handed out.
	ErrNoRegister = errors.New("shift: no such register")

	// ErrPinRange is returned for a pin outside [0, width) of its register.
	ErrPinRange = errors.New("shift: pin out of range")

	// ErrWidth is returned by Add for widths outside 1..MaxWidth.
	ErrWidth = errors.New("shift: invalid register width")

	// ErrChainLength is returned by CheckLength on a mismatch.
	ErrChainLength = errors.New("shift: chain length mismatch")
)

// Shifter owns the three control lines and the ordered chain of registers.
type Shifter struct {
	data  Line
	latch Line
	clock Line

	regs   []Register
	invert bool
}

// New returns a Shifter with an empty chain. The Shifter takes ownership of
// the lines; nothing else should drive them afterwards.
func New(data, latch, clock Line) *Shifter {
	return &Shifter{
		data:  data,
		latch: latch,
		clock: clock,
	}
}

// Add starts tracking another register with the given number of pins and
// returns its index. Indices count up from 0 in call order.
//
// Registers are shifted out in the order they were added, so the register
// physically furthest from the controller must be added first and the one
// wired to the data line last.
func (s *Shifter) Add(width int) (int, error) {
	if width < 1 || width > MaxWidth {
		return 0, fmt.Errorf("%w: %d", ErrWidth, width)
	}
	s.regs = append(s.regs, Register{Width: width})
	return len(s.regs) - 1, nil
}

// Set replaces the whole state of register index. If apply is true the chain
// is shifted out before returning.
func (s *Shifter) Set(index int, data uint64, apply bool) error {
	r, err := s.register(index)
	if err != nil {
		return err
	}
	r.set(data)
	return s.maybeApply(apply)
}

// SetPinHigh drives one pin of register index high, leaving the others alone.
func (s *Shifter) SetPinHigh(index, pin int, apply bool) error {
	r, err := s.pin(index, pin)
	if err != nil {
		return err
	}
	r.set(r.State | 1<<uint(pin))
	return s.maybeApply(apply)
}

// SetPinLow drives one pin of register index low, leaving the others alone.
func (s *Shifter) SetPinLow(index, pin int, apply bool) error {
	r, err := s.pin(index, pin)
	if err != nil {
		return err
	}
	r.set(r.State &^ (1 << uint(pin)))
	return s.maybeApply(apply)
}

// Invert swaps the meaning of high and low for every bit shifted out. Useful
// when the outputs are wired active-low. Takes effect on the next Apply.
func (s *Shifter) Invert() {
	s.invert = !s.invert
}

// Inverted reports whether polarity is currently inverted.
func (s *Shifter) Inverted() bool {
	return s.invert
}

// Len returns the number of registers in the chain.
func (s *Shifter) Len() int {
	return len(s.regs)
}

// Register returns a copy of register index.
func (s *Shifter) Register(index int) (Register, error) {
	r, err := s.register(index)
	if err != nil {
		return Register{}, err
	}
	return *r, nil
}

// Registers returns a copy of the chain in insertion order.
func (s *Shifter) Registers() []Register {
	out := make([]Register, len(s.regs))
	copy(out, s.regs)
	return out
}

// TotalBits returns the number of clock pulses one Apply issues.
func (s *Shifter) TotalBits() int {
	n := 0
	for _, r := range s.regs {
		n += r.Width
	}
	return n
}

// CheckLength verifies that the registers added so far account for exactly
// bits outputs. Use it to catch a chain configured differently from the
// hardware it drives.
func (s *Shifter) CheckLength(bits int) error {
	if got := s.TotalBits(); got != bits {
		return fmt.Errorf("%w: configured %d bits, hardware has %d", ErrChainLength, got, bits)
	}
	return nil
}

// Apply shifts the state of every register out through the data line and
// latches it onto the outputs. Registers go out in insertion order, pin 0
// first, one clock pulse per pin.
//
// A line failure stops the transfer immediately; the outputs may be left
// mid-shift until the next successful Apply.
func (s *Shifter) Apply() error {
	if err := s.latch.Low(); err != nil {
		return fmt.Errorf("latch low: %w", err)
	}
	for i, r := range s.regs {
		for n := 0; n < r.Width; n++ {
			if err := s.clock.Low(); err != nil {
				return fmt.Errorf("register %d pin %d: clock low: %w", i, n, err)
			}
			if err := s.drive(r.State>>uint(n)&1 == 1); err != nil {
				return fmt.Errorf("register %d pin %d: data: %w", i, n, err)
			}
			if err := s.clock.High(); err != nil {
				return fmt.Errorf("register %d pin %d: clock high: %w", i, n, err)
			}
		}
	}
	if err := s.latch.High(); err != nil {
		return fmt.Errorf("latch high: %w", err)
	}
	return nil
}

func (s *Shifter) drive(level bool) error {
	if s.invert {
		level = !level
	}
	if level {
		return s.data.High()
	}
	return s.data.Low()
}

func (s *Shifter) maybeApply(apply bool) error {
	if !apply {
		return nil
	}
	return s.Apply()
}

func (s *Shifter) register(index int) (*Register, error) {
	if index < 0 || index >= len(s.regs) {
		return nil, fmt.Errorf("%w: %d", ErrNoRegister, index)
	}
	return &s.regs[index], nil
}

func (s *Shifter) pin(index, pin int) (*Register, error) {
	r, err := s.register(index)
	if err != nil {
		return nil, err
	}
	if pin < 0 || pin >= r.Width {
		return nil, fmt.Errorf("%w: pin %d of %d-pin register %d", ErrPinRange, pin, r.Width, index)
	}
	return r, nil
}
