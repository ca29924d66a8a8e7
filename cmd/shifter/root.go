package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sweeney/shift-chain/internal/gpio"
	"github.com/sweeney/shift-chain/internal/shift"
)

var (
	chipName string
	pinData  int
	pinLatch int
	pinClock int
	widths   []int
	invert   bool
	bits     int
)

var rootCmd = &cobra.Command{
	Use:   "shifter",
	Short: "Drive daisy-chained shift registers from three GPIO lines",
	Long: `Drive one or more daisy-chained serial-in/parallel-out shift registers
(74HC595 and similar) from three GPIO output lines: data, latch and clock.

Registers are listed with --widths in the order they are added, which is the
REVERSE of the physical chain: the chip furthest from the Pi comes first and
the chip wired to the data pin comes last.

Examples:
  shifter blink                               # Blink every pin of one 8-pin register
  shifter multiblink --widths 8,8             # Blink two chained registers
  shifter set 1 0b10000001 --widths 8,8       # Set register 1 and apply
  shifter run --broker tcp://localhost:1883   # MQTT-controlled daemon`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&chipName, "chip", gpio.DefaultChip, "GPIO chip device name")
	f.IntVar(&pinData, "pin-data", gpio.DefaultPinData, "BCM pin number for the data line")
	f.IntVar(&pinLatch, "pin-latch", gpio.DefaultPinLatch, "BCM pin number for the latch line")
	f.IntVar(&pinClock, "pin-clock", gpio.DefaultPinClock, "BCM pin number for the clock line")
	f.IntSliceVar(&widths, "widths", []int{8}, "pins per register, furthest chip first")
	f.BoolVar(&invert, "invert", false, "invert output polarity (active-low wiring)")
	f.IntVar(&bits, "bits", 0, "expected total outputs on the chain (0 skips the check)")
}

// buildShifter adds the configured registers to a Shifter over the given lines.
func buildShifter(data, latch, clock shift.Line, widths []int, invert bool, bits int) (*shift.Shifter, error) {
	if len(widths) == 0 {
		return nil, fmt.Errorf("no registers configured")
	}
	s := shift.New(data, latch, clock)
	for _, w := range widths {
		if _, err := s.Add(w); err != nil {
			return nil, fmt.Errorf("add register: %w", err)
		}
	}
	if invert {
		s.Invert()
	}
	if bits > 0 {
		if err := s.CheckLength(bits); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// openShifter acquires the GPIO lines named by the flags.
func openShifter() (*shift.Shifter, io.Closer, error) {
	chain, err := gpio.NewRealChain(chipName, pinData, pinLatch, pinClock)
	if err != nil {
		return nil, nil, fmt.Errorf("init gpio: %w", err)
	}
	s, err := buildShifter(chain.Data, chain.Latch, chain.Clock, widths, invert, bits)
	if err != nil {
		chain.Close()
		return nil, nil, err
	}
	return s, chain, nil
}
