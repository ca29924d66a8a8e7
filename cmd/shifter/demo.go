package main

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/shift-chain/internal/shift"
)

var (
	loops int
	delay time.Duration
)

var blinkCmd = &cobra.Command{
	Use:   "blink",
	Short: "Toggle every pin of register 0 on and off",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withShifter(func(s *shift.Shifter) error {
			return blink(s, loops, delay, time.Sleep)
		})
	},
}

var multiblinkCmd = &cobra.Command{
	Use:   "multiblink",
	Short: "Toggle every pin of every register, one apply per step",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withShifter(func(s *shift.Shifter) error {
			return multiblink(s, loops, delay, time.Sleep)
		})
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Walk a single high pin across every register",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withShifter(func(s *shift.Shifter) error {
			return toggle(s, loops, delay, time.Sleep)
		})
	},
}

var setCmd = &cobra.Command{
	Use:   "set REGISTER DATA",
	Short: "Set one register and apply (other registers are cleared)",
	Long: `Set the state of one register and shift the whole chain out.
DATA accepts Go integer literal syntax: 255, 0xff, 0b11111111.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, data, err := parseSetArgs(args)
		if err != nil {
			return err
		}
		return withShifter(func(s *shift.Shifter) error {
			return s.Set(index, data, true)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{blinkCmd, multiblinkCmd, toggleCmd} {
		c.Flags().IntVarP(&loops, "loops", "n", 2, "number of loops")
		c.Flags().DurationVarP(&delay, "delay", "d", time.Second, "delay between steps")
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(setCmd)
}

func withShifter(fn func(s *shift.Shifter) error) error {
	s, closer, err := openShifter()
	if err != nil {
		return err
	}
	defer closer.Close()
	return fn(s)
}

func parseSetArgs(args []string) (int, uint64, error) {
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("register %q: %w", args[0], err)
	}
	data, err := strconv.ParseUint(args[1], 0, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("data %q: %w", args[1], err)
	}
	return index, data, nil
}

// allOn is masked down to each register's width by Set.
const allOn = ^uint64(0)

// blink applies every change immediately; fine for a single register.
func blink(s *shift.Shifter, loops int, delay time.Duration, sleep func(time.Duration)) error {
	log.Printf("looping %d times", loops)
	for i := 1; i <= loops; i++ {
		log.Printf("loop %d: all on", i)
		if err := s.Set(0, allOn, true); err != nil {
			return err
		}
		sleep(delay)
		log.Printf("loop %d: all off", i)
		if err := s.Set(0, 0, true); err != nil {
			return err
		}
		sleep(delay)
	}
	return nil
}

// multiblink defers every change and applies once per step so the whole
// chain switches together without flicker.
func multiblink(s *shift.Shifter, loops int, delay time.Duration, sleep func(time.Duration)) error {
	setAll := func(data uint64) error {
		for i := 0; i < s.Len(); i++ {
			if err := s.Set(i, data, false); err != nil {
				return err
			}
		}
		return s.Apply()
	}

	log.Printf("looping %d times over %d registers", loops, s.Len())
	for i := 1; i <= loops; i++ {
		log.Printf("loop %d: all on", i)
		if err := setAll(allOn); err != nil {
			return err
		}
		sleep(delay)
		log.Printf("loop %d: all off", i)
		if err := setAll(0); err != nil {
			return err
		}
		sleep(delay)
	}
	return nil
}

// toggle drives each pin high then low in turn using the per-pin API.
func toggle(s *shift.Shifter, loops int, delay time.Duration, sleep func(time.Duration)) error {
	for i := 0; i < loops; i++ {
		for _, r := range indexedRegisters(s) {
			for pin := 0; pin < r.Width; pin++ {
				log.Printf("register %d pin %d high", r.index, pin)
				if err := s.SetPinHigh(r.index, pin, true); err != nil {
					return err
				}
				sleep(delay)
				log.Printf("register %d pin %d low", r.index, pin)
				if err := s.SetPinLow(r.index, pin, true); err != nil {
					return err
				}
				sleep(delay)
			}
		}
	}
	return nil
}

type indexedRegister struct {
	shift.Register
	index int
}

func indexedRegisters(s *shift.Shifter) []indexedRegister {
	regs := s.Registers()
	out := make([]indexedRegister, len(regs))
	for i, r := range regs {
		out[i] = indexedRegister{Register: r, index: i}
	}
	return out
}
