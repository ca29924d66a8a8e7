package shift

import (
	"fmt"
	"strings"
)

// MaxWidth is the widest register a single state word can hold.
const MaxWidth = 64

// Register is one physical shift register in the chain.
type Register struct {
	// Width is the number of output pins on the chip.
	Width int
	// State holds the logical level of pin n in bit n, before inversion.
	State uint64
}

// set replaces the state. Bits at or above Width are dropped.
func (r *Register) set(state uint64) {
	r.State = state & r.mask()
}

func (r Register) mask() uint64 {
	if r.Width >= MaxWidth {
		return ^uint64(0)
	}
	return uint64(1)<<uint(r.Width) - 1
}

// Pin reports the logical level of pin n.
func (r Register) Pin(n int) bool {
	if n < 0 || n >= r.Width {
		return false
	}
	return r.State>>uint(n)&1 == 1
}

// String renders the state as zero-padded binary, e.g. 0b00001011.
func (r Register) String() string {
	bits := fmt.Sprintf("%b", r.State)
	if pad := r.Width - len(bits); pad > 0 {
		bits = strings.Repeat("0", pad) + bits
	}
	return "0b" + bits
}
