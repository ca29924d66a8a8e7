package gpio

// Line names used in a Trace.
const (
	LineData  = "data"
	LineLatch = "latch"
	LineClock = "clock"
)

// Transition is one recorded drive of a fake line.
type Transition struct {
	Line string
	High bool
}

// Trace is the ordered record of every drive across the lines of a FakeChain.
type Trace struct {
	Transitions []Transition
}

var _ Output = (*FakeLine)(nil)

// FakeLine is a test double that records drives into a shared Trace.
type FakeLine struct {
	Name string

	// Level is the last level driven.
	Level bool

	// Err, if set, is returned by High and Low and nothing is recorded.
	Err error

	trace *Trace
}

// High records a high drive.
func (f *FakeLine) High() error {
	return f.drive(true)
}

// Low records a low drive.
func (f *FakeLine) Low() error {
	return f.drive(false)
}

func (f *FakeLine) drive(high bool) error {
	if f.Err != nil {
		return f.Err
	}
	f.Level = high
	f.trace.Transitions = append(f.trace.Transitions, Transition{Line: f.Name, High: high})
	return nil
}

// FakeChain bundles fake data, latch and clock lines.
type FakeChain struct {
	Data  *FakeLine
	Latch *FakeLine
	Clock *FakeLine
	Trace *Trace
}

// NewFakeChain creates a FakeChain with an empty trace.
func NewFakeChain() *FakeChain {
	tr := &Trace{}
	return &FakeChain{
		Data:  &FakeLine{Name: LineData, trace: tr},
		Latch: &FakeLine{Name: LineLatch, trace: tr},
		Clock: &FakeLine{Name: LineClock, trace: tr},
		Trace: tr,
	}
}

// ClockPulses counts rising edges on the clock line.
func (c *FakeChain) ClockPulses() int {
	n := 0
	for _, t := range c.Trace.Transitions {
		if t.Line == LineClock && t.High {
			n++
		}
	}
	return n
}

// Frames returns the data levels captured on each clock rising edge, grouped
// by latch window. Only windows closed by a latch high are returned.
func (c *FakeChain) Frames() [][]bool {
	var (
		frames [][]bool
		cur    []bool
		open   bool
		data   bool
	)
	for _, t := range c.Trace.Transitions {
		switch t.Line {
		case LineData:
			data = t.High
		case LineClock:
			if t.High && open {
				cur = append(cur, data)
			}
		case LineLatch:
			if !t.High {
				cur = []bool{}
				open = true
			} else if open {
				frames = append(frames, cur)
				open = false
			}
		}
	}
	return frames
}

// Reset clears the trace and line levels.
func (c *FakeChain) Reset() {
	c.Trace.Transitions = nil
	c.Data.Level = false
	c.Latch.Level = false
	c.Clock.Level = false
}

// Cascade models where a latched frame ends up on a physical cascade of
// shift registers. widths lists the chips starting with the one wired to the
// data line. Bit j of each returned word is the j-th bit shifted into that
// chip. Chips the frame is too short to reach are left zero.
func Cascade(frame []bool, widths ...int) []uint64 {
	out := make([]uint64, len(widths))
	end := len(frame)
	for k, w := range widths {
		start := end - w
		if start < 0 {
			break
		}
		for j := 0; j < w; j++ {
			if frame[start+j] {
				out[k] |= 1 << uint(j)
			}
		}
		end = start
	}
	return out
}
