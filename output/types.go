package output

import "loopcal-go/errcode"

// Mode selects between a constant setpoint and a cyclic waveform.
type Mode uint8

const (
	ModeConst Mode = iota
	ModeWaveform
)

func (m Mode) String() string {
	if m == ModeWaveform {
		return "wave"
	}
	return "const"
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "const":
		return ModeConst, nil
	case "wave":
		return ModeWaveform, nil
	}
	return ModeConst, errcode.InvalidParams
}

// Waveform is one of the four supported shapes.
type Waveform uint8

const (
	Meandr      Waveform = iota // low first half, high second half
	SawDirect                   // min to max
	SawReversed                 // max to min
	Triangular                  // up first half, down second half
)

var waveNames = [...]string{"meandr", "saw", "saw_rev", "tri"}

func (w Waveform) String() string {
	if int(w) < len(waveNames) {
		return waveNames[w]
	}
	return "unknown"
}

func ParseWaveform(s string) (Waveform, error) {
	for i, n := range waveNames {
		if n == s {
			return Waveform(i), nil
		}
	}
	return Meandr, errcode.InvalidParams
}

// TerminalPolicy decides what a finished waveform run does with the output.
type TerminalPolicy uint8

const (
	TerminalDisable TerminalPolicy = iota // output off, counters frozen
	TerminalHold                          // output held at the end-of-period value
)

func (p TerminalPolicy) String() string {
	if p == TerminalHold {
		return "hold"
	}
	return "disable"
}

func ParseTerminalPolicy(s string) (TerminalPolicy, error) {
	switch s {
	case "disable":
		return TerminalDisable, nil
	case "hold":
		return TerminalHold, nil
	}
	return TerminalDisable, errcode.InvalidParams
}

// Limits enforced by the setters.
const (
	ProfileCount = 2

	MinSetting int32 = 100   // µA
	MaxSetting int32 = 24000 // µA

	PeriodMin int32 = 100    // ms
	PeriodMax int32 = 500000 // ms

	CyclesMin int32 = 1
	CyclesMax int32 = 99999
)

// Config is the complete output configuration. CurrentCycle is 1-based.
type Config struct {
	Setpoints     [ProfileCount]int32
	ActiveProfile int
	Mode          Mode
	Waveform      Waveform
	PeriodMs      int32
	WaveMin       int32
	WaveMax       int32
	TotalCycles   int32
	CurrentCycle  int32
	OutputEnabled bool
	Finished      bool
}

// DefaultConfig is the power-on state.
func DefaultConfig() Config {
	var c Config
	for i := range c.Setpoints {
		c.Setpoints[i] = 4000
	}
	c.Mode = ModeConst
	c.Waveform = Meandr
	c.PeriodMs = 1500
	c.WaveMin = 4000
	c.WaveMax = 20000
	c.TotalCycles = 1
	c.CurrentCycle = 1
	return c
}

// Target is what the output stage should do this tick.
type Target struct {
	Value   int32 // µA
	Enabled bool
}
