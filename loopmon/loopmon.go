// Package loopmon classifies the state of the current loop once per tick.
//
// The classification is a pure function of the tick's inputs, except for the
// blink counter that makes the BREAK indicator flash while the output is off.
// The BREAK bit therefore means either "loop open" (output on) or "output
// off" (blinking); indicator logic downstream treats both the same.
package loopmon

import "loopcal-go/x/mathx"

// Status is a bitmask. The zero value is OK.
type Status uint8

const (
	OK    Status = 0
	Break Status = 1 << 0
	Error Status = 1 << 1
)

func (s Status) Break() bool { return s&Break != 0 }
func (s Status) Error() bool { return s&Error != 0 }

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case Break:
		return "break"
	case Error:
		return "error"
	default:
		return "break|error"
	}
}

// Config holds the monitor thresholds. Currents are in µA; BlinkPeriod is in
// ticks.
type Config struct {
	BlinkPeriod    int32
	BreakThreshold int32
	ErrorThreshold int32
}

func DefaultConfig() Config {
	return Config{BlinkPeriod: 25, BreakThreshold: 50, ErrorThreshold: 500}
}

// Inputs is everything one classification looks at.
type Inputs struct {
	Normal        bool // false in calibration/service mode
	OutputEnabled bool
	Waveform      bool // output in waveform mode rather than constant
	Setpoint      int32
	WaveMin       int32
	WaveMax       int32
	Current       int32
}

type Monitor struct {
	cfg    Config
	blink  int32
	status Status
}

func New(cfg Config) *Monitor {
	m := &Monitor{}
	m.SetConfig(cfg)
	return m
}

// SetConfig replaces the thresholds. The blink counter restarts if it no
// longer fits the period.
func (m *Monitor) SetConfig(cfg Config) {
	if cfg.BlinkPeriod < 2 {
		cfg.BlinkPeriod = DefaultConfig().BlinkPeriod
	}
	m.cfg = cfg
	if m.blink >= cfg.BlinkPeriod {
		m.blink = 0
	}
}

func (m *Monitor) Config() Config      { return m.cfg }
func (m *Monitor) Status() Status      { return m.status }
func (m *Monitor) BlinkCounter() int32 { return m.blink }

// Update recomputes the status from scratch for this tick.
func (m *Monitor) Update(in Inputs) Status {
	st := OK
	if !in.Normal {
		m.status = st
		return st
	}

	// Break, or the "output off" blink.
	if in.OutputEnabled {
		if in.Current <= m.cfg.BreakThreshold {
			st |= Break
		}
		m.blink = 0
	} else {
		if m.blink < m.cfg.BlinkPeriod-1 {
			m.blink++
		} else {
			m.blink = 0
		}
		if m.blink < m.cfg.BlinkPeriod/2 {
			st |= Break
		}
	}

	// Error.
	thr := m.cfg.ErrorThreshold
	switch {
	case !in.OutputEnabled:
		if in.Current > thr {
			st |= Error
		}
	case in.Waveform:
		// Bounds are not reordered: an inverted band flags every reading.
		if in.Current < in.WaveMin-thr || in.Current > in.WaveMax+thr {
			st |= Error
		}
	default:
		if mathx.Abs(in.Current-in.Setpoint) > thr {
			st |= Error
		}
	}

	m.status = st
	return st
}
