// Package simloop models a current loop for host builds: a DAC-driven
// current source feeding a resistive load, read back by a 12-bit ADC on two
// inputs (loop current and loop voltage). Faults can be injected.
//
// Loop implements both the converter sampler (Trigger/Collect) and the
// output stage (WriteCode/SetEnabled) used by the calibrator service.
package simloop

import (
	"sync"
	"time"

	"loopcal-go/errcode"
)

// Input channels.
const (
	ChCurrent uint8 = 0
	ChVoltage uint8 = 1
)

// Converter transfer functions: 3276 codes per 20 mA (current) and per 20 V
// (voltage) on a 12-bit converter.
const (
	codesPerFullScale = 3276
	fullScaleUA       = 20000
	fullScaleMV       = 20000
	maxCode           = 4095
)

var (
	ErrNotReady       = &errcode.E{C: errcode.NotReady, Op: "simloop"}
	ErrInvalidChannel = &errcode.E{C: errcode.InvalidChannel, Op: "simloop"}
)

type Config struct {
	LoadOhms     int32 // default 250
	ComplianceMV int32 // open-circuit voltage, default 24000
	// ConversionPolls is how many Collect calls report ErrNotReady after a
	// Trigger.
	ConversionPolls int
}

type Loop struct {
	mu sync.Mutex

	cfg     Config
	code    uint16
	enabled bool

	broken  bool
	leakUA  int32
	stalled bool

	pending [2]int // polls left per channel, -1 when idle
}

func New(cfg Config) *Loop {
	if cfg.LoadOhms <= 0 {
		cfg.LoadOhms = 250
	}
	if cfg.ComplianceMV <= 0 {
		cfg.ComplianceMV = 24000
	}
	if cfg.ConversionPolls < 0 {
		cfg.ConversionPolls = 0
	}
	return &Loop{cfg: cfg, pending: [2]int{-1, -1}}
}

// ---- fault injection ----

// SetBreak opens or closes the loop.
func (l *Loop) SetBreak(on bool) {
	l.mu.Lock()
	l.broken = on
	l.mu.Unlock()
}

// SetLeak adds a constant current that flows regardless of the output.
func (l *Loop) SetLeak(ua int32) {
	l.mu.Lock()
	l.leakUA = ua
	l.mu.Unlock()
}

func (l *Loop) SetLoad(ohms int32) {
	l.mu.Lock()
	if ohms > 0 {
		l.cfg.LoadOhms = ohms
	}
	l.mu.Unlock()
}

// SetStall makes every conversion hang until cleared.
func (l *Loop) SetStall(on bool) {
	l.mu.Lock()
	l.stalled = on
	l.mu.Unlock()
}

// ---- output stage ----

func (l *Loop) WriteCode(code uint16) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if code > maxCode {
		return errcode.InvalidParams
	}
	l.code = code
	return nil
}

func (l *Loop) SetEnabled(on bool) error {
	l.mu.Lock()
	l.enabled = on
	l.mu.Unlock()
	return nil
}

// ---- converter ----

func (l *Loop) Trigger(ch uint8) (time.Duration, error) {
	if ch > ChVoltage {
		return 0, ErrInvalidChannel
	}
	l.mu.Lock()
	l.pending[ch] = l.cfg.ConversionPolls
	l.mu.Unlock()
	return 0, nil
}

func (l *Loop) Collect(ch uint8) (uint16, error) {
	if ch > ChVoltage {
		return 0, ErrInvalidChannel
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.pending[ch] < 0:
		return 0, ErrInvalidChannel
	case l.stalled:
		return 0, ErrNotReady
	case l.pending[ch] > 0:
		l.pending[ch]--
		return 0, ErrNotReady
	}
	l.pending[ch] = -1
	if ch == ChCurrent {
		return toCode(l.currentUA(), fullScaleUA), nil
	}
	return toCode(l.voltageMV(), fullScaleMV), nil
}

// ---- model ----

func (l *Loop) currentUA() int32 {
	ua := l.leakUA
	if l.enabled && !l.broken {
		ua += int32(int64(l.code) * fullScaleUA / codesPerFullScale)
	}
	return ua
}

func (l *Loop) voltageMV() int32 {
	if l.broken {
		if l.enabled {
			return l.cfg.ComplianceMV
		}
		return 0
	}
	return int32(int64(l.currentUA()) * int64(l.cfg.LoadOhms) / 1000)
}

func toCode(v, fullScale int32) uint16 {
	if v <= 0 {
		return 0
	}
	c := int64(v) * codesPerFullScale / int64(fullScale)
	if c > maxCode {
		c = maxCode
	}
	return uint16(c)
}

// CurrentUA reports the simulated loop current.
func (l *Loop) CurrentUA() int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentUA()
}

// VoltageMV reports the simulated voltage across the load.
func (l *Loop) VoltageMV() int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.voltageMV()
}

// Output reports the last DAC code and whether the stage is enabled.
func (l *Loop) Output() (uint16, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.code, l.enabled
}
