// Package output holds the output configuration of the calibrator and turns
// it into a per-tick target: profile setpoints, constant or waveform mode,
// waveform shape and period, and cycle counting.
//
// The controller is owned by a single goroutine and does no locking.
package output

import (
	"time"

	"loopcal-go/x/mathx"
	"loopcal-go/x/timex"
)

type Controller struct {
	cfg     Config
	policy  TerminalPolicy
	phaseMs int64
	dirty   bool
}

// New returns a controller holding cfg with every field clamped.
func New(cfg Config) *Controller {
	c := &Controller{cfg: DefaultConfig()}
	c.Apply(cfg)
	return c
}

// Apply installs cfg through the setters. The cycle counter, the finished
// flag and the waveform phase are restored as given when consistent.
func (c *Controller) Apply(cfg Config) {
	for i, v := range cfg.Setpoints {
		c.cfg.Setpoints[i] = mathx.Clamp(v, MinSetting, MaxSetting)
	}
	c.SetProfile(cfg.ActiveProfile)
	c.SetMode(cfg.Mode)
	c.SetWaveform(cfg.Waveform)
	c.SetPeriod(cfg.PeriodMs)
	c.SetWaveMin(cfg.WaveMin)
	c.SetWaveMax(cfg.WaveMax)
	c.SetTotalCycles(cfg.TotalCycles)
	if cfg.CurrentCycle >= 1 && cfg.CurrentCycle <= c.cfg.TotalCycles {
		c.cfg.CurrentCycle = cfg.CurrentCycle
	}
	c.cfg.OutputEnabled = cfg.OutputEnabled
	c.dirty = true
}

// Config returns a copy of the current configuration.
func (c *Controller) Config() Config { return c.cfg }

func (c *Controller) markDirty() { c.dirty = true }

// TakeDirty reports whether anything visible changed since the last call and
// clears the flag.
func (c *Controller) TakeDirty() bool {
	d := c.dirty
	c.dirty = false
	return d
}

// ------------------------
// Setters. Each returns the value actually stored.
// ------------------------

// SetProfile selects the active profile. Values past the end wrap to the
// first profile, negative values to the last.
func (c *Controller) SetProfile(i int) int {
	switch {
	case i >= ProfileCount:
		i = 0
	case i < 0:
		i = ProfileCount - 1
	}
	c.cfg.ActiveProfile = i
	c.markDirty()
	return i
}

// SetConstSetpoint stores v for the active profile.
func (c *Controller) SetConstSetpoint(v int32) int32 {
	v = mathx.Clamp(v, MinSetting, MaxSetting)
	c.cfg.Setpoints[c.cfg.ActiveProfile] = v
	c.markDirty()
	return v
}

// SetWaveMin and SetWaveMax clamp independently; min > max is accepted.
func (c *Controller) SetWaveMin(v int32) int32 {
	v = mathx.Clamp(v, MinSetting, MaxSetting)
	c.cfg.WaveMin = v
	c.markDirty()
	return v
}

func (c *Controller) SetWaveMax(v int32) int32 {
	v = mathx.Clamp(v, MinSetting, MaxSetting)
	c.cfg.WaveMax = v
	c.markDirty()
	return v
}

// SetPeriod keeps the phase inside the new period without counting a cycle.
func (c *Controller) SetPeriod(ms int32) int32 {
	ms = mathx.Clamp(ms, PeriodMin, PeriodMax)
	c.cfg.PeriodMs = ms
	switch {
	case c.cfg.Finished && c.policy == TerminalHold:
		c.phaseMs = int64(ms)
	case c.phaseMs >= int64(ms):
		c.phaseMs %= int64(ms)
	}
	c.markDirty()
	return ms
}

// SetTotalCycles starts a fresh run of n cycles.
func (c *Controller) SetTotalCycles(n int32) int32 {
	n = mathx.Clamp(n, CyclesMin, CyclesMax)
	c.cfg.TotalCycles = n
	c.restart()
	return n
}

// RestartCycles starts the run again from cycle 1 and phase 0.
func (c *Controller) RestartCycles() int32 {
	c.restart()
	return c.cfg.CurrentCycle
}

func (c *Controller) restart() {
	c.cfg.CurrentCycle = 1
	c.cfg.Finished = false
	c.phaseMs = 0
	c.markDirty()
}

// SetMode leaves the waveform phase where it is.
func (c *Controller) SetMode(m Mode) Mode {
	if m != ModeWaveform {
		m = ModeConst
	}
	c.cfg.Mode = m
	c.markDirty()
	return m
}

func (c *Controller) SetWaveform(w Waveform) Waveform {
	if w > Triangular {
		w = Meandr
	}
	c.cfg.Waveform = w
	c.markDirty()
	return w
}

// SetOutputEnabled gates output writes. Enabling after a finished run starts
// a new run; disabling changes nothing else.
func (c *Controller) SetOutputEnabled(on bool) bool {
	if on && c.cfg.Finished {
		c.restart()
	}
	c.cfg.OutputEnabled = on
	c.markDirty()
	return on
}

func (c *Controller) SetTerminalPolicy(p TerminalPolicy) TerminalPolicy {
	if p != TerminalHold {
		p = TerminalDisable
	}
	c.policy = p
	return p
}

// ------------------------
// Getters
// ------------------------

func (c *Controller) ActiveProfile() int             { return c.cfg.ActiveProfile }
func (c *Controller) Mode() Mode                     { return c.cfg.Mode }
func (c *Controller) Waveform() Waveform             { return c.cfg.Waveform }
func (c *Controller) Period() int32                  { return c.cfg.PeriodMs }
func (c *Controller) WaveMin() int32                 { return c.cfg.WaveMin }
func (c *Controller) WaveMax() int32                 { return c.cfg.WaveMax }
func (c *Controller) TotalCycles() int32             { return c.cfg.TotalCycles }
func (c *Controller) CurrentCycle() int32            { return c.cfg.CurrentCycle }
func (c *Controller) OutputEnabled() bool            { return c.cfg.OutputEnabled }
func (c *Controller) Finished() bool                 { return c.cfg.Finished }
func (c *Controller) TerminalPolicy() TerminalPolicy { return c.policy }
func (c *Controller) PhaseMs() int64                 { return c.phaseMs }

// Setpoint returns the constant setpoint of the active profile.
func (c *Controller) Setpoint() int32 { return c.cfg.Setpoints[c.cfg.ActiveProfile] }

// SetpointFor returns the setpoint of profile i, or 0 when i is out of range.
func (c *Controller) SetpointFor(i int) int32 {
	if i < 0 || i >= ProfileCount {
		return 0
	}
	return c.cfg.Setpoints[i]
}

// Level is the value the output is driven to right now, without advancing.
func (c *Controller) Level() int32 {
	if c.cfg.Mode == ModeConst {
		return c.Setpoint()
	}
	return Evaluate(c.cfg.Waveform, c.phaseMs, int64(c.cfg.PeriodMs), c.cfg.WaveMin, c.cfg.WaveMax)
}

// ------------------------
// Tick
// ------------------------

// Tick advances the waveform by dt and returns this tick's target. The phase
// only moves while the output is enabled in waveform mode.
func (c *Controller) Tick(dt time.Duration) Target {
	if !c.cfg.OutputEnabled {
		return Target{Value: c.Level()}
	}
	if c.cfg.Mode == ModeConst || c.cfg.Finished {
		return Target{Value: c.Level(), Enabled: true}
	}

	period := int64(c.cfg.PeriodMs)
	c.phaseMs += timex.Ms(dt)
	for c.phaseMs >= period {
		if c.cfg.CurrentCycle >= c.cfg.TotalCycles {
			c.finish()
			return Target{Value: c.Level(), Enabled: c.cfg.OutputEnabled}
		}
		c.phaseMs -= period
		c.cfg.CurrentCycle++
		c.markDirty()
	}
	return Target{Value: c.Level(), Enabled: true}
}

func (c *Controller) finish() {
	c.cfg.Finished = true
	switch c.policy {
	case TerminalHold:
		c.phaseMs = int64(c.cfg.PeriodMs)
	default:
		c.phaseMs = 0
		c.cfg.OutputEnabled = false
	}
	c.markDirty()
}
