package types

import (
	"errors"

	"go.uber.org/multierr"
)

// Terminal policies for a finished waveform run.
const (
	TerminalDisable = "disable"
	TerminalHold    = "hold"
)

// CalibratorConfig is supplied on topic "config/calibrator". Zero fields take
// the defaults from WithDefaults.
type CalibratorConfig struct {
	TickMs             uint32 `json:"tick_ms" mapstructure:"tick_ms"`
	VoltageEvery       uint32 `json:"voltage_every" mapstructure:"voltage_every"` // ticks between voltage samples
	Oversample         uint32 `json:"oversample" mapstructure:"oversample"`       // conversions summed per raw code
	PublishEvery       uint32 `json:"publish_every" mapstructure:"publish_every"` // ticks between status publications
	BlinkPeriod        int32  `json:"blink_period" mapstructure:"blink_period"`   // in ticks
	BreakThresholdUA   int32  `json:"break_threshold_ua" mapstructure:"break_threshold_ua"`
	ErrorThresholdUA   int32  `json:"error_threshold_ua" mapstructure:"error_threshold_ua"`
	VoltageZeroFloorMV int32  `json:"voltage_zero_floor_mv" mapstructure:"voltage_zero_floor_mv"`
	MaxOutputCode      int32  `json:"max_output_code" mapstructure:"max_output_code"`
	TerminalPolicy     string `json:"terminal_policy" mapstructure:"terminal_policy"`
	AcquireTimeoutMs   uint32 `json:"acquire_timeout_ms" mapstructure:"acquire_timeout_ms"`
}

// DefaultCalibratorConfig mirrors the instrument firmware constants.
func DefaultCalibratorConfig() CalibratorConfig {
	return CalibratorConfig{
		TickMs:             10,
		VoltageEvery:       4,
		Oversample:         4,
		PublishEvery:       10,
		BlinkPeriod:        25,
		BreakThresholdUA:   50,
		ErrorThresholdUA:   500,
		VoltageZeroFloorMV: 500,
		MaxOutputCode:      4013,
		TerminalPolicy:     TerminalDisable,
		AcquireTimeoutMs:   20,
	}
}

// WithDefaults fills zero-valued fields.
func (c CalibratorConfig) WithDefaults() CalibratorConfig {
	d := DefaultCalibratorConfig()
	if c.TickMs == 0 {
		c.TickMs = d.TickMs
	}
	if c.VoltageEvery == 0 {
		c.VoltageEvery = d.VoltageEvery
	}
	if c.Oversample == 0 {
		c.Oversample = d.Oversample
	}
	if c.PublishEvery == 0 {
		c.PublishEvery = d.PublishEvery
	}
	if c.BlinkPeriod == 0 {
		c.BlinkPeriod = d.BlinkPeriod
	}
	if c.BreakThresholdUA == 0 {
		c.BreakThresholdUA = d.BreakThresholdUA
	}
	if c.ErrorThresholdUA == 0 {
		c.ErrorThresholdUA = d.ErrorThresholdUA
	}
	if c.VoltageZeroFloorMV == 0 {
		c.VoltageZeroFloorMV = d.VoltageZeroFloorMV
	}
	if c.MaxOutputCode == 0 {
		c.MaxOutputCode = d.MaxOutputCode
	}
	if c.TerminalPolicy == "" {
		c.TerminalPolicy = d.TerminalPolicy
	}
	if c.AcquireTimeoutMs == 0 {
		c.AcquireTimeoutMs = d.AcquireTimeoutMs
	}
	return c
}

// Validate reports every violation, not just the first.
func (c CalibratorConfig) Validate() error {
	var err error
	if c.BlinkPeriod < 2 {
		err = multierr.Append(err, errors.New("blink_period must be >= 2"))
	}
	if c.BreakThresholdUA < 0 {
		err = multierr.Append(err, errors.New("break_threshold_ua must be >= 0"))
	}
	if c.ErrorThresholdUA < 0 {
		err = multierr.Append(err, errors.New("error_threshold_ua must be >= 0"))
	}
	if c.VoltageZeroFloorMV < 0 {
		err = multierr.Append(err, errors.New("voltage_zero_floor_mv must be >= 0"))
	}
	if c.MaxOutputCode < 1 || c.MaxOutputCode > 4095 {
		err = multierr.Append(err, errors.New("max_output_code must be in 1..4095"))
	}
	if c.Oversample > 64 {
		err = multierr.Append(err, errors.New("oversample must be <= 64"))
	}
	switch c.TerminalPolicy {
	case TerminalDisable, TerminalHold:
	default:
		err = multierr.Append(err, errors.New("terminal_policy must be disable or hold"))
	}
	return err
}

// ConsoleConfig is supplied on topic "config/console".
type ConsoleConfig struct {
	Prompt           string `json:"prompt" mapstructure:"prompt"`
	RequestTimeoutMs uint32 `json:"request_timeout_ms" mapstructure:"request_timeout_ms"`
}

// HeartbeatConfig is supplied on topic "config/heartbeat".
type HeartbeatConfig struct {
	IntervalMs uint32 `json:"interval_ms" mapstructure:"interval_ms"`
}
