package calibrator

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"loopcal-go/calib"
	"loopcal-go/errcode"
	"loopcal-go/loopmon"
	"loopcal-go/output"
	"loopcal-go/types"
)

// DeviceMode is chosen at boot and fixed for the life of the service.
type DeviceMode uint8

const (
	ModeNormal  DeviceMode = iota
	ModeService            // calibration: monitor forced OK, voltage every tick
)

func (m DeviceMode) String() string {
	if m == ModeService {
		return "service"
	}
	return "normal"
}

func ParseDeviceMode(s string) (DeviceMode, error) {
	switch s {
	case "normal", "":
		return ModeNormal, nil
	case "service":
		return ModeService, nil
	}
	return ModeNormal, errcode.InvalidParams
}

// Channel names one of the three calibrated paths.
type Channel uint8

const (
	ChannelCurrent Channel = iota // measured loop current, µA
	ChannelVoltage                // measured loop voltage, mV
	ChannelOutput                 // commanded output, µA
	channelCount
)

var channelNames = [channelCount]string{"current", "voltage", "output"}

func (c Channel) String() string {
	if c < channelCount {
		return channelNames[c]
	}
	return "unknown"
}

func ParseChannel(s string) (Channel, error) {
	for i, n := range channelNames {
		if n == s {
			return Channel(i), nil
		}
	}
	return 0, errcode.InvalidChannel
}

// Converter defaults: 3276 codes per 20 mA / 20 V on a 12-bit converter.
const (
	defaultCodeFullScale = 3276
	defaultFullScale     = 20000
	defaultScale         = 10000
)

// Output calibration drive points, µA.
var drivePoints = [2]int32{4000, 20000}

// Core is the complete calibrator state. It is not safe for concurrent use;
// the service owns it from a single goroutine.
type Core struct {
	mode   DeviceMode
	cfg    types.CalibratorConfig
	chans  [channelCount]*calib.Channel
	mon    *loopmon.Monitor
	out    *output.Controller
	status loopmon.Status

	drive  int32 // nominal value driven in service mode, 0 when idle
	target output.Target
	code   int32
}

// CoreOption adjusts board-specific defaults of a Core.
type CoreOption func(*coreOpts)

type coreOpts struct {
	inputFullScale int32
}

// WithInputFullScale sets the single-conversion input code that reads as
// 20 mA / 20 V in the default calibration. Zero keeps the 12-bit default.
func WithInputFullScale(code int32) CoreOption {
	return func(o *coreOpts) {
		if code > 0 {
			o.inputFullScale = code
		}
	}
}

func NewCore(mode DeviceMode, cfg types.CalibratorConfig, opts ...CoreOption) *Core {
	o := coreOpts{inputFullScale: defaultCodeFullScale}
	for _, opt := range opts {
		opt(&o)
	}
	cfg = cfg.WithDefaults()
	in := calib.Default(o.inputFullScale*int32(cfg.Oversample), defaultFullScale, defaultScale)
	c := &Core{
		mode: mode,
		mon:  loopmon.New(loopmon.DefaultConfig()),
		out:  output.New(output.DefaultConfig()),
	}
	c.chans[ChannelCurrent] = calib.NewChannel("current", in, 0)
	c.chans[ChannelVoltage] = calib.NewChannel("voltage", in, 0)
	c.chans[ChannelOutput] = calib.NewChannel("output",
		calib.Default(defaultCodeFullScale, defaultFullScale, defaultScale), cfg.MaxOutputCode)
	c.SetConfig(cfg)
	return c
}

// SetConfig applies thresholds and limits. Calibration is left alone.
func (c *Core) SetConfig(cfg types.CalibratorConfig) {
	cfg = cfg.WithDefaults()
	c.cfg = cfg
	c.mon.SetConfig(loopmon.Config{
		BlinkPeriod:    cfg.BlinkPeriod,
		BreakThreshold: cfg.BreakThresholdUA,
		ErrorThreshold: cfg.ErrorThresholdUA,
	})
	p, _ := output.ParseTerminalPolicy(cfg.TerminalPolicy)
	c.out.SetTerminalPolicy(p)
	c.chans[ChannelOutput].SetMaxCode(cfg.MaxOutputCode)
}

// CheckConfig reports whether cfg may replace the running configuration.
// The input calibration is fitted to sums of Oversample conversions, so the
// count is fixed for the life of the core.
func (c *Core) CheckConfig(cfg types.CalibratorConfig) error {
	if cfg.WithDefaults().Oversample != c.cfg.Oversample {
		return &errcode.E{C: errcode.InvalidParams, Op: "calibrator", Msg: "oversample cannot change at runtime"}
	}
	return nil
}

func (c *Core) Config() types.CalibratorConfig { return c.cfg }
func (c *Core) Mode() DeviceMode               { return c.mode }
func (c *Core) Output() *output.Controller     { return c.out }
func (c *Core) Channel(ch Channel) *calib.Channel {
	if ch >= channelCount {
		return nil
	}
	return c.chans[ch]
}

// ------------------------
// Measurement
// ------------------------

func (c *Core) UpdateLoopCurrent(code int32) int32 { return c.chans[ChannelCurrent].Observe(code) }
func (c *Core) UpdateLoopVoltage(code int32) int32 { return c.chans[ChannelVoltage].Observe(code) }

func (c *Core) LoopCurrent() int32 { return c.chans[ChannelCurrent].Value() }

// LoopVoltage reads 0 below the zero floor.
func (c *Core) LoopVoltage() int32 {
	v := c.chans[ChannelVoltage].Value()
	if v < c.cfg.VoltageZeroFloorMV {
		return 0
	}
	return v
}

// UpdateLoopMonitor reclassifies the loop from the latest readings.
func (c *Core) UpdateLoopMonitor() loopmon.Status {
	c.status = c.mon.Update(loopmon.Inputs{
		Normal:        c.mode == ModeNormal,
		OutputEnabled: c.out.OutputEnabled(),
		Waveform:      c.out.Mode() == output.ModeWaveform,
		Setpoint:      c.out.Setpoint(),
		WaveMin:       c.out.WaveMin(),
		WaveMax:       c.out.WaveMax(),
		Current:       c.LoopCurrent(),
	})
	return c.status
}

func (c *Core) LoopStatus() loopmon.Status { return c.status }

// Indicators returns the two front-panel signals.
func (c *Core) Indicators() (brk, err bool) { return c.status.Break(), c.status.Error() }

// ------------------------
// Output
// ------------------------

// Step advances the output by dt and returns the code to write and whether
// the output stage is on. The code is recorded on the output channel for
// calibration capture.
func (c *Core) Step(dt time.Duration) (int32, bool) {
	if c.mode == ModeService && c.drive != 0 {
		c.target = output.Target{Value: c.drive, Enabled: true}
	} else {
		c.target = c.out.Tick(dt)
	}
	oc := c.chans[ChannelOutput]
	c.code = oc.CodeFor(c.target.Value)
	oc.Observe(c.code)
	return c.code, c.target.Enabled
}

func (c *Core) Target() output.Target { return c.target }
func (c *Core) OutputCode() int32     { return c.code }

// DriveCalibrationPoint drives the output at nominal point n (1 or 2) while
// the output channel is being calibrated; n == 0 hands the output back to
// the controller.
func (c *Core) DriveCalibrationPoint(n int) (int32, error) {
	if c.mode != ModeService {
		return 0, errcode.ServiceMode
	}
	switch n {
	case 0:
		c.drive = 0
	case 1, 2:
		c.drive = drivePoints[n-1]
	default:
		return 0, errcode.InvalidPoint
	}
	return c.drive, nil
}

// Snapshot describes the output for display.
func (c *Core) Snapshot() types.OutputSnapshot {
	cfg := c.out.Config()
	return types.OutputSnapshot{
		Setpoints:     append([]int32(nil), cfg.Setpoints[:]...),
		ActiveProfile: cfg.ActiveProfile,
		Mode:          cfg.Mode.String(),
		Waveform:      cfg.Waveform.String(),
		PeriodMs:      cfg.PeriodMs,
		WaveMinUA:     cfg.WaveMin,
		WaveMaxUA:     cfg.WaveMax,
		TotalCycles:   cfg.TotalCycles,
		CurrentCycle:  cfg.CurrentCycle,
		OutputEnabled: cfg.OutputEnabled,
		Finished:      cfg.Finished,
		TargetUA:      c.target.Value,
		Code:          c.code,
	}
}

// ------------------------
// Calibration
// ------------------------

// SaveCalibrationPoint captures point n of ch against the last raw code.
func (c *Core) SaveCalibrationPoint(ch Channel, n int, reference int32) error {
	if ch >= channelCount {
		return errcode.InvalidChannel
	}
	return c.chans[ch].SavePoint(n, reference)
}

func (c *Core) Calibrate(ch Channel) error {
	if ch >= channelCount {
		return errcode.InvalidChannel
	}
	return c.chans[ch].Calibrate()
}

func (c *Core) ApplyCalibration(ch Channel, stored calib.State) error {
	if ch >= channelCount {
		return errcode.InvalidChannel
	}
	return c.chans[ch].Apply(stored)
}

func (c *Core) CalibrationForSave(ch Channel) calib.State {
	if ch >= channelCount {
		return calib.State{}
	}
	return c.chans[ch].ForSave()
}

func toValue(s calib.State) types.CalibrationValue {
	return types.CalibrationValue{
		Code1: s.Point1.Code, Value1: s.Point1.Value,
		Code2: s.Point2.Code, Value2: s.Point2.Value,
		Scale: s.Scale, Gain: s.Gain, Offset: s.Offset,
	}
}

func fromValue(v types.CalibrationValue) calib.State {
	return calib.State{
		Point1: calib.Point{Code: v.Code1, Value: v.Value1},
		Point2: calib.Point{Code: v.Code2, Value: v.Value2},
		Scale:  v.Scale, Gain: v.Gain, Offset: v.Offset,
	}
}

// ------------------------
// Settings
// ------------------------

func (c *Core) SystemSettings() types.SystemSettings {
	return types.SystemSettings{
		Current: toValue(c.CalibrationForSave(ChannelCurrent)),
		Voltage: toValue(c.CalibrationForSave(ChannelVoltage)),
		Output:  toValue(c.CalibrationForSave(ChannelOutput)),
	}
}

// ApplySystem installs every usable calibration and reports the rest; a
// refused channel keeps its previous calibration.
func (c *Core) ApplySystem(s types.SystemSettings) error {
	var err error
	stored := [channelCount]types.CalibrationValue{s.Current, s.Voltage, s.Output}
	for ch, v := range stored {
		if e := c.ApplyCalibration(Channel(ch), fromValue(v)); e != nil {
			err = multierr.Append(err, errors.Wrapf(e, "%s calibration", Channel(ch)))
		}
	}
	return err
}

func (c *Core) UserSettings() types.UserSettings {
	cfg := c.out.Config()
	return types.UserSettings{
		Setpoints:     append([]int32(nil), cfg.Setpoints[:]...),
		ActiveProfile: cfg.ActiveProfile,
		Waveform:      cfg.Waveform.String(),
		PeriodMs:      cfg.PeriodMs,
		WaveMinUA:     cfg.WaveMin,
		WaveMaxUA:     cfg.WaveMax,
		TotalCycles:   cfg.TotalCycles,
	}
}

// ApplyUser restores operator settings through the clamping setters. The
// output stays off and in constant mode.
func (c *Core) ApplyUser(u types.UserSettings) error {
	var err error
	cfg := c.out.Config()
	for i := 0; i < len(u.Setpoints) && i < output.ProfileCount; i++ {
		cfg.Setpoints[i] = u.Setpoints[i]
	}
	if len(u.Setpoints) != output.ProfileCount {
		err = multierr.Append(err, errors.Errorf("expected %d setpoints, got %d", output.ProfileCount, len(u.Setpoints)))
	}
	cfg.ActiveProfile = u.ActiveProfile
	if w, e := output.ParseWaveform(u.Waveform); e == nil {
		cfg.Waveform = w
	} else {
		err = multierr.Append(err, errors.Wrapf(e, "waveform %q", u.Waveform))
	}
	cfg.PeriodMs = u.PeriodMs
	cfg.WaveMin = u.WaveMinUA
	cfg.WaveMax = u.WaveMaxUA
	cfg.TotalCycles = u.TotalCycles
	cfg.CurrentCycle = 1
	cfg.Mode = output.ModeConst
	cfg.OutputEnabled = false
	c.out.Apply(cfg)
	return err
}
