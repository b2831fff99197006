package calibrator

import (
	"testing"
	"time"

	"loopcal-go/calib"
	"loopcal-go/errcode"
	"loopcal-go/output"
	"loopcal-go/types"
)

func TestCoreDefaultCalibration(t *testing.T) {
	c := NewCore(ModeNormal, types.DefaultCalibratorConfig())
	// Four summed conversions of half scale.
	if got := c.UpdateLoopCurrent(6552); got != 10000 {
		t.Fatalf("current %d want 10000", got)
	}
	if got := c.Channel(ChannelOutput).CodeFor(24000); got != 3931 {
		t.Fatalf("output code %d want 3931", got)
	}
}

func TestCoreInputFullScale(t *testing.T) {
	c := NewCore(ModeNormal, types.DefaultCalibratorConfig(), WithInputFullScale(1637))
	if got := c.CalibrationForSave(ChannelCurrent).Point2.Code; got != 1637*4 {
		t.Fatalf("current full-scale code %d", got)
	}
	if got := c.UpdateLoopCurrent(1637 * 4); got != 20000 {
		t.Fatalf("current %d want 20000", got)
	}
	if got := c.UpdateLoopVoltage(1637 * 2); got != 10000 {
		t.Fatalf("voltage %d want 10000", got)
	}
	// The output stage keeps its own converter defaults.
	if got := c.Channel(ChannelOutput).CodeFor(24000); got != 3931 {
		t.Fatalf("output code %d want 3931", got)
	}

	d := NewCore(ModeNormal, types.DefaultCalibratorConfig(), WithInputFullScale(0))
	if got := d.CalibrationForSave(ChannelCurrent).Point2.Code; got != 13104 {
		t.Fatalf("zero full scale gave %d", got)
	}
}

func TestCoreCheckConfigFixesOversample(t *testing.T) {
	c := NewCore(ModeNormal, types.DefaultCalibratorConfig())
	cfg := types.DefaultCalibratorConfig()
	cfg.TerminalPolicy = types.TerminalHold
	if err := c.CheckConfig(cfg); err != nil {
		t.Fatalf("unchanged oversample: %v", err)
	}
	cfg.Oversample = 0 // defaulted
	if err := c.CheckConfig(cfg); err != nil {
		t.Fatalf("defaulted oversample: %v", err)
	}
	cfg.Oversample = 16
	if err := c.CheckConfig(cfg); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("changed oversample: %v", err)
	}
}

func TestCoreVoltageZeroFloor(t *testing.T) {
	c := NewCore(ModeNormal, types.DefaultCalibratorConfig())
	c.UpdateLoopVoltage(320) // 488 mV
	if got := c.LoopVoltage(); got != 0 {
		t.Fatalf("below floor read %d", got)
	}
	c.UpdateLoopVoltage(6552)
	if got := c.LoopVoltage(); got != 10000 {
		t.Fatalf("voltage %d", got)
	}
}

func TestCoreMonitorUsesOutputState(t *testing.T) {
	c := NewCore(ModeNormal, types.DefaultCalibratorConfig())
	out := c.Output()
	out.SetConstSetpoint(4000)
	out.SetOutputEnabled(true)

	c.UpdateLoopCurrent(int32(4700) * 13104 / 20000) // ~4700 µA
	if brk, e := c.Indicators(); brk || e {
		t.Fatal("indicators set before update")
	}
	st := c.UpdateLoopMonitor()
	if st.Break() || !st.Error() {
		t.Fatalf("status %v", st)
	}
	if c.LoopStatus() != st {
		t.Fatal("LoopStatus differs from last update")
	}
}

func TestCoreServiceModeMonitorOK(t *testing.T) {
	c := NewCore(ModeService, types.DefaultCalibratorConfig())
	c.UpdateLoopCurrent(0)
	if st := c.UpdateLoopMonitor(); st != 0 {
		t.Fatalf("service mode status %v", st)
	}
}

func TestCoreStepRecordsOutputCode(t *testing.T) {
	c := NewCore(ModeNormal, types.DefaultCalibratorConfig())
	c.Output().SetConstSetpoint(24000)
	c.Output().SetOutputEnabled(true)
	code, on := c.Step(10 * time.Millisecond)
	if !on || code != 3931 {
		t.Fatalf("code=%d on=%v", code, on)
	}
	if c.Channel(ChannelOutput).LastCode() != 3931 {
		t.Fatal("output code not recorded for calibration")
	}
	snap := c.Snapshot()
	if snap.TargetUA != 24000 || snap.Code != 3931 || snap.Mode != "const" {
		t.Fatalf("snapshot %+v", snap)
	}
}

func TestCoreDriveCalibrationPoint(t *testing.T) {
	n := NewCore(ModeNormal, types.DefaultCalibratorConfig())
	if _, err := n.DriveCalibrationPoint(1); err != errcode.ServiceMode {
		t.Fatalf("normal mode drive: %v", err)
	}

	c := NewCore(ModeService, types.DefaultCalibratorConfig())
	if _, err := c.DriveCalibrationPoint(3); err != errcode.InvalidPoint {
		t.Fatalf("point 3: %v", err)
	}
	ua, err := c.DriveCalibrationPoint(2)
	if err != nil || ua != 20000 {
		t.Fatalf("drive 2: %d %v", ua, err)
	}
	code, on := c.Step(10 * time.Millisecond)
	if !on || code != 3276 {
		t.Fatalf("drive output code=%d on=%v", code, on)
	}
	_, _ = c.DriveCalibrationPoint(0)
	if _, on := c.Step(10 * time.Millisecond); on {
		t.Fatal("output still driven after release")
	}
}

func TestCoreCalibrationTriad(t *testing.T) {
	c := NewCore(ModeService, types.DefaultCalibratorConfig())
	c.UpdateLoopCurrent(2700)
	if err := c.SaveCalibrationPoint(ChannelCurrent, 1, 4000); err != nil {
		t.Fatal(err)
	}
	c.UpdateLoopCurrent(13000)
	if err := c.SaveCalibrationPoint(ChannelCurrent, 2, 20000); err != nil {
		t.Fatal(err)
	}
	if err := c.Calibrate(ChannelCurrent); err != nil {
		t.Fatal(err)
	}
	if got := c.UpdateLoopCurrent(2700); got != 4000 {
		t.Fatalf("after calibration %d", got)
	}
	if err := c.SaveCalibrationPoint(Channel(7), 1, 0); err != errcode.InvalidChannel {
		t.Fatalf("bad channel: %v", err)
	}

	saved := c.CalibrationForSave(ChannelCurrent)
	other := NewCore(ModeNormal, types.DefaultCalibratorConfig())
	if err := other.ApplyCalibration(ChannelCurrent, saved); err != nil {
		t.Fatal(err)
	}
	if other.CalibrationForSave(ChannelCurrent) != saved {
		t.Fatal("applied calibration differs")
	}
}

func TestCoreApplySystemPartial(t *testing.T) {
	c := NewCore(ModeNormal, types.DefaultCalibratorConfig())
	sys := c.SystemSettings()
	sys.Current = toValue(calib.State{
		Point1: calib.Point{Code: 800, Value: 4000},
		Point2: calib.Point{Code: 4000, Value: 20000},
		Scale:  10000,
	})
	sys.Output.Code2 = sys.Output.Code1 // unusable
	before := c.CalibrationForSave(ChannelOutput)

	if err := c.ApplySystem(sys); err == nil {
		t.Fatal("expected error for output calibration")
	}
	if c.CalibrationForSave(ChannelCurrent).Gain != 50000 {
		t.Fatalf("current calibration not applied: %+v", c.CalibrationForSave(ChannelCurrent))
	}
	if c.CalibrationForSave(ChannelOutput) != before {
		t.Fatal("refused output calibration replaced the previous one")
	}
}

func TestCoreUserSettingsRoundTrip(t *testing.T) {
	c := NewCore(ModeNormal, types.DefaultCalibratorConfig())
	u := types.UserSettings{
		Setpoints:     []int32{30000, 12000},
		ActiveProfile: 1,
		Waveform:      "saw_rev",
		PeriodMs:      50,
		WaveMinUA:     4000,
		WaveMaxUA:     20000,
		TotalCycles:   5,
	}
	if err := c.ApplyUser(u); err != nil {
		t.Fatal(err)
	}
	got := c.UserSettings()
	if got.Setpoints[0] != 24000 || got.Setpoints[1] != 12000 || got.PeriodMs != 100 {
		t.Fatalf("settings not clamped: %+v", got)
	}
	if got.Waveform != "saw_rev" || got.ActiveProfile != 1 || got.TotalCycles != 5 {
		t.Fatalf("settings mismatch: %+v", got)
	}
	if c.Output().OutputEnabled() || c.Output().Mode() != output.ModeConst {
		t.Fatal("restored output should be off in constant mode")
	}

	u.Waveform = "sine"
	u.Setpoints = []int32{5000}
	if err := c.ApplyUser(u); err == nil {
		t.Fatal("expected errors for bad waveform and setpoint count")
	}
	if c.Output().SetpointFor(0) != 5000 {
		t.Fatal("valid fields not applied")
	}
}

func TestParseChannel(t *testing.T) {
	for _, n := range []string{"current", "voltage", "output"} {
		ch, err := ParseChannel(n)
		if err != nil || ch.String() != n {
			t.Errorf("%s: %v %v", n, ch, err)
		}
	}
	if _, err := ParseChannel("power"); err != errcode.InvalidChannel {
		t.Errorf("power: %v", err)
	}
}

func TestParseDeviceMode(t *testing.T) {
	for _, m := range []DeviceMode{ModeNormal, ModeService} {
		got, err := ParseDeviceMode(m.String())
		if err != nil || got != m {
			t.Errorf("%s: %v %v", m, got, err)
		}
	}
	if _, err := ParseDeviceMode("factory"); err != errcode.InvalidParams {
		t.Errorf("factory: %v", err)
	}
}
