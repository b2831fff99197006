package calib

import (
	"testing"

	"loopcal-go/errcode"
)

func TestValueFromCodeExample(t *testing.T) {
	s := State{
		Point1: Point{Code: 0, Value: 0},
		Point2: Point{Code: 13104, Value: 20000},
		Scale:  10000,
	}
	if err := s.Recompute(); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if got := s.ValueFromCode(6552); got != 10000 {
		t.Fatalf("ValueFromCode(6552)=%d want 10000", got)
	}
	if got := s.ValueFromCode(13104); got != 20000 {
		t.Fatalf("ValueFromCode(13104)=%d want 20000", got)
	}
}

func TestRecomputeWithOffset(t *testing.T) {
	s := State{
		Point1: Point{Code: 800, Value: 4000},
		Point2: Point{Code: 4000, Value: 20000},
		Scale:  10000,
	}
	if err := s.Recompute(); err != nil {
		t.Fatal(err)
	}
	if s.Gain != 50000 || s.Offset != 0 {
		t.Fatalf("gain=%d offset=%d", s.Gain, s.Offset)
	}
	s.Point1 = Point{Code: 1000, Value: 4000}
	if err := s.Recompute(); err != nil {
		t.Fatal(err)
	}
	if got := s.ValueFromCode(1000); got != 4000 {
		t.Fatalf("point1 not reproduced: %d", got)
	}
	if got := s.ValueFromCode(4000); got != 20000 {
		t.Fatalf("point2 not reproduced: %d", got)
	}
}

func TestRecomputeIdenticalCodesKeepsCoefficients(t *testing.T) {
	s := Default(3276, 20000, 10000)
	gain, offset := s.Gain, s.Offset

	if err := s.Capture(1, 4000, 1000); err != nil {
		t.Fatal(err)
	}
	if err := s.Capture(2, 20000, 1000); err != nil {
		t.Fatal(err)
	}
	if err := s.Recompute(); err != errcode.InvalidGeometry {
		t.Fatalf("expected InvalidGeometry, got %v", err)
	}
	if s.Gain != gain || s.Offset != offset {
		t.Fatalf("coefficients overwritten: gain %d->%d offset %d->%d", gain, s.Gain, offset, s.Offset)
	}
	if s.Valid() {
		t.Fatal("state with equal codes reported valid")
	}
}

func TestRecomputeRejectsCoefficientOverflow(t *testing.T) {
	for _, c := range []struct {
		name string
		s    State
	}{
		{"gain", State{Point2: Point{Code: 10, Value: 20000}, Scale: 2000000}},
		{"negative gain", State{Point2: Point{Code: 1, Value: -2000000}, Scale: 10000}},
		{"offset", State{
			Point1: Point{Code: 2000000, Value: 0},
			Point2: Point{Code: 2000001, Value: 2000},
			Scale:  1,
		}},
	} {
		t.Run(c.name, func(t *testing.T) {
			s := c.s
			s.Gain, s.Offset = 61050, 1
			if err := s.Recompute(); err != errcode.InvalidGeometry {
				t.Fatalf("expected InvalidGeometry, got %v (gain=%d offset=%d)", err, s.Gain, s.Offset)
			}
			if s.Gain != 61050 || s.Offset != 1 {
				t.Fatalf("coefficients overwritten: gain=%d offset=%d", s.Gain, s.Offset)
			}
			if s.Valid() {
				t.Fatal("overflowing state reported valid")
			}
		})
	}
}

func TestCaptureRejectsUnknownPoint(t *testing.T) {
	var s State
	if err := s.Capture(3, 1, 1); err != errcode.InvalidPoint {
		t.Fatalf("expected InvalidPoint, got %v", err)
	}
}

func TestCodeFromValueCeiling(t *testing.T) {
	s := Default(3276, 20000, 10000)
	if got := s.CodeFromValue(24000, 4013); got != 3931 {
		t.Fatalf("CodeFromValue(24000)=%d want 3931", got)
	}
	if got := s.CodeFromValue(30000, 4013); got != 4013 {
		t.Fatalf("ceiling not applied: %d", got)
	}
	if got := s.CodeFromValue(-100, 4013); got != 0 {
		t.Fatalf("negative value should give code 0, got %d", got)
	}
	if got := s.CodeFromValue(30000, 0); got <= 4013 {
		t.Fatalf("maxCode 0 should not cap, got %d", got)
	}
}

func TestRoundTrip(t *testing.T) {
	states := []State{
		Default(13104, 20000, 10000),
		Default(3276, 20000, 10000),
		{Point1: Point{Code: 812, Value: 4010}, Point2: Point{Code: 4003, Value: 19987}, Scale: 10000},
	}
	for i := range states {
		s := &states[i]
		if err := s.Recompute(); err != nil {
			t.Fatal(err)
		}
		// One code step in value units, rounded up, is the quantisation limit.
		step := (int64(s.Gain) + int64(s.Scale) - 1) / int64(s.Scale)
		tol := int32(step/2 + 1)
		for v := int32(100); v <= 24000; v += 37 {
			back := s.ValueFromCode(s.CodeFromValue(v, 0))
			d := back - v
			if d < 0 {
				d = -d
			}
			if d > tol {
				t.Fatalf("state %d: v=%d back=%d (tol %d)", i, v, back, tol)
			}
		}
	}
}

func TestChannelCaptureAndApply(t *testing.T) {
	ch := NewChannel("current", Default(13104, 20000, 10000), 0)

	ch.Observe(2700)
	if err := ch.SavePoint(1, 4000); err != nil {
		t.Fatal(err)
	}
	ch.Observe(13000)
	if err := ch.SavePoint(2, 20000); err != nil {
		t.Fatal(err)
	}
	// Not applied until Calibrate.
	if ch.State().Gain != Default(13104, 20000, 10000).Gain {
		t.Fatal("SavePoint must not recompute")
	}
	if err := ch.Calibrate(); err != nil {
		t.Fatal(err)
	}
	if got := ch.Observe(2700); got != 4000 {
		t.Fatalf("point1 reading %d", got)
	}
	if got := ch.Observe(13000); got != 20000 {
		t.Fatalf("point2 reading %d", got)
	}

	saved := ch.ForSave()
	other := NewChannel("current", Default(13104, 20000, 10000), 0)
	if err := other.Apply(saved); err != nil {
		t.Fatal(err)
	}
	if other.State() != saved {
		t.Fatalf("apply mismatch: %+v vs %+v", other.State(), saved)
	}

	bad := saved
	bad.Point2.Code = bad.Point1.Code
	if err := other.Apply(bad); err != errcode.InvalidGeometry {
		t.Fatalf("expected InvalidGeometry, got %v", err)
	}
	if other.State() != saved {
		t.Fatal("refused apply changed the calibration")
	}
}

func TestChannelNegativeReadsZero(t *testing.T) {
	s := State{Point1: Point{Code: 100, Value: 0}, Point2: Point{Code: 3376, Value: 20000}, Scale: 10000}
	ch := NewChannel("voltage", s, 0)
	if got := ch.Observe(10); got != 0 {
		t.Fatalf("negative value not clamped: %d", got)
	}
	if ch.LastCode() != 10 {
		t.Fatalf("last code %d", ch.LastCode())
	}
}
