// Package calib implements the two-point linear model shared by every analog
// channel of the instrument: raw converter codes on one side, engineering
// units (µA, mV) on the other.
//
// All arithmetic is integer. Scale is the fixed-point divisor carried by Gain:
//
//	Gain   = Scale*(V2-V1)/(C2-C1)
//	Offset = V1 - Gain*C1/Scale
//	value  = Offset + Gain*code/Scale
//
// Divisions round half away from zero.
package calib

import (
	"math"

	"loopcal-go/errcode"
	"loopcal-go/x/mathx"
)

// Point pairs a raw code with the physical value observed at that code.
type Point struct {
	Code  int32
	Value int32
}

// State is the persisted unit of calibration for one channel.
type State struct {
	Point1 Point
	Point2 Point
	Scale  int32
	Gain   int32
	Offset int32
}

// Recompute derives Gain and Offset from the two points. On invalid geometry
// (equal codes, a non-positive scale, or coefficients outside int32) the
// previous coefficients are kept.
func (s *State) Recompute() error {
	if s.Scale <= 0 {
		return errcode.InvalidParams
	}
	dc := int64(s.Point2.Code) - int64(s.Point1.Code)
	if dc == 0 {
		return errcode.InvalidGeometry
	}
	dv := int64(s.Point2.Value) - int64(s.Point1.Value)
	gain := mathx.DivRound(int64(s.Scale)*dv, dc)
	if gain == 0 {
		// A flat line cannot be inverted by CodeFromValue.
		return errcode.InvalidGeometry
	}
	offset := int64(s.Point1.Value) - mathx.DivRound(gain*int64(s.Point1.Code), int64(s.Scale))
	if !fitsInt32(gain) || !fitsInt32(offset) {
		return errcode.InvalidGeometry
	}
	s.Gain = int32(gain)
	s.Offset = int32(offset)
	return nil
}

func fitsInt32(v int64) bool { return v >= math.MinInt32 && v <= math.MaxInt32 }

// ValueFromCode converts a raw code into engineering units.
func (s State) ValueFromCode(code int32) int32 {
	if s.Scale <= 0 {
		return 0
	}
	return int32(int64(s.Offset) + mathx.DivRound(int64(s.Gain)*int64(code), int64(s.Scale)))
}

// CodeFromValue inverts ValueFromCode. The result is clamped to
// [0..maxCode] regardless of the calibration; maxCode <= 0 disables the
// upper bound.
func (s State) CodeFromValue(value, maxCode int32) int32 {
	if s.Gain == 0 {
		return 0
	}
	code := mathx.DivRound((int64(value)-int64(s.Offset))*int64(s.Scale), int64(s.Gain))
	if code < 0 {
		code = 0
	}
	if maxCode > 0 && code > int64(maxCode) {
		code = int64(maxCode)
	}
	return int32(code)
}

// Capture records point n (1 or 2) without recomputing the coefficients.
func (s *State) Capture(n int, reference, code int32) error {
	p := Point{Code: code, Value: reference}
	switch n {
	case 1:
		s.Point1 = p
	case 2:
		s.Point2 = p
	default:
		return errcode.InvalidPoint
	}
	return nil
}

// Valid reports whether the points describe an invertible line.
func (s State) Valid() bool {
	t := s
	return t.Recompute() == nil
}

// Default returns a recomputed state through (0,0) and (code2,value2).
func Default(code2, value2, scale int32) State {
	s := State{Point2: Point{Code: code2, Value: value2}, Scale: scale}
	_ = s.Recompute()
	return s
}
