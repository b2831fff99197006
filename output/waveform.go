package output

import "loopcal-go/x/ramp"

// Evaluate returns the waveform value at phaseMs within a period of periodMs.
// phaseMs is clamped to [0..periodMs]; at periodMs each shape yields its
// end-of-period value.
func Evaluate(w Waveform, phaseMs, periodMs int64, lo, hi int32) int32 {
	l, h := int64(lo), int64(hi)
	switch w {
	case Meandr:
		if phaseMs < periodMs/2 {
			return lo
		}
		return hi
	case SawDirect:
		return int32(ramp.At(l, h, phaseMs, periodMs))
	case SawReversed:
		return int32(ramp.At(h, l, phaseMs, periodMs))
	case Triangular:
		return int32(ramp.Triangle(l, h, phaseMs, periodMs))
	}
	return lo
}
