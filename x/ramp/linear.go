package ramp

import "loopcal-go/x/mathx"

// At returns the point at pos on a straight line from 'from' to 'to' laid
// over span. pos is clamped to [0..span]; span <= 0 snaps to 'to'.
// Integer only; intermediate products use 64 bits.
func At(from, to, pos, span int64) int64 {
	if span <= 0 {
		return to
	}
	pos = mathx.Clamp(pos, 0, span)
	return from + (to-from)*pos/span
}

// Triangle rises from lo to hi over the first half of span and falls back
// over the second half. Odd spans give the extra unit to the falling edge.
func Triangle(lo, hi, pos, span int64) int64 {
	if span <= 0 {
		return lo
	}
	half := span / 2
	pos = mathx.Clamp(pos, 0, span)
	if pos < half {
		return At(lo, hi, pos, half)
	}
	return At(hi, lo, pos-half, span-half)
}
