package mathx

import "testing"

func TestClamp(t *testing.T) {
	if Clamp(30000, 100, 24000) != 24000 {
		t.Fatal("upper clamp")
	}
	if Clamp(50, 100, 24000) != 100 {
		t.Fatal("lower clamp")
	}
	if Clamp(7, 10, 0) != 7 {
		t.Fatal("swapped bounds")
	}
}

func TestDivRound(t *testing.T) {
	cases := []struct{ a, b, want int64 }{
		{7, 2, 4},
		{-7, 2, -4},
		{7, -2, -4},
		{-7, -2, 4},
		{6, 4, 2},
		{5, 10, 1},
		{4, 10, 0},
		{200_000_000, 13104, 15263},
		{1, 0, 0},
	}
	for _, tc := range cases {
		if got := DivRound(tc.a, tc.b); got != tc.want {
			t.Errorf("DivRound(%d,%d)=%d want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCeilDiv(t *testing.T) {
	if CeilDiv(uint32(25), 2) != 13 || CeilDiv(uint32(24), 2) != 12 || CeilDiv(uint32(1), 0) != 0 {
		t.Fatal("CeilDiv")
	}
}

func TestAbs(t *testing.T) {
	if Abs(int32(-600)) != 600 || Abs(int32(5)) != 5 {
		t.Fatal("Abs")
	}
}
