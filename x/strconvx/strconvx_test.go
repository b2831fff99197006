package strconvx

import "testing"

func TestItoaAtoi(t *testing.T) {
	for _, v := range []int{0, 1, -1, 4000, -99999, 500000} {
		s := Itoa(v)
		got, err := Atoi(s)
		if err != nil {
			t.Fatalf("Atoi(%q) error: %v", s, err)
		}
		if got != v {
			t.Fatalf("Itoa/Atoi round trip: want %d, got %d", v, got)
		}
	}
}

func TestFormatInt(t *testing.T) {
	if got := FormatInt(-15, 10); got != "-15" {
		t.Fatalf("FormatInt(-15,10) = %q", got)
	}
	if got := FormatInt(4013, 16); got != "fad" {
		t.Fatalf("FormatInt(4013,16) = %q", got)
	}
}

func TestParseIntBitSize(t *testing.T) {
	if v, err := ParseInt("24000", 10, 32); err != nil || v != 24000 {
		t.Fatalf("ParseInt(24000) = %d, %v", v, err)
	}
	if _, err := ParseInt("2147483648", 10, 32); err == nil {
		t.Fatal("expected range error for int32 overflow")
	}
	if v, err := ParseInt("-2147483648", 10, 32); err != nil || v != -2147483648 {
		t.Fatalf("int32 min: %d, %v", v, err)
	}
	if v, err := ParseInt("0x60", 0, 32); err != nil || v != 0x60 {
		t.Fatalf("hex: %d, %v", v, err)
	}
}

func TestAtoiRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "12a", "+", "4.5"} {
		if _, err := Atoi(s); err == nil {
			t.Fatalf("Atoi(%q) accepted", s)
		}
	}
}
