package mcp4725

import (
	"testing"

	"tinygo.org/x/drivers"
)

var _ drivers.I2C = (*fakeI2C)(nil)

type fakeI2C struct {
	addr   uint16
	writes [][2]byte
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	f.addr = addr
	var b [2]byte
	copy(b[:], w)
	f.writes = append(f.writes, b)
	return nil
}

func (f *fakeI2C) last() [2]byte { return f.writes[len(f.writes)-1] }

func TestFastWriteEncoding(t *testing.T) {
	f := &fakeI2C{}
	d := New(f)
	if err := d.SetEnabled(true); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteCode(0xABC); err != nil {
		t.Fatal(err)
	}
	if got := f.last(); got != [2]byte{0x0A, 0xBC} {
		t.Fatalf("fast write bytes %#v", got)
	}
	if f.addr != Address {
		t.Fatalf("address %#x", f.addr)
	}
}

func TestDisabledUsesPowerDown(t *testing.T) {
	f := &fakeI2C{}
	d := New(f)
	d.Configure(Config{PowerDown: PowerDown100K})
	if err := d.WriteCode(0x123); err != nil {
		t.Fatal(err)
	}
	if got := f.last(); got != [2]byte{0x21, 0x23} {
		t.Fatalf("powered-down write %#v", got)
	}
	if err := d.SetEnabled(true); err != nil {
		t.Fatal(err)
	}
	if got := f.last(); got != [2]byte{0x01, 0x23} {
		t.Fatalf("enable should rewrite latched code: %#v", got)
	}
}

func TestRange(t *testing.T) {
	d := New(&fakeI2C{})
	if err := d.WriteCode(MaxCode + 1); err != ErrRange {
		t.Fatalf("expected ErrRange, got %v", err)
	}
}
