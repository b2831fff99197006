package ads1015

import (
	"errors"
	"testing"
	"time"

	"tinygo.org/x/drivers"

	"loopcal-go/errcode"
)

var _ drivers.I2C = (*fakeI2C)(nil)

// fakeI2C models the config/conversion registers. A conversion completes
// after busyPolls config reads.
type fakeI2C struct {
	config    uint16
	result    int16 // 12-bit value, stored left-justified on read
	busyPolls int
	left      int
	writes    []uint16
	failNext  error
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	if addr != Address {
		return errors.New("nack")
	}
	switch {
	case len(w) == 3 && w[0] == regConfig:
		f.config = uint16(w[1])<<8 | uint16(w[2])
		f.writes = append(f.writes, f.config)
		f.left = f.busyPolls
		return nil
	case len(w) == 1 && w[0] == regConfig && len(r) == 2:
		v := f.config &^ cfgOS
		if f.left > 0 {
			f.left--
		} else {
			v |= cfgOS
		}
		r[0], r[1] = byte(v>>8), byte(v)
		return nil
	case len(w) == 1 && w[0] == regConversion && len(r) == 2:
		v := uint16(f.result << 4)
		r[0], r[1] = byte(v>>8), byte(v)
		return nil
	}
	return errors.New("unexpected transaction")
}

func TestTriggerConfigWord(t *testing.T) {
	f := &fakeI2C{}
	d := New(f)
	if _, err := d.Trigger(2); err != nil {
		t.Fatal(err)
	}
	// OS | MUX=110 | PGA ±4.096 | single-shot | 1600 SPS | comparator off
	const want = 0x8000 | 0x6000 | 0x0200 | 0x0100 | 0x0080 | 0x0003
	if len(f.writes) != 1 || f.writes[0] != want {
		t.Fatalf("config write %#04x want %#04x", f.writes, want)
	}
}

func TestTriggerInvalidChannel(t *testing.T) {
	d := New(&fakeI2C{})
	if _, err := d.Trigger(4); err != ErrInvalidChannel {
		t.Fatalf("expected ErrInvalidChannel, got %v", err)
	}
}

func TestCollectNotReadyThenValue(t *testing.T) {
	f := &fakeI2C{result: 1638, busyPolls: 2}
	d := New(f)
	if _, err := d.Trigger(0); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, err := d.Collect(0); err != ErrNotReady {
			t.Fatalf("poll %d: expected ErrNotReady, got %v", i, err)
		}
	}
	code, err := d.Collect(0)
	if err != nil || code != 1638 {
		t.Fatalf("collect: code=%d err=%v", code, err)
	}
	if errcode.Of(ErrNotReady) != errcode.NotReady {
		t.Fatal("ErrNotReady does not carry NotReady")
	}
}

func TestCollectWithoutTrigger(t *testing.T) {
	d := New(&fakeI2C{})
	if _, err := d.Collect(1); err != ErrInvalidChannel {
		t.Fatalf("expected ErrInvalidChannel, got %v", err)
	}
}

func TestNegativeReadsZero(t *testing.T) {
	f := &fakeI2C{result: -3}
	d := New(f)
	code, err := d.Read(1)
	if err != nil || code != 0 {
		t.Fatalf("code=%d err=%v", code, err)
	}
}

func TestReadTimeout(t *testing.T) {
	f := &fakeI2C{busyPolls: 1 << 30}
	d := New(f)
	d.Configure(Config{PollInterval: time.Millisecond, CollectTimeout: 5 * time.Millisecond})
	if _, err := d.Read(0); err != ErrTimeout {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestBusErrorPassesThrough(t *testing.T) {
	boom := errors.New("bus stuck")
	f := &fakeI2C{failNext: boom}
	d := New(f)
	if _, err := d.Trigger(0); err != boom {
		t.Fatalf("expected bus error, got %v", err)
	}
}
