// Package ads1015 drives the ADS1015 12-bit I²C ADC in single-shot mode on
// one of its four single-ended inputs. It exposes the same two-phase API as
// the other sensor drivers:
//
//	hint, err := d.Trigger(ch)   // start a conversion (fast)
//	code, err := d.Collect(ch)   // ErrNotReady while the conversion runs
//
// Read performs Trigger followed by bounded polling.
package ads1015

import (
	"time"

	"tinygo.org/x/drivers"

	"loopcal-go/errcode"
)

// Address with ADDR tied to GND.
const Address = 0x48

const (
	regConversion = 0x00
	regConfig     = 0x01

	cfgOS         = 0x8000 // write: start; read: 1 when idle
	cfgMuxSingle  = 0x4000 // AINx vs GND; channel goes in bits 13:12
	cfgModeSingle = 0x0100
	cfgCompOff    = 0x0003
)

// Gain selects the PGA full-scale range.
type Gain uint16

const (
	Gain6V144 Gain = 0x0000
	Gain4V096 Gain = 0x0200
	Gain2V048 Gain = 0x0400
	Gain1V024 Gain = 0x0600
	Gain0V512 Gain = 0x0800
	Gain0V256 Gain = 0x0A00
)

// DataRate in samples per second.
type DataRate uint16

const (
	Rate128  DataRate = 0x0000
	Rate250  DataRate = 0x0020
	Rate490  DataRate = 0x0040
	Rate920  DataRate = 0x0060
	Rate1600 DataRate = 0x0080
	Rate2400 DataRate = 0x00A0
	Rate3300 DataRate = 0x00C0
)

// MaxCode is the largest single-ended reading.
const MaxCode = 2047

var (
	ErrNotReady       = &errcode.E{C: errcode.NotReady, Op: "ads1015"}
	ErrTimeout        = &errcode.E{C: errcode.Timeout, Op: "ads1015"}
	ErrInvalidChannel = &errcode.E{C: errcode.InvalidChannel, Op: "ads1015"}
)

// Config is optional; zero fields take defaults.
type Config struct {
	Address uint16
	Gain    Gain     // default ±4.096 V
	Rate    DataRate // default 1600 SPS
	// PollInterval is used by Read between Collect attempts. Default 1 ms.
	PollInterval time.Duration
	// CollectTimeout bounds the total wait in Read. Default 20 ms.
	CollectTimeout time.Duration
}

type Device struct {
	bus     drivers.I2C
	Address uint16

	cfg     Config
	pending int // channel of the conversion in flight, -1 when none
	wbuf    [3]byte
	rbuf    [2]byte
}

// New creates the device object; it does not touch the bus.
func New(bus drivers.I2C) *Device {
	d := &Device{bus: bus, Address: Address, pending: -1}
	d.Configure(Config{})
	return d
}

func (d *Device) Configure(c Config) {
	if c.Address != 0 {
		d.Address = c.Address
	}
	if c.Gain == 0 {
		c.Gain = Gain4V096
	}
	if c.Rate == 0 {
		c.Rate = Rate1600
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Millisecond
	}
	if c.CollectTimeout <= 0 {
		c.CollectTimeout = 20 * time.Millisecond
	}
	c.Address = d.Address
	d.cfg = c
}

// conversionTime is one sample period plus margin.
func (d *Device) conversionTime() time.Duration {
	switch d.cfg.Rate {
	case Rate128:
		return 8 * time.Millisecond
	case Rate250:
		return 4 * time.Millisecond
	case Rate490:
		return 2100 * time.Microsecond
	case Rate920:
		return 1100 * time.Microsecond
	}
	return 700 * time.Microsecond
}

func (d *Device) configWord(ch uint8) uint16 {
	return cfgOS | cfgMuxSingle | uint16(ch)<<12 | uint16(d.cfg.Gain) |
		cfgModeSingle | uint16(d.cfg.Rate) | cfgCompOff
}

// Trigger starts a single-shot conversion on input ch (0..3) and returns the
// nominal conversion time.
func (d *Device) Trigger(ch uint8) (time.Duration, error) {
	if ch > 3 {
		return 0, ErrInvalidChannel
	}
	w := d.configWord(ch)
	d.wbuf = [3]byte{regConfig, byte(w >> 8), byte(w)}
	if err := d.bus.Tx(d.Address, d.wbuf[:], nil); err != nil {
		d.pending = -1
		return 0, err
	}
	d.pending = int(ch)
	return d.conversionTime(), nil
}

func (d *Device) readReg(reg byte) (uint16, error) {
	d.wbuf[0] = reg
	if err := d.bus.Tx(d.Address, d.wbuf[:1], d.rbuf[:]); err != nil {
		return 0, err
	}
	return uint16(d.rbuf[0])<<8 | uint16(d.rbuf[1]), nil
}

// Collect returns the result of the conversion started on ch. Negative
// single-ended readings (offset noise) are reported as 0.
func (d *Device) Collect(ch uint8) (uint16, error) {
	if d.pending != int(ch) {
		return 0, ErrInvalidChannel
	}
	cfg, err := d.readReg(regConfig)
	if err != nil {
		return 0, err
	}
	if cfg&cfgOS == 0 {
		return 0, ErrNotReady
	}
	raw, err := d.readReg(regConversion)
	if err != nil {
		return 0, err
	}
	d.pending = -1
	v := int16(raw) >> 4
	if v < 0 {
		v = 0
	}
	return uint16(v), nil
}

// Read triggers and polls until the conversion completes or CollectTimeout
// elapses.
func (d *Device) Read(ch uint8) (uint16, error) {
	if _, err := d.Trigger(ch); err != nil {
		return 0, err
	}
	deadline := time.Now().Add(d.cfg.CollectTimeout)
	for {
		code, err := d.Collect(ch)
		switch err {
		case nil:
			return code, nil
		case ErrNotReady:
			if time.Now().After(deadline) {
				d.pending = -1
				return 0, ErrTimeout
			}
			time.Sleep(d.cfg.PollInterval)
		default:
			return 0, err
		}
	}
}
