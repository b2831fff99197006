// Package mcp4725 drives the MCP4725 12-bit I²C DAC using fast-mode writes.
// The output stage is gated off through the power-down bits, which pull the
// pin to ground through 1 kΩ and leave the loop driver without a setpoint.
package mcp4725

import (
	"tinygo.org/x/drivers"

	"loopcal-go/errcode"
)

// Address with A0 tied to GND.
const Address = 0x60

// MaxCode is the full-scale code.
const MaxCode = 4095

// PowerDown selects the output load while disabled.
type PowerDown uint8

const (
	PowerDown1K   PowerDown = 1
	PowerDown100K PowerDown = 2
	PowerDown500K PowerDown = 3
)

var ErrRange = &errcode.E{C: errcode.InvalidParams, Op: "mcp4725", Msg: "code out of range"}

type Config struct {
	Address   uint16
	PowerDown PowerDown // default 1 kΩ
}

type Device struct {
	bus     drivers.I2C
	Address uint16

	pd      PowerDown
	code    uint16
	enabled bool
	buf     [2]byte
}

// New returns a disabled device; nothing is written until the first call.
func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, Address: Address, pd: PowerDown1K}
}

func (d *Device) Configure(c Config) {
	if c.Address != 0 {
		d.Address = c.Address
	}
	if c.PowerDown != 0 {
		d.pd = c.PowerDown & 0x03
	}
}

func (d *Device) Code() uint16  { return d.code }
func (d *Device) Enabled() bool { return d.enabled }

// WriteCode sets the DAC code. While disabled the code is latched but the
// output stays powered down.
func (d *Device) WriteCode(code uint16) error {
	if code > MaxCode {
		return ErrRange
	}
	d.code = code
	return d.write()
}

// SetEnabled powers the output up with the latched code, or down.
func (d *Device) SetEnabled(on bool) error {
	d.enabled = on
	return d.write()
}

func (d *Device) write() error {
	var pd byte
	if !d.enabled {
		pd = byte(d.pd)
	}
	d.buf[0] = pd<<4 | byte(d.code>>8)&0x0F
	d.buf[1] = byte(d.code)
	return d.bus.Tx(d.Address, d.buf[:], nil)
}
