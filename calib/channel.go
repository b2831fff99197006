package calib

// Channel binds a calibration State to one converter. It keeps the last raw
// code it observed so that a calibration point can be captured against it.
type Channel struct {
	name     string
	state    State
	maxCode  int32
	lastCode int32
	value    int32
}

// NewChannel creates a channel with manufacturer defaults. maxCode caps
// CodeFor (output channels); zero leaves it unbounded (input channels).
func NewChannel(name string, defaults State, maxCode int32) *Channel {
	_ = defaults.Recompute()
	return &Channel{name: name, state: defaults, maxCode: maxCode}
}

func (c *Channel) Name() string    { return c.name }
func (c *Channel) State() State    { return c.state }
func (c *Channel) LastCode() int32 { return c.lastCode }
func (c *Channel) MaxCode() int32  { return c.maxCode }

// Value is the last converted reading. Negative results read as zero.
func (c *Channel) Value() int32 { return c.value }

func (c *Channel) SetMaxCode(max int32) { c.maxCode = max }

// Observe records a raw code and converts it.
func (c *Channel) Observe(code int32) int32 {
	c.lastCode = code
	v := c.state.ValueFromCode(code)
	if v < 0 {
		v = 0
	}
	c.value = v
	return v
}

// CodeFor converts a desired value into a code, capped at the channel ceiling.
func (c *Channel) CodeFor(value int32) int32 {
	return c.state.CodeFromValue(value, c.maxCode)
}

// SavePoint captures point n from the last observed code and the operator's
// reference value. Coefficients are untouched until Calibrate.
func (c *Channel) SavePoint(n int, reference int32) error {
	return c.state.Capture(n, reference, c.lastCode)
}

// Calibrate recomputes the coefficients from the captured points.
func (c *Channel) Calibrate() error {
	return c.state.Recompute()
}

// Apply installs a stored calibration. An unusable one is refused and the
// current calibration stays in force.
func (c *Channel) Apply(stored State) error {
	if err := stored.Recompute(); err != nil {
		return err
	}
	c.state = stored
	return nil
}

// ForSave exports the calibration for persistence.
func (c *Channel) ForSave() State { return c.state }
