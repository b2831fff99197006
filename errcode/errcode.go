package errcode

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK             Code = "ok"
	Busy           Code = "busy"
	Unsupported    Code = "unsupported"
	InvalidParams  Code = "invalid_params"
	InvalidPayload Code = "invalid_payload"
	InvalidTopic   Code = "invalid_topic"
	NotConfigured  Code = "not_configured"
	Timeout        Code = "timeout"
	NotReady       Code = "not_ready"

	// Calibration
	InvalidGeometry Code = "invalid_geometry" // both points share one code
	InvalidChannel  Code = "invalid_channel"
	InvalidPoint    Code = "invalid_point"

	// Operating mode
	ServiceMode Code = "service_mode_only"
	NormalMode  Code = "normal_mode_only"

	// Settings store
	StoreFailed Code = "store_failed"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap builds an *E for op around cause err.
func Wrap(c Code, op string, err error) *E {
	e := &E{C: c, Op: op, Err: err}
	if err != nil {
		e.Msg = err.Error()
	}
	return e
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// MapDriverErr maps low-level converter errors to a Code. Drivers report
// conversions in flight and bus stalls through these sentinels.
func MapDriverErr(err error, notReady, timeout error) Code {
	switch {
	case err == nil:
		return OK
	case notReady != nil && err == notReady:
		return NotReady
	case timeout != nil && err == timeout:
		return Timeout
	}
	return Of(err)
}
