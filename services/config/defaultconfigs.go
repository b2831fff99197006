package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgSim = `{
  "calibrator": {
    "tick_ms": 10,
    "voltage_every": 4,
    "oversample": 4,
    "publish_every": 10,
    "blink_period": 25,
    "break_threshold_ua": 50,
    "error_threshold_ua": 500,
    "voltage_zero_floor_mv": 500,
    "max_output_code": 4013,
    "terminal_policy": "disable",
    "acquire_timeout_ms": 20
  },
  "console": {
    "prompt": "cal> ",
    "request_timeout_ms": 500
  },
  "heartbeat": {
    "interval_ms": 5000
  }
}`

const cfgPico = `{
  "calibrator": {
    "tick_ms": 10,
    "voltage_every": 4,
    "oversample": 4,
    "publish_every": 25,
    "max_output_code": 4013,
    "terminal_policy": "disable",
    "acquire_timeout_ms": 10
  },
  "console": {
    "prompt": "> ",
    "request_timeout_ms": 250
  },
  "heartbeat": {
    "interval_ms": 1000
  }
}`

var embeddedConfigs = map[string][]byte{
	"sim":  []byte(cfgSim),
	"pico": []byte(cfgPico),
}
