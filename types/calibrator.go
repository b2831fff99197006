package types

// ------------------------
// Loop status (retained: cal/status)
// ------------------------

type LoopStatusValue struct {
	Status    uint8 `json:"status"` // bitmask: 1 = break, 2 = error
	Break     bool  `json:"break"`
	Error     bool  `json:"error"`
	CurrentUA int32 `json:"current_ua"`
	VoltageMV int32 `json:"voltage_mv"`
	TSms      int64 `json:"ts_ms"`
}

// IndicatorValue drives one front-panel indicator (cal/indicator/<name>).
type IndicatorValue struct {
	On bool `json:"on"`
}

// ------------------------
// Output configuration (retained: cal/output)
// ------------------------

type OutputSnapshot struct {
	Setpoints     []int32 `json:"setpoints_ua"`
	ActiveProfile int     `json:"active_profile"`
	Mode          string  `json:"mode"`     // "const" | "wave"
	Waveform      string  `json:"waveform"` // "meandr" | "saw" | "saw_rev" | "tri"
	PeriodMs      int32   `json:"period_ms"`
	WaveMinUA     int32   `json:"wave_min_ua"`
	WaveMaxUA     int32   `json:"wave_max_ua"`
	TotalCycles   int32   `json:"total_cycles"`
	CurrentCycle  int32   `json:"current_cycle"`
	OutputEnabled bool    `json:"output_enabled"`
	Finished      bool    `json:"finished"`
	TargetUA      int32   `json:"target_ua"`
	Code          int32   `json:"code"`
}

// ------------------------
// Controls: cal/control/<verb>
// ------------------------

// SetValue carries the integer argument of set_profile, set_setpoint,
// set_wave_min, set_wave_max, set_period and set_cycles.
type SetValue struct {
	Value int32 `json:"value"`
}

type SetMode struct {
	Mode string `json:"mode"`
}

type SetWaveform struct {
	Waveform string `json:"waveform"`
}

type SetOutput struct {
	On bool `json:"on"`
}

// CalPoint captures calibration point 1 or 2 of a channel against the
// operator's reference reading.
type CalPoint struct {
	Channel   string `json:"channel"` // "current" | "voltage" | "output"
	Point     int    `json:"point"`
	Reference int32  `json:"reference"`
}

type CalChannel struct {
	Channel string `json:"channel"`
}

type CalImport struct {
	Channel string           `json:"channel"`
	Cal     CalibrationValue `json:"cal"`
}

// CalDrive drives the output at nominal calibration point 1 or 2.
type CalDrive struct {
	Point int `json:"point"`
}

// ------------------------
// Calibration (persisted by the settings store)
// ------------------------

type CalibrationValue struct {
	Code1  int32 `json:"code1"`
	Value1 int32 `json:"value1"`
	Code2  int32 `json:"code2"`
	Value2 int32 `json:"value2"`
	Scale  int32 `json:"scale"`
	Gain   int32 `json:"gain"`
	Offset int32 `json:"offset"`
}

// ------------------------
// Acquisition faults (cal/event/fault)
// ------------------------

type FaultEvent struct {
	Channel string `json:"channel"`
	Error   string `json:"error"`
	TSms    int64  `json:"ts_ms"`
}
