package types

// SystemSettings hold factory calibration, restored in every operating mode.
type SystemSettings struct {
	Current CalibrationValue `json:"adc_current"`
	Voltage CalibrationValue `json:"adc_voltage"`
	Output  CalibrationValue `json:"dac"`
}

// UserSettings hold operator output settings, restored in normal mode only.
type UserSettings struct {
	Setpoints     []int32 `json:"setpoints_ua"`
	ActiveProfile int     `json:"active_profile"`
	Waveform      string  `json:"waveform"`
	PeriodMs      int32   `json:"period_ms"`
	WaveMinUA     int32   `json:"wave_min_ua"`
	WaveMaxUA     int32   `json:"wave_max_ua"`
	TotalCycles   int32   `json:"total_cycles"`
}
