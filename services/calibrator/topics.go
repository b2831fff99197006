package calibrator

import "loopcal-go/bus"

const (
	tokCal     = "cal"
	tokControl = "control"
)

// Control verbs: cal/control/<verb>.
const (
	VerbSetProfile      = "set_profile"
	VerbSetSetpoint     = "set_setpoint"
	VerbSetWaveMin      = "set_wave_min"
	VerbSetWaveMax      = "set_wave_max"
	VerbSetPeriod       = "set_period"
	VerbSetCycles       = "set_cycles"
	VerbRestartCycles   = "restart_cycles"
	VerbSetMode         = "set_mode"
	VerbSetWaveform     = "set_waveform"
	VerbSetOutput       = "set_output"
	VerbGetOutput       = "get_output"
	VerbGetStatus       = "get_status"
	VerbCalPoint        = "cal_point"
	VerbCalApply        = "cal_apply"
	VerbCalExport       = "cal_export"
	VerbCalImport       = "cal_import"
	VerbCalDrive        = "cal_drive"
	VerbSaveSettings    = "save_settings"
	VerbSaveCalibration = "save_calibration"
)

func TopicStatus() bus.Topic               { return bus.T(tokCal, "status") }
func TopicOutput() bus.Topic               { return bus.T(tokCal, "output") }
func TopicState() bus.Topic                { return bus.T(tokCal, "state") }
func TopicFault() bus.Topic                { return bus.T(tokCal, "event", "fault") }
func TopicIndicator(name string) bus.Topic { return bus.T(tokCal, "indicator", name) }
func TopicControl(verb string) bus.Topic   { return bus.T(tokCal, tokControl, verb) }

func topicConfig() bus.Topic     { return bus.T("config", "calibrator") }
func controlWildcard() bus.Topic { return bus.T(tokCal, tokControl, bus.WildSingle) }
