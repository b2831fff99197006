package console

import (
	"strings"

	"github.com/google/shlex"

	"loopcal-go/errcode"
	"loopcal-go/services/calibrator"
	"loopcal-go/types"
	"loopcal-go/x/fmtx"
	"loopcal-go/x/strconvx"
)

// VerbHelp is answered locally and never reaches the bus.
const VerbHelp = "help"

// Command is one parsed console line. An empty Verb means a blank line.
type Command struct {
	Verb    string
	Payload any
}

const helpText = `profile <n>            select setpoint profile
setpoint <uA>          constant setpoint of the active profile
mode const|wave        output mode
wave meandr|saw|saw_rev|tri
min <uA> | max <uA>    waveform range
period <ms>            waveform period
cycles <n> | restart   cycle count and restart
out on|off             enable the output
status | output        show loop status or output configuration
cal <ch> <1|2> <ref>   capture a calibration point (ch: current|voltage|output)
cal apply|export <ch>  compute or show a channel calibration
cal drive <1|2>        drive the output at a calibration point
save | save cal        persist user settings or calibration
`

var valueVerbs = map[string]string{
	"profile":  calibrator.VerbSetProfile,
	"setpoint": calibrator.VerbSetSetpoint,
	"sp":       calibrator.VerbSetSetpoint,
	"min":      calibrator.VerbSetWaveMin,
	"max":      calibrator.VerbSetWaveMax,
	"period":   calibrator.VerbSetPeriod,
	"cycles":   calibrator.VerbSetCycles,
}

func usage(msg string) error {
	return &errcode.E{C: errcode.InvalidParams, Op: serviceName, Msg: msg}
}

func number(s string) (int32, error) {
	v, err := strconvx.ParseInt(s, 10, 32)
	if err != nil {
		return 0, usage("not a number: " + s)
	}
	return int32(v), nil
}

// Parse maps a console line to a control verb and its typed payload.
func Parse(text string) (Command, error) {
	args, err := shlex.Split(text)
	if err != nil {
		return Command{}, usage(err.Error())
	}
	if len(args) == 0 {
		return Command{}, nil
	}
	word := strings.ToLower(args[0])
	args = args[1:]

	if verb, ok := valueVerbs[word]; ok {
		if len(args) != 1 {
			return Command{}, usage(word + " takes one value")
		}
		v, err := number(args[0])
		if err != nil {
			return Command{}, err
		}
		return Command{Verb: verb, Payload: types.SetValue{Value: v}}, nil
	}

	switch word {
	case VerbHelp, "?":
		return Command{Verb: VerbHelp}, nil
	case "restart":
		return Command{Verb: calibrator.VerbRestartCycles}, nil
	case "status":
		return Command{Verb: calibrator.VerbGetStatus}, nil
	case "output":
		return Command{Verb: calibrator.VerbGetOutput}, nil
	case "mode":
		if len(args) != 1 {
			return Command{}, usage("mode const|wave")
		}
		return Command{Verb: calibrator.VerbSetMode, Payload: types.SetMode{Mode: args[0]}}, nil
	case "wave":
		if len(args) != 1 {
			return Command{}, usage("wave meandr|saw|saw_rev|tri")
		}
		return Command{Verb: calibrator.VerbSetWaveform, Payload: types.SetWaveform{Waveform: args[0]}}, nil
	case "out":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return Command{}, usage("out on|off")
		}
		return Command{Verb: calibrator.VerbSetOutput, Payload: types.SetOutput{On: args[0] == "on"}}, nil
	case "save":
		switch {
		case len(args) == 0:
			return Command{Verb: calibrator.VerbSaveSettings}, nil
		case len(args) == 1 && args[0] == "cal":
			return Command{Verb: calibrator.VerbSaveCalibration}, nil
		}
		return Command{}, usage("save | save cal")
	case "cal":
		return parseCal(args)
	}
	return Command{}, usage("unknown command: " + word)
}

func parseCal(args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, usage("cal <ch> <1|2> <ref> | cal apply|export <ch> | cal drive <1|2>")
	}
	switch args[0] {
	case "apply":
		return Command{Verb: calibrator.VerbCalApply, Payload: types.CalChannel{Channel: args[1]}}, nil
	case "export":
		return Command{Verb: calibrator.VerbCalExport, Payload: types.CalChannel{Channel: args[1]}}, nil
	case "drive":
		n, err := number(args[1])
		if err != nil {
			return Command{}, err
		}
		return Command{Verb: calibrator.VerbCalDrive, Payload: types.CalDrive{Point: int(n)}}, nil
	}
	if len(args) != 3 {
		return Command{}, usage("cal <ch> <1|2> <ref>")
	}
	point, err := number(args[1])
	if err != nil {
		return Command{}, err
	}
	ref, err := number(args[2])
	if err != nil {
		return Command{}, err
	}
	return Command{
		Verb:    calibrator.VerbCalPoint,
		Payload: types.CalPoint{Channel: args[0], Point: int(point), Reference: ref},
	}, nil
}

func errText(err error) string {
	if e, ok := err.(*errcode.E); ok && e.Msg != "" {
		return e.Msg
	}
	return string(errcode.Of(err))
}

func formatReply(p any) string {
	switch v := p.(type) {
	case types.OKReply:
		return "ok\n"
	case types.IntReply:
		return fmtx.Sprintf("ok %d\n", v.Value)
	case types.ErrorReply:
		return fmtx.Sprintf("error: %s\n", v.Error)
	case types.LoopStatusValue:
		return fmtx.Sprintf("I=%d uA U=%d mV break=%t error=%t\n",
			v.CurrentUA, v.VoltageMV, v.Break, v.Error)
	case types.OutputSnapshot:
		return formatSnapshot(v)
	case types.CalibrationValue:
		return fmtx.Sprintf("p1=%d:%d p2=%d:%d gain=%d offset=%d scale=%d\n",
			v.Code1, v.Value1, v.Code2, v.Value2, v.Gain, v.Offset, v.Scale)
	}
	return fmtx.Sprintf("%v\n", p)
}

func formatSnapshot(v types.OutputSnapshot) string {
	var b strings.Builder
	for i, sp := range v.Setpoints {
		mark := " "
		if i == v.ActiveProfile {
			mark = "*"
		}
		b.WriteString(fmtx.Sprintf("%s profile %d: %d uA\n", mark, i, sp))
	}
	b.WriteString(fmtx.Sprintf("mode %s wave %s period %d ms range %d..%d uA\n",
		v.Mode, v.Waveform, v.PeriodMs, v.WaveMinUA, v.WaveMaxUA))
	b.WriteString(fmtx.Sprintf("cycle %d/%d finished=%t out=%t target %d uA code %d\n",
		v.CurrentCycle, v.TotalCycles, v.Finished, v.OutputEnabled, v.TargetUA, v.Code))
	return b.String()
}
