package calibrator

import (
	"loopcal-go/bus"
	"loopcal-go/errcode"
	"loopcal-go/output"
	"loopcal-go/services/config"
	"loopcal-go/types"
)

// payloadAs accepts either the typed payload or a JSON-shaped map.
func payloadAs[T any](p any) (T, error) {
	if v, ok := p.(T); ok {
		return v, nil
	}
	var v T
	if p == nil {
		return v, errcode.InvalidPayload
	}
	if err := config.Decode(p, &v); err != nil {
		return v, errcode.InvalidPayload
	}
	return v, nil
}

func (s *Service) handleControl(msg *bus.Message) {
	// cal/control/<verb>
	verb, _ := msg.Topic.At(2).(string)
	res, err := s.control(verb, msg.Payload)
	if !msg.CanReply() {
		return
	}
	if err != nil {
		code := errcode.Of(err)
		s.log.Debugw("control failed", "verb", verb, "error", err)
		s.conn.Reply(msg, types.ErrorReply{OK: false, Error: string(code)}, false)
		return
	}
	s.conn.Reply(msg, res, false)
}

func intReply(v int32) types.IntReply { return types.IntReply{OK: true, Value: v} }

var okReply = types.OKReply{OK: true}

func (s *Service) control(verb string, p any) (any, error) {
	out := s.core.Output()
	switch verb {
	case VerbSetProfile, VerbSetSetpoint, VerbSetWaveMin, VerbSetWaveMax, VerbSetPeriod, VerbSetCycles:
		v, err := payloadAs[types.SetValue](p)
		if err != nil {
			return nil, err
		}
		switch verb {
		case VerbSetProfile:
			return intReply(int32(out.SetProfile(int(v.Value)))), nil
		case VerbSetSetpoint:
			return intReply(out.SetConstSetpoint(v.Value)), nil
		case VerbSetWaveMin:
			return intReply(out.SetWaveMin(v.Value)), nil
		case VerbSetWaveMax:
			return intReply(out.SetWaveMax(v.Value)), nil
		case VerbSetPeriod:
			return intReply(out.SetPeriod(v.Value)), nil
		default:
			return intReply(out.SetTotalCycles(v.Value)), nil
		}

	case VerbRestartCycles:
		return intReply(out.RestartCycles()), nil

	case VerbSetMode:
		v, err := payloadAs[types.SetMode](p)
		if err != nil {
			return nil, err
		}
		m, err := output.ParseMode(v.Mode)
		if err != nil {
			return nil, err
		}
		out.SetMode(m)
		return okReply, nil

	case VerbSetWaveform:
		v, err := payloadAs[types.SetWaveform](p)
		if err != nil {
			return nil, err
		}
		w, err := output.ParseWaveform(v.Waveform)
		if err != nil {
			return nil, err
		}
		out.SetWaveform(w)
		return okReply, nil

	case VerbSetOutput:
		v, err := payloadAs[types.SetOutput](p)
		if err != nil {
			return nil, err
		}
		out.SetOutputEnabled(v.On)
		return okReply, nil

	case VerbGetOutput:
		return s.core.Snapshot(), nil

	case VerbGetStatus:
		return s.statusValue(), nil

	case VerbCalPoint:
		if s.mode != ModeService {
			return nil, errcode.ServiceMode
		}
		v, err := payloadAs[types.CalPoint](p)
		if err != nil {
			return nil, err
		}
		ch, err := ParseChannel(v.Channel)
		if err != nil {
			return nil, err
		}
		if err := s.core.SaveCalibrationPoint(ch, v.Point, v.Reference); err != nil {
			return nil, err
		}
		return okReply, nil

	case VerbCalApply:
		if s.mode != ModeService {
			return nil, errcode.ServiceMode
		}
		ch, err := s.channelArg(p)
		if err != nil {
			return nil, err
		}
		if err := s.core.Calibrate(ch); err != nil {
			return nil, err
		}
		s.log.Infow("calibration applied", "channel", ch)
		return toValue(s.core.CalibrationForSave(ch)), nil

	case VerbCalExport:
		ch, err := s.channelArg(p)
		if err != nil {
			return nil, err
		}
		return toValue(s.core.CalibrationForSave(ch)), nil

	case VerbCalImport:
		if s.mode != ModeService {
			return nil, errcode.ServiceMode
		}
		v, err := payloadAs[types.CalImport](p)
		if err != nil {
			return nil, err
		}
		ch, err := ParseChannel(v.Channel)
		if err != nil {
			return nil, err
		}
		if err := s.core.ApplyCalibration(ch, fromValue(v.Cal)); err != nil {
			return nil, err
		}
		return okReply, nil

	case VerbCalDrive:
		v, err := payloadAs[types.CalDrive](p)
		if err != nil {
			return nil, err
		}
		ua, err := s.core.DriveCalibrationPoint(v.Point)
		if err != nil {
			return nil, err
		}
		return intReply(ua), nil

	case VerbSaveSettings:
		if s.mode != ModeNormal {
			return nil, errcode.NormalMode
		}
		if err := s.store.SaveUser(s.core.UserSettings()); err != nil {
			s.log.Errorw("save settings", "error", err)
			return nil, errcode.Wrap(errcode.StoreFailed, verb, err)
		}
		return okReply, nil

	case VerbSaveCalibration:
		if s.mode != ModeService {
			return nil, errcode.ServiceMode
		}
		if err := s.store.SaveSystem(s.core.SystemSettings()); err != nil {
			s.log.Errorw("save calibration", "error", err)
			return nil, errcode.Wrap(errcode.StoreFailed, verb, err)
		}
		return okReply, nil
	}
	return nil, errcode.Unsupported
}

func (s *Service) channelArg(p any) (Channel, error) {
	v, err := payloadAs[types.CalChannel](p)
	if err != nil {
		return 0, err
	}
	return ParseChannel(v.Channel)
}
