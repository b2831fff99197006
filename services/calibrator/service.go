// Package calibrator runs the loop calibrator: one goroutine owns the core
// state, samples the converters on every tick, drives the output, classifies
// the loop and publishes the results on the bus.
//
// Topics:
//
//	cal/status              retained types.LoopStatusValue
//	cal/indicator/break     retained types.IndicatorValue, on change
//	cal/indicator/error     retained types.IndicatorValue, on change
//	cal/output              retained types.OutputSnapshot, on change
//	cal/state               retained types.ServiceState
//	cal/event/fault         types.FaultEvent
//	cal/control/<verb>      request/reply
package calibrator

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"loopcal-go/bus"
	"loopcal-go/errcode"
	"loopcal-go/loopmon"
	"loopcal-go/services/config"
	"loopcal-go/services/settings"
	"loopcal-go/types"
)

type Option func(*Service)

func WithLogger(l *zap.SugaredLogger) Option { return func(s *Service) { s.log = l } }
func WithClock(c clock.Clock) Option         { return func(s *Service) { s.clk = c } }
func WithMode(m DeviceMode) Option           { return func(s *Service) { s.mode = m } }

// WithConfig sets the configuration used until one arrives on the bus.
func WithConfig(c types.CalibratorConfig) Option { return func(s *Service) { s.initial = c } }

type Service struct {
	conn  *bus.Connection
	hw    Hardware
	store settings.Store
	log   *zap.SugaredLogger
	clk   clock.Clock

	mode    DeviceMode
	initial types.CalibratorConfig
	core    *Core

	ticker *clock.Ticker
	ticks  uint64

	// Last state pushed to the output stage; ok flags clear on write errors.
	outCode   int32
	outCodeOK bool
	outOn     bool
	outOnOK   bool

	indicatorsSent bool
	lastStatus     loopmon.Status

	faults map[string]errcode.Code
}

// New builds the service. A nil store keeps settings in memory.
func New(conn *bus.Connection, hw Hardware, store settings.Store, opts ...Option) *Service {
	s := &Service{
		conn:    conn,
		hw:      hw,
		store:   store,
		initial: types.DefaultCalibratorConfig(),
		faults:  map[string]errcode.Code{},
	}
	for _, o := range opts {
		o(s)
	}
	if s.store == nil {
		s.store = settings.NewMemory()
	}
	if s.log == nil {
		s.log = zap.NewNop().Sugar()
	}
	if s.clk == nil {
		s.clk = clock.New()
	}
	s.log = s.log.Named("calibrator")
	s.core = NewCore(s.mode, s.initial, WithInputFullScale(hw.InputFullScale))
	return s
}

// Core exposes the state for inspection. Only safe while Run is not active.
func (s *Service) Core() *Core { return s.core }

func (s *Service) tickPeriod() time.Duration {
	return time.Duration(s.core.Config().TickMs) * time.Millisecond
}

// Run restores settings and serves ticks, configuration and controls until
// ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfig())
	ctrlSub := s.conn.Subscribe(controlWildcard())
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(ctrlSub)

	status := "booted"
	if err := s.restore(); err != nil {
		status = "restored_with_errors"
		for _, e := range multierr.Errors(err) {
			s.log.Warnw("settings restore", "error", e)
		}
	}
	s.ticker = s.clk.Ticker(s.tickPeriod())
	defer func() { s.ticker.Stop() }()

	s.publishOutput()
	s.publishState("ready", status)
	s.log.Infow("calibrator running", "mode", s.mode, "tick", s.tickPeriod())

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			s.publishState("stopped", "context_cancelled")
			return
		case msg := <-cfgSub.Channel():
			if msg != nil {
				s.applyConfig(msg.Payload)
			}
		case msg := <-ctrlSub.Channel():
			if msg != nil {
				s.handleControl(msg)
			}
		case <-s.ticker.C:
			s.step(ctx)
		}
	}
}

// restore loads calibration in every mode and operator settings in normal
// mode only. Missing settings leave the defaults in place.
func (s *Service) restore() error {
	var err error
	if sys, e := s.store.LoadSystem(); e == nil {
		err = multierr.Append(err, s.core.ApplySystem(sys))
	} else if e != settings.ErrNotFound {
		err = multierr.Append(err, errcode.Wrap(errcode.StoreFailed, "load_system", e))
	} else {
		s.log.Infow("no stored calibration, using defaults")
	}
	if s.mode != ModeNormal {
		return err
	}
	if u, e := s.store.LoadUser(); e == nil {
		err = multierr.Append(err, s.core.ApplyUser(u))
	} else if e != settings.ErrNotFound {
		err = multierr.Append(err, errcode.Wrap(errcode.StoreFailed, "load_user", e))
	}
	return err
}

func (s *Service) shutdown() {
	if s.hw.DAC == nil {
		return
	}
	if err := s.hw.DAC.SetEnabled(false); err != nil {
		s.log.Warnw("output off at shutdown", "error", err)
	}
}

// decodeConfig accepts a typed config or a JSON-shaped map.
func decodeConfig(p any) (types.CalibratorConfig, error) {
	switch v := p.(type) {
	case types.CalibratorConfig:
		return v, nil
	case *types.CalibratorConfig:
		if v != nil {
			return *v, nil
		}
		return types.CalibratorConfig{}, errcode.InvalidPayload
	}
	var c types.CalibratorConfig
	if err := config.Decode(p, &c); err != nil {
		return c, errcode.Wrap(errcode.InvalidPayload, "config", err)
	}
	return c, nil
}

// applyConfig takes effect at the next tick.
func (s *Service) applyConfig(p any) {
	cfg, err := decodeConfig(p)
	if err == nil {
		cfg = cfg.WithDefaults()
		err = multierr.Append(cfg.Validate(), s.core.CheckConfig(cfg))
	}
	if err != nil {
		s.log.Errorw("config rejected", "errors", multierr.Errors(err))
		s.publishState("error", "config_invalid")
		return
	}
	old := s.core.Config()
	s.core.SetConfig(cfg)
	if cfg.TickMs != old.TickMs && s.ticker != nil {
		s.ticker.Stop()
		s.ticker = s.clk.Ticker(s.tickPeriod())
	}
	s.log.Infow("config applied", "tick_ms", cfg.TickMs, "terminal_policy", cfg.TerminalPolicy)
	s.publishState("ready", "configured")
}

// ------------------------
// Tick
// ------------------------

func (s *Service) step(ctx context.Context) {
	s.ticks++
	cfg := s.core.Config()

	// Readings reflect the code written on the previous tick.
	if v, err := s.sample(ctx, "current", s.hw.CurrentCh); err == nil {
		s.core.UpdateLoopCurrent(v)
	}
	if s.mode == ModeService || s.ticks%uint64(cfg.VoltageEvery) == 0 {
		if v, err := s.sample(ctx, "voltage", s.hw.VoltageCh); err == nil {
			s.core.UpdateLoopVoltage(v)
		}
	}

	st := s.core.UpdateLoopMonitor()
	code, on := s.core.Step(s.tickPeriod())
	s.drive(code, on)

	s.publishIndicators(st)
	if s.ticks%uint64(cfg.PublishEvery) == 0 {
		s.publishStatus()
	}
	if s.core.Output().TakeDirty() {
		s.publishOutput()
	}
}

func (s *Service) drive(code int32, on bool) {
	if s.hw.DAC == nil {
		return
	}
	if !s.outCodeOK || code != s.outCode {
		if err := s.hw.DAC.WriteCode(uint16(code)); err != nil {
			s.outCodeOK = false
			s.fault("output", err)
			return
		}
		s.outCode, s.outCodeOK = code, true
	}
	if !s.outOnOK || on != s.outOn {
		if err := s.hw.DAC.SetEnabled(on); err != nil {
			s.outOnOK = false
			s.fault("output", err)
			return
		}
		s.outOn, s.outOnOK = on, true
	}
	s.clearFault("output")
}

// sample returns the oversampled raw code. On failure the channel keeps its
// previous reading.
func (s *Service) sample(ctx context.Context, name string, ch uint8) (int32, error) {
	if s.hw.ADC == nil {
		return 0, errcode.NotConfigured
	}
	cfg := s.core.Config()
	timeout := time.Duration(cfg.AcquireTimeoutMs) * time.Millisecond
	v, err := acquire(ctx, s.clk, s.hw.ADC, ch, int(cfg.Oversample), timeout)
	if err != nil {
		s.fault(name, err)
		return 0, err
	}
	s.clearFault(name)
	return v, nil
}

// fault reports a failing path once per distinct error code.
func (s *Service) fault(name string, err error) {
	code := errcode.Of(err)
	if prev, ok := s.faults[name]; ok && prev == code {
		return
	}
	s.faults[name] = code
	s.log.Warnw("acquisition fault", "channel", name, "error", err)
	s.conn.Publish(s.conn.NewMessage(TopicFault(), types.FaultEvent{
		Channel: name,
		Error:   string(code),
		TSms:    s.clk.Now().UnixMilli(),
	}, false))
}

func (s *Service) clearFault(name string) {
	if _, ok := s.faults[name]; ok {
		delete(s.faults, name)
		s.log.Infow("channel recovered", "channel", name)
	}
}

// ------------------------
// Publications
// ------------------------

func (s *Service) publishIndicators(st loopmon.Status) {
	changed := st ^ s.lastStatus
	if s.indicatorsSent && changed == 0 {
		return
	}
	if !s.indicatorsSent || changed.Break() {
		s.conn.Publish(s.conn.NewMessage(TopicIndicator("break"), types.IndicatorValue{On: st.Break()}, true))
	}
	if !s.indicatorsSent || changed.Error() {
		s.conn.Publish(s.conn.NewMessage(TopicIndicator("error"), types.IndicatorValue{On: st.Error()}, true))
	}
	s.indicatorsSent = true
	s.lastStatus = st
}

func (s *Service) statusValue() types.LoopStatusValue {
	st := s.core.LoopStatus()
	return types.LoopStatusValue{
		Status:    uint8(st),
		Break:     st.Break(),
		Error:     st.Error(),
		CurrentUA: s.core.LoopCurrent(),
		VoltageMV: s.core.LoopVoltage(),
		TSms:      s.clk.Now().UnixMilli(),
	}
}

func (s *Service) publishStatus() {
	s.conn.Publish(s.conn.NewMessage(TopicStatus(), s.statusValue(), true))
}

func (s *Service) publishOutput() {
	s.conn.Publish(s.conn.NewMessage(TopicOutput(), s.core.Snapshot(), true))
}

func (s *Service) publishState(level, status string) {
	s.conn.Publish(s.conn.NewMessage(TopicState(), types.ServiceState{
		Level:  level,
		Status: status,
		Mode:   s.mode.String(),
		TSms:   s.clk.Now().UnixMilli(),
	}, true))
}
