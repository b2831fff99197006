// Package heartbeat publishes a retained liveness record on sys/heartbeat
// at the interval given on config/heartbeat.
package heartbeat

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"loopcal-go/bus"
	"loopcal-go/services/config"
	"loopcal-go/types"
	"loopcal-go/x/timex"
)

const (
	serviceName     = "heartbeat"
	defaultInterval = time.Second
)

func Topic() bus.Topic { return bus.T("sys", serviceName) }

type Option func(*Service)

func WithLogger(l *zap.SugaredLogger) Option { return func(s *Service) { s.log = l } }
func WithClock(c clock.Clock) Option         { return func(s *Service) { s.clk = c } }

type Service struct {
	conn *bus.Connection
	log  *zap.SugaredLogger
	clk  clock.Clock

	interval time.Duration
	started  time.Time
	seq      uint32
}

func New(conn *bus.Connection, opts ...Option) *Service {
	s := &Service{conn: conn, interval: defaultInterval}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = zap.NewNop().Sugar()
	}
	if s.clk == nil {
		s.clk = clock.New()
	}
	s.log = s.log.Named(serviceName)
	return s
}

// Run publishes until ctx is cancelled, then clears the retained record.
func (s *Service) Run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(config.Topic(serviceName))
	defer s.conn.Unsubscribe(cfgSub)

	s.started = s.clk.Now()
	tick := s.clk.Ticker(s.interval)
	defer func() { tick.Stop() }()

	for {
		select {
		case <-ctx.Done():
			s.conn.Publish(s.conn.NewMessage(Topic(), nil, true))
			s.log.Infow("heartbeat stopping", "seq", s.seq)
			return
		case <-tick.C:
			s.beat()
		case msg := <-cfgSub.Channel():
			if msg == nil {
				continue
			}
			var c types.HeartbeatConfig
			if err := config.Decode(msg.Payload, &c); err != nil || c.IntervalMs == 0 {
				s.log.Warnw("invalid heartbeat config", "payload", msg.Payload, "error", err)
				continue
			}
			if d := time.Duration(c.IntervalMs) * time.Millisecond; d != s.interval {
				s.interval = d
				tick.Stop()
				tick = s.clk.Ticker(d)
				s.log.Debugw("interval set", "interval", d)
			}
		}
	}
}

func (s *Service) beat() {
	s.seq++
	now := s.clk.Now()
	s.conn.Publish(s.conn.NewMessage(Topic(), types.Heartbeat{
		Seq:      s.seq,
		UptimeMs: timex.Ms(now.Sub(s.started)),
		TSms:     now.UnixMilli(),
	}, true))
}
