// Package console is the operator's line interface to the calibrator. Each
// line is tokenised, mapped to a control verb and sent as a request on
// cal/control/<verb>; the reply is printed back on the same port.
package console

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"loopcal-go/bus"
	"loopcal-go/services/calibrator"
	"loopcal-go/services/config"
	"loopcal-go/types"
	"loopcal-go/x/fmtx"
)

const (
	serviceName    = "console"
	defaultPrompt  = "> "
	defaultTimeout = 500 * time.Millisecond
	maxLine        = 128
	readChunk      = 64
)

// Port is the serial side of the console. uartx.UART and the host stdio
// adaptor both satisfy it.
type Port interface {
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
	Write(p []byte) (int, error)
}

type Option func(*Service)

func WithLogger(l *zap.SugaredLogger) Option { return func(s *Service) { s.log = l } }
func WithPrompt(p string) Option             { return func(s *Service) { s.prompt = p } }
func WithTimeout(d time.Duration) Option     { return func(s *Service) { s.timeout = d } }

type Service struct {
	conn    *bus.Connection
	port    Port
	log     *zap.SugaredLogger
	prompt  string
	timeout time.Duration
}

func New(conn *bus.Connection, port Port, opts ...Option) *Service {
	s := &Service{
		conn:    conn,
		port:    port,
		prompt:  defaultPrompt,
		timeout: defaultTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = zap.NewNop().Sugar()
	}
	s.log = s.log.Named(serviceName)
	return s
}

type line struct {
	text    string
	tooLong bool
}

// Run serves the port until ctx ends or the port reports io.EOF.
func (s *Service) Run(ctx context.Context) error {
	cfgSub := s.conn.Subscribe(config.Topic(serviceName))
	defer s.conn.Unsubscribe(cfgSub)

	rctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := make(chan line, 4)
	errc := make(chan error, 1)
	go func() { errc <- readLines(rctx, s.port, lines) }()

	s.write(s.prompt)
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-cfgSub.Channel():
			if msg != nil {
				s.applyConfig(msg.Payload)
			}
		case l, ok := <-lines:
			if !ok {
				err := <-errc
				if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			if l.tooLong {
				s.write("error: line too long\n")
			} else {
				s.handle(ctx, l.text)
			}
			s.write(s.prompt)
		}
	}
}

func (s *Service) applyConfig(p any) {
	var c types.ConsoleConfig
	if err := config.Decode(p, &c); err != nil {
		s.log.Warnw("invalid console config", "error", err)
		return
	}
	if c.Prompt != "" {
		s.prompt = c.Prompt
	}
	if c.RequestTimeoutMs > 0 {
		s.timeout = time.Duration(c.RequestTimeoutMs) * time.Millisecond
	}
	s.log.Debugw("configured", "prompt", s.prompt, "timeout", s.timeout)
}

func (s *Service) handle(ctx context.Context, text string) {
	cmd, err := Parse(text)
	if err != nil {
		s.write(fmtx.Sprintf("error: %s\n", errText(err)))
		return
	}
	switch cmd.Verb {
	case "":
		return
	case VerbHelp:
		s.write(helpText)
		return
	}

	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	req := s.conn.NewMessage(calibrator.TopicControl(cmd.Verb), cmd.Payload, false)
	reply, err := s.conn.RequestWait(rctx, req)
	if err != nil {
		s.log.Debugw("request failed", "verb", cmd.Verb, "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			s.write("error: timeout\n")
		} else {
			s.write(fmtx.Sprintf("error: %v\n", err))
		}
		return
	}
	s.write(formatReply(reply.Payload))
}

func (s *Service) write(text string) {
	if _, err := s.port.Write([]byte(text)); err != nil {
		s.log.Warnw("port write", "error", err)
	}
}

// readLines accumulates bytes into LF-terminated lines, ignoring CR. Bytes
// past maxLine are dropped and the line is flagged. It closes out on return.
func readLines(ctx context.Context, p Port, out chan<- line) error {
	defer close(out)
	buf := make([]byte, readChunk)
	cur := make([]byte, 0, maxLine)
	over := false
	for {
		n, err := p.RecvSomeContext(ctx, buf)
		for i := 0; i < n; i++ {
			switch b := buf[i]; b {
			case '\n':
				select {
				case out <- line{text: string(cur), tooLong: over}:
				case <-ctx.Done():
					return ctx.Err()
				}
				cur = cur[:0]
				over = false
			case '\r':
			default:
				if len(cur) < maxLine {
					cur = append(cur, b)
				} else {
					over = true
				}
			}
		}
		if err != nil {
			return err
		}
	}
}
