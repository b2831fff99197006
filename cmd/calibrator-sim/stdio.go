package main

import (
	"context"
	"io"
)

// stdioPort adapts a blocking reader to console.Port. A single goroutine
// owns the reader; reads that outlive ctx are delivered to the next call.
type stdioPort struct {
	w     io.Writer
	chunk chan []byte
	err   chan error
	rest  []byte
}

func newStdioPort(r io.Reader, w io.Writer) *stdioPort {
	p := &stdioPort{w: w, chunk: make(chan []byte), err: make(chan error, 1)}
	go func() {
		for {
			buf := make([]byte, 256)
			n, err := r.Read(buf)
			if n > 0 {
				p.chunk <- buf[:n]
			}
			if err != nil {
				p.err <- err
				return
			}
		}
	}()
	return p
}

func (p *stdioPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	if len(p.rest) == 0 {
		select {
		case b := <-p.chunk:
			p.rest = b
		case err := <-p.err:
			return 0, err
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	n := copy(buf, p.rest)
	p.rest = p.rest[n:]
	return n, nil
}

func (p *stdioPort) Write(b []byte) (int, error) { return p.w.Write(b) }
