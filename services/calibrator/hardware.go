package calibrator

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"loopcal-go/errcode"
)

// Sampler is a converter with a two-phase conversion API. Collect returns
// an error whose code is errcode.NotReady while the conversion is running.
type Sampler interface {
	Trigger(ch uint8) (time.Duration, error)
	Collect(ch uint8) (uint16, error)
}

// OutputStage drives the loop.
type OutputStage interface {
	WriteCode(code uint16) error
	SetEnabled(on bool) error
}

// Hardware is what the service needs from the board. InputFullScale is the
// single-conversion code at 20 mA / 20 V; zero selects the 12-bit default.
type Hardware struct {
	ADC            Sampler
	CurrentCh      uint8
	VoltageCh      uint8
	InputFullScale int32
	DAC            OutputStage
}

const minPoll = 100 * time.Microsecond

// acquire sums n conversions of ch into one raw code. Each conversion is
// bounded by timeout on clk; the first failure abandons the whole sample.
func acquire(ctx context.Context, clk clock.Clock, adc Sampler, ch uint8, n int, timeout time.Duration) (int32, error) {
	var sum int32
	for i := 0; i < n; i++ {
		code, err := convert(ctx, clk, adc, ch, timeout)
		if err != nil {
			return 0, err
		}
		sum += int32(code)
	}
	return sum, nil
}

func convert(ctx context.Context, clk clock.Clock, adc Sampler, ch uint8, timeout time.Duration) (uint16, error) {
	hint, err := adc.Trigger(ch)
	if err != nil {
		return 0, err
	}
	cctx, cancel := clk.WithTimeout(ctx, timeout)
	defer cancel()

	wait := hint
	for {
		if wait > 0 {
			t := clk.Timer(wait)
			select {
			case <-cctx.Done():
				t.Stop()
				return 0, errcode.Timeout
			case <-t.C:
			}
		}
		code, err := adc.Collect(ch)
		if err == nil {
			return code, nil
		}
		if errcode.Of(err) != errcode.NotReady {
			return 0, err
		}
		if cctx.Err() != nil {
			return 0, errcode.Timeout
		}
		wait = minPoll
	}
}
