//go:build rp2040 || rp2350

package fmtx

import (
	"io"

	"loopcal-go/x/strconvx"
)

// Console subset of fmt: %s %d %t %v %% with an optional width and '-' flag.
// Anything else is written literally.

type stringer interface{ String() string }

type stringError struct{ s string }

func (e *stringError) Error() string { return e.s }

func Sprintf(format string, a ...any) string {
	var b builder
	b.format(format, a)
	return string(b.buf)
}

func Fprintf(w io.Writer, format string, a ...any) (int, error) {
	var b builder
	b.format(format, a)
	return w.Write(b.buf)
}

func Errorf(format string, a ...any) error { return &stringError{Sprintf(format, a...)} }

type builder struct{ buf []byte }

func (b *builder) format(format string, args []any) {
	ai := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			b.buf = append(b.buf, c)
			continue
		}
		i++
		if format[i] == '%' {
			b.buf = append(b.buf, '%')
			continue
		}
		left := false
		if format[i] == '-' {
			left = true
			i++
		}
		width := 0
		for i < len(format) && '0' <= format[i] && format[i] <= '9' {
			width = width*10 + int(format[i]-'0')
			i++
		}
		if i >= len(format) {
			return
		}
		verb := format[i]
		if ai >= len(args) {
			b.buf = append(b.buf, "%!"...)
			b.buf = append(b.buf, verb)
			b.buf = append(b.buf, "(MISSING)"...)
			continue
		}
		arg := args[ai]
		ai++

		var s string
		switch verb {
		case 's', 'v', 'd', 't':
			s = text(arg)
		default:
			b.buf = append(b.buf, '%', verb)
			continue
		}
		b.pad(s, width, left)
	}
}

func (b *builder) pad(s string, width int, left bool) {
	n := width - len(s)
	if left {
		b.buf = append(b.buf, s...)
	}
	for ; n > 0; n-- {
		b.buf = append(b.buf, ' ')
	}
	if !left {
		b.buf = append(b.buf, s...)
	}
}

func text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case error:
		return x.Error()
	case stringer:
		return x.String()
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int:
		return strconvx.FormatInt(int64(x), 10)
	case int8:
		return strconvx.FormatInt(int64(x), 10)
	case int16:
		return strconvx.FormatInt(int64(x), 10)
	case int32:
		return strconvx.FormatInt(int64(x), 10)
	case int64:
		return strconvx.FormatInt(x, 10)
	case uint8:
		return strconvx.FormatInt(int64(x), 10)
	case uint16:
		return strconvx.FormatInt(int64(x), 10)
	case uint32:
		return strconvx.FormatInt(int64(x), 10)
	case nil:
		return "<nil>"
	}
	return "?"
}
