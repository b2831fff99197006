package main

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger logs to stderr, or to a rotated file when path is set.
func newLogger(level, path string) (*zap.SugaredLogger, func(), error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, errors.Wrap(err, "log level")
	}

	ws := zapcore.Lock(os.Stderr)
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	if path != "" {
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // MB
			MaxBackups: 3,
		})
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	l := zap.New(zapcore.NewCore(enc, ws, lvl))
	return l.Sugar(), func() { _ = l.Sync() }, nil
}
