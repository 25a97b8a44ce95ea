// Package logging builds the process-wide zap logger
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	apperrors "github.com/hirosato/p2p-ops-dashboard/internal/domain/errors"
)

// Options selects the encoder, level and sinks
type Options struct {
	// Production selects JSON output, otherwise a console encoder is used
	Production bool
	Level      string
	// File, when set, receives logs through a rotating writer instead of stderr
	File string

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds a logger. Logs go to stderr unless File is set, so command
// output on stdout stays clean.
func New(opts Options) (*zap.Logger, error) {
	level := zap.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, apperrors.AppError{
				Code:    apperrors.CodeConfig,
				Message: "invalid log level " + opts.Level,
				Err:     err,
			}
		}
		level = parsed
	}

	var encoderCfg zapcore.EncoderConfig
	if opts.Production {
		encoderCfg = zap.NewProductionEncoderConfig()
	} else {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
	}
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if opts.Production || opts.File != "" {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, sink(opts), zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddCaller()), nil
}

func sink(opts Options) zapcore.WriteSyncer {
	if opts.File == "" {
		return zapcore.Lock(os.Stderr)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    orDefault(opts.MaxSizeMB, 10),
		MaxBackups: orDefault(opts.MaxBackups, 3),
		MaxAge:     orDefault(opts.MaxAgeDays, 28),
	})
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
