package utils

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerOptions struct {
	name   string
	fields []any
}

// LoggerOption customizes the logger built by NewSugaredLogger.
type LoggerOption func(*loggerOptions)

// WithName names the logger, e.g. after the running command.
func WithName(name string) LoggerOption {
	return func(o *loggerOptions) {
		o.name = name
	}
}

// WithFields attaches key-value pairs to every entry.
func WithFields(keysAndValues ...any) LoggerOption {
	return func(o *loggerOptions) {
		o.fields = append(o.fields, keysAndValues...)
	}
}

// NewSugaredLogger creates a sugared logger based on the verbose flag.
// If verbose is true, it creates a development logger, otherwise a production
// logger with ISO8601 timestamps.
func NewSugaredLogger(verbose bool, opts ...LoggerOption) (*zap.SugaredLogger, error) {
	var o loggerOptions
	for _, opt := range opts {
		opt(&o)
	}

	var (
		l   *zap.Logger
		err error
	)
	if verbose {
		l, err = zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("failed to create development logger: %w", err)
		}
	} else {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		l, err = cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("failed to create production logger: %w", err)
		}
	}

	sugar := l.Sugar()
	if o.name != "" {
		sugar = sugar.Named(o.name)
	}
	if len(o.fields) > 0 {
		sugar = sugar.With(o.fields...)
	}
	return sugar, nil
}
