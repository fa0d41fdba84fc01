package logger

import (
	"fmt"

	"github.com/twingatebot/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. The returned func closes the opened sinks.
func NewLogger(cfg *config.Config) (*zap.SugaredLogger, func(), error) {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	outPaths := nonEmpty(cfg.Logger.OutputPaths, "stdout")
	errPaths := nonEmpty(cfg.Logger.ErrorOutputPaths, "stderr")

	out, closeOut, err := zap.Open(outPaths...)
	if err != nil {
		return nil, nil, fmt.Errorf("open log outputs %v: %w", outPaths, err)
	}
	errOut, closeErr, err := zap.Open(errPaths...)
	if err != nil {
		closeOut()
		return nil, nil, fmt.Errorf("open log error outputs %v: %w", errPaths, err)
	}

	debug := cfg.Debug() || cfg.Logger.Development

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		out,
		level,
	)

	opts := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.ErrorOutput(errOut),
		zap.Fields(
			zap.Bool("debug", debug),
			zap.String("version", cfg.Version),
		),
	}
	if cfg.Logger.Development {
		opts = append(opts, zap.Development())
	}

	logger := zap.New(core, opts...)
	logger.Sugar().Debug("logger created")

	cleanup := func() {
		_ = logger.Sync()
		closeErr()
		closeOut()
	}
	return logger.Sugar(), cleanup, nil
}

func nonEmpty(paths []string, fallback string) []string {
	var out []string
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{fallback}
	}
	return out
}
