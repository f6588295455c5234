package log

import (
	"errors"
	"os"

	"github.com/tarmac-project/sqlsrv"
	"github.com/tarmac-project/sqlsrv/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls how New assembles a logger.
type Config struct {
	// Settings selects the level, encoding and sinks.
	Settings sqlsrv.LogSettings

	// Runtime provides the namespace for the host sink.
	Runtime sqlsrv.RuntimeConfig

	// HostCall overrides the waPC host function used by the host sink.
	HostCall logging.HostCall

	// Stderr overrides the console sink. Defaults to os.Stderr.
	Stderr zapcore.WriteSyncer
}

// New builds a zap logger from cfg. A disabled configuration yields a no-op
// logger. When logging is enabled without any sink the console is used.
func New(cfg Config) (*zap.Logger, error) {
	s := cfg.Settings
	if !s.Enabled {
		return zap.NewNop(), nil
	}

	level := zapcore.InfoLevel
	if s.Level != "" {
		l, err := zapcore.ParseLevel(s.Level)
		if err != nil {
			return nil, errors.Join(sqlsrv.ErrInvalidSettings, err)
		}
		level = l
	}

	var cores []zapcore.Core

	if s.Console || (s.File == "" && !s.Host) {
		out := cfg.Stderr
		if out == nil {
			out = zapcore.Lock(os.Stderr)
		}
		cores = append(cores, zapcore.NewCore(encoder(s.Format), out, level))
	}

	if s.File != "" {
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   s.File,
			MaxSize:    s.MaxSizeMB,
			MaxBackups: s.MaxBackups,
			MaxAge:     s.MaxAgeDays,
			Compress:   s.Compress,
		})
		cores = append(cores, zapcore.NewCore(encoder(s.Format), sink, level))
	}

	if s.Host {
		client, err := logging.New(logging.Config{Runtime: cfg.Runtime, HostCall: cfg.HostCall})
		if err != nil {
			return nil, err
		}
		cores = append(cores, logging.NewCore(client, level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Named("sqlsrv"), nil
}

func encoder(format string) zapcore.Encoder {
	if format == "console" {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewConsoleEncoder(cfg)
	}

	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(cfg)
}
