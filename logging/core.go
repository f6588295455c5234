package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// hostCore is a zapcore.Core that renders entries with a console encoder and
// hands them to a Client at the matching level.
type hostCore struct {
	zapcore.LevelEnabler
	client Client
	enc    zapcore.Encoder
}

// NewCore returns a zapcore.Core forwarding enabled entries to client. The
// host stamps its own time and level, so entries carry only the logger name,
// message and fields.
func NewCore(client Client, enab zapcore.LevelEnabler) zapcore.Core {
	return &hostCore{
		LevelEnabler: enab,
		client:       client,
		enc: zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			NameKey:        "logger",
			MessageKey:     "msg",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeName:     zapcore.FullNameEncoder,
		}),
	}
}

func (c *hostCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &hostCore{LevelEnabler: c.LevelEnabler, client: c.client, enc: c.enc.Clone()}
	for _, f := range fields {
		f.AddTo(clone.enc)
	}
	return clone
}

func (c *hostCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *hostCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	msg := strings.TrimSuffix(buf.String(), zapcore.DefaultLineEnding)
	buf.Free()

	switch ent.Level {
	case zapcore.DebugLevel:
		c.client.Debug(msg)
	case zapcore.InfoLevel:
		c.client.Info(msg)
	case zapcore.WarnLevel:
		c.client.Warn(msg)
	default:
		c.client.Error(msg)
	}
	return nil
}

func (c *hostCore) Sync() error { return nil }
