// Package logging builds the zap logger used by the CLI and adapts it to
// the builder's error sink.
package logging

import (
	"io"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger writing to w (stderr when nil) at level.
func New(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.RFC3339TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		lvl,
	)
	return zap.New(core), nil
}

// Sink reports recoverable per-file failures as warnings and counts them.
type Sink struct {
	log   *zap.SugaredLogger
	count atomic.Int64
}

func NewSink(log *zap.SugaredLogger) *Sink {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Sink{log: log}
}

func (s *Sink) Log(message string) {
	s.count.Add(1)
	s.log.Warnw("recoverable error", "error", message)
}

// Count is the number of messages logged so far.
func (s *Sink) Count() int64 {
	return s.count.Load()
}
