// Package accesslog provides the process-wide, append-only request log.
package accesslog

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultPath is the log file used when none is configured.
const DefaultPath = "HTTPLog.log"

// Sink serializes appends so concurrent entries never interleave.
type Sink struct {
	mu     sync.Mutex
	logger *zap.Logger
	closer io.Closer
}

// Option configures a Sink.
type Option func(*options)

type options struct {
	errorOutput zapcore.WriteSyncer
}

// ErrorOutput sets where failed appends are reported. Defaults to stderr.
func ErrorOutput(ws zapcore.WriteSyncer) Option {
	return func(o *options) {
		o.errorOutput = ws
	}
}

// Open creates or truncates the log file at path.
func Open(path string, opts ...Option) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s := New(f, opts...)
	s.closer = f
	return s, nil
}

// New returns a Sink which writes one JSON record per entry to ws.
func New(ws zapcore.WriteSyncer, opts ...Option) *Sink {
	o := &options{
		errorOutput: zapcore.Lock(os.Stderr),
	}
	for _, opt := range opts {
		opt(o)
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		ws,
		zapcore.InfoLevel,
	)
	return &Sink{
		logger: zap.New(core, zap.ErrorOutput(o.errorOutput)),
	}
}

// Append writes entry as a single INFO record. Write failures are reported on
// the error output and are not retried.
func (s *Sink) Append(entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("request", zap.String("entry", entry))
}

// Close flushes the sink and closes the underlying file, if Open created one.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.logger.Sync()
	if s.closer == nil {
		return err
	}
	cerr := s.closer.Close()
	if err != nil {
		return err
	}
	return cerr
}
