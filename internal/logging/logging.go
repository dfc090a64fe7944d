// Package logging builds the component loggers used across adv.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/doree-nobuu/adventures/internal/config"
)

// Factory hands out loggers that share one output.
type Factory struct {
	out    io.Writer
	closer io.Closer
}

// New returns a Factory writing to stderr, or to a rotated log file when
// cfg.File is set.
func New(cfg config.LogConfig) (*Factory, error) {
	if cfg.File == "" {
		return &Factory{out: os.Stderr}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, err
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	return &Factory{out: lj, closer: lj}, nil
}

// Discard returns a Factory whose loggers print nothing.
func Discard() *Factory {
	return &Factory{out: io.Discard}
}

// Logger returns a logger for component, prefixed "[component] ".
func (f *Factory) Logger(component string) *log.Logger {
	return log.New(f.out, "["+component+"] ", log.LstdFlags)
}

// Writer is the shared output.
func (f *Factory) Writer() io.Writer {
	return f.out
}

// Close closes the log file, if any.
func (f *Factory) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}
