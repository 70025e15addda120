// Package logging provides a configurable zerolog logger for the application.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// TimeLayout is the default time layout for the logger.
const TimeLayout = "2006-01-02T15:04:05.000Z"

var once sync.Once

type options struct {
	enableConsoleLog bool
	logLevelInput    string
	logFileName      string
	writers          []io.Writer
	soleWriter       io.Writer
	secrets          []string
}

// Option is a function that sets an option for the logger.
type Option func(*options)

// WithWriters adds additional writers to use for logging.
// Useful for inspecting logging output in tests.
func WithWriters(writers ...io.Writer) Option {
	return func(o *options) {
		o.writers = append(o.writers, writers...)
	}
}

// WithSoleWriter sets the sole writer to use for logging, replacing
// file and console output entirely.
func WithSoleWriter(writer io.Writer) Option {
	return func(o *options) {
		o.soleWriter = writer
	}
}

// WithFileName sets the log file name.
func WithFileName(logFileName string) Option {
	return func(o *options) {
		o.logFileName = logFileName
	}
}

// WithLevel sets the log level.
func WithLevel(logLevelInput string) Option {
	return func(o *options) {
		o.logLevelInput = logLevelInput
	}
}

// WithConsoleLog enables or disables console logging.
func WithConsoleLog(enabled bool) Option {
	return func(o *options) {
		o.enableConsoleLog = enabled
	}
}

// WithSecrets sets secret values to redact in the logs. The GitHub App
// private key must never reach a log file, so every writer is wrapped.
func WithSecrets(secrets []string) Option {
	return func(o *options) {
		o.secrets = secrets
	}
}

// New initializes a new logger with the specified options.
func New(opts ...Option) (zerolog.Logger, error) {
	o := &options{
		enableConsoleLog: true,
		logLevelInput:    "info",
	}
	for _, opt := range opts {
		opt(o)
	}

	writers := o.writers
	if o.soleWriter != nil {
		writers = []io.Writer{redacted(o.soleWriter, o.secrets)}
	} else {
		if o.logFileName != "" {
			if err := os.MkdirAll(filepath.Dir(o.logFileName), 0700); err != nil {
				return zerolog.Logger{}, err
			}
			if err := os.WriteFile(o.logFileName, []byte{}, 0600); err != nil {
				return zerolog.Logger{}, err
			}
			rotating := &lumberjack.Logger{
				Filename:   o.logFileName,
				MaxSize:    50, // megabytes
				MaxBackups: 10,
				MaxAge:     30,
			}
			writers = append(writers, redacted(rotating, o.secrets))
		}
		if o.enableConsoleLog {
			writers = append(writers, redacted(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: TimeLayout}, o.secrets))
		}
	}

	logLevel, err := zerolog.ParseLevel(o.logLevelInput)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level: %w", err)
	}

	once.Do(func() {
		zerolog.TimeFieldFormat = TimeLayout
	})
	multiWriter := zerolog.MultiLevelWriter(writers...)
	logger := zerolog.New(multiWriter).Level(logLevel).With().Timestamp().Logger()
	return logger, nil
}

// MustNew is New but panics on error.
func MustNew(opts ...Option) zerolog.Logger {
	logger, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return logger
}
