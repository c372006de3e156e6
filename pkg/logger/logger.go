package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct {
	zl        zerolog.Logger
	collector *ErrorDigest
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	var output io.Writer
	switch cfg.Output {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		output = file
	}

	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339
	}
	zerolog.TimeFieldFormat = cfg.TimeFormat

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: cfg.TimeFormat}
	}

	zl := zerolog.New(output).
		With().
		Timestamp().
		CallerWithSkipFrameCount(4).
		Logger()

	return &Logger{zl: zl}, nil
}

// NewWriter builds a JSON logger on w. Used by tests to capture output.
func NewWriter(w io.Writer) *Logger {
	return &Logger{zl: zerolog.New(w).With().Timestamp().Logger()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger carrying fields on every event.
// The child shares the parent's error digest.
func (l *Logger) With(fields ...Field) *Logger {
	if l == nil {
		return nil
	}
	ctx := l.zl.With()
	for _, f := range fields {
		k, v := f.GetKeyValue()
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zl: ctx.Logger(), collector: l.collector}
}

func (l *Logger) addToCollector(level, msg string, fields []Field) {
	if l.collector == nil {
		return
	}

	// skip: this function -> Error -> caller
	_, file, line, ok := runtime.Caller(2)
	caller := "unknown"
	if ok {
		parts := strings.Split(file, "MacroPulse")
		caller = fmt.Sprintf("%s:%d", parts[len(parts)-1], line)
	}

	fieldMap := make(map[string]interface{}, len(fields))
	for _, field := range fields {
		key, value := field.GetKeyValue()
		fieldMap[key] = value
	}

	l.collector.Add(level, msg, fieldMap, caller)
}

func (l *Logger) Info(msg string, fields ...Field) {
	l.emit(zerolog.InfoLevel, msg, fields)
}

func (l *Logger) Debug(msg string, fields ...Field) {
	l.emit(zerolog.DebugLevel, msg, fields)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	l.emit(zerolog.WarnLevel, msg, fields)
}

// Error logs msg and, when a digest is attached, counts it there too.
func (l *Logger) Error(msg string, fields ...Field) {
	if l == nil {
		return
	}
	l.emit(zerolog.ErrorLevel, msg, fields)
	l.addToCollector("error", msg, fields)
}

func (l *Logger) emit(level zerolog.Level, msg string, fields []Field) {
	if l == nil {
		return
	}
	event := l.zl.WithLevel(level)
	for _, f := range fields {
		f.AddTo(event)
	}
	event.Msg(msg)
}

// AttachDigest routes every Error call through an aggregating digest.
func (l *Logger) AttachDigest(config *DigestConfig) {
	if l.collector != nil {
		l.collector.Close()
	}
	l.collector = NewErrorDigest(config)
}

// DetachDigest flushes and stops the digest, if any.
func (l *Logger) DetachDigest() {
	if l.collector != nil {
		l.collector.Close()
		l.collector = nil
	}
}

// Field types for structured logging.
type Field interface {
	AddTo(event *zerolog.Event)
	GetKeyValue() (string, interface{})
}

type field struct {
	key   string
	value interface{}
	add   func(e *zerolog.Event)
}

func (f field) AddTo(event *zerolog.Event) {
	f.add(event)
}

func (f field) GetKeyValue() (string, interface{}) {
	return f.key, f.value
}

func String(key, value string) Field {
	return field{key, value, func(e *zerolog.Event) { e.Str(key, value) }}
}

func Int(key string, value int) Field {
	return field{key, value, func(e *zerolog.Event) { e.Int(key, value) }}
}

func Float64(key string, value float64) Field {
	return field{key, value, func(e *zerolog.Event) { e.Float64(key, value) }}
}

func Bool(key string, value bool) Field {
	return field{key, value, func(e *zerolog.Event) { e.Bool(key, value) }}
}

// Error logs err under "error". The digest sees its message, not the value.
func Error(err error) Field {
	var msg interface{}
	if err != nil {
		msg = err.Error()
	}
	return field{"error", msg, func(e *zerolog.Event) { e.Err(err) }}
}

func Any(key string, value interface{}) Field {
	return field{key, value, func(e *zerolog.Event) { e.Interface(key, value) }}
}

// Duration logs value in whole milliseconds; keys end in _ms by convention.
func Duration(key string, value time.Duration) Field {
	return Int(key, int(value/time.Millisecond))
}

// Strings logs value as one comma-separated string.
func Strings(key string, value []string) Field {
	return String(key, strings.Join(value, ", "))
}
