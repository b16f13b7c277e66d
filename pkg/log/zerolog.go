package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ZerologOptions configures the zerolog-backed logger.
type ZerologOptions struct {
	// Output is the log destination. Defaults to a console writer on stderr.
	Output io.Writer

	// Level is the minimum level to emit: "debug", "info", "warn" or
	// "error". Defaults to "info"; unknown values also fall back to "info".
	Level string

	// Console enables human-readable console output instead of JSON.
	Console bool
}

// Zerolog implements Logger on top of zerolog.
type Zerolog struct {
	logger zerolog.Logger
}

// NewZerolog creates a zerolog-backed logger.
func NewZerolog(opts ZerologOptions) *Zerolog {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	logger := zerolog.New(out).Level(parseLevel(opts.Level)).With().Timestamp().Logger()
	return &Zerolog{logger: logger}
}

// WrapZerolog adapts an existing zerolog.Logger.
func WrapZerolog(logger zerolog.Logger) *Zerolog {
	return &Zerolog{logger: logger}
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (z *Zerolog) Debug(msg string, fields ...Field) { z.emit(z.logger.Debug(), msg, fields) }
func (z *Zerolog) Info(msg string, fields ...Field)  { z.emit(z.logger.Info(), msg, fields) }
func (z *Zerolog) Warn(msg string, fields ...Field)  { z.emit(z.logger.Warn(), msg, fields) }
func (z *Zerolog) Error(msg string, fields ...Field) { z.emit(z.logger.Error(), msg, fields) }

// With returns a logger with the fields bound to its context.
func (z *Zerolog) With(fields ...Field) Logger {
	ctx := z.logger.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &Zerolog{logger: ctx.Logger()}
}

func (z *Zerolog) emit(event *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		event = addField(event, f)
	}
	event.Msg(msg)
}

func addField(event *zerolog.Event, f Field) *zerolog.Event {
	switch v := f.Value.(type) {
	case string:
		return event.Str(f.Key, v)
	case int:
		return event.Int(f.Key, v)
	case uint64:
		return event.Uint64(f.Key, v)
	case bool:
		return event.Bool(f.Key, v)
	case time.Duration:
		return event.Dur(f.Key, v)
	case error:
		return event.AnErr(f.Key, v)
	default:
		return event.Interface(f.Key, v)
	}
}
