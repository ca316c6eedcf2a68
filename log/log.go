// Package log provides a thin wrapper around zerolog with leveled formatted
// and structured logging functions. Init must be called before any logging.
package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
	LogLevelFatal = "fatal"

	logTestWriterName = "stdoutTest"
)

var (
	log zerolog.Logger

	logLevel string

	// panicOnInvalidChars is set via LOG_PANIC_ON_INVALIDCHARS, to help
	// catch log lines carrying binary data during tests.
	panicOnInvalidChars = os.Getenv("LOG_PANIC_ON_INVALIDCHARS") == "true"

	// logTestWriter can be swapped by tests and benchmarks to avoid
	// polluting their output.
	logTestWriter io.Writer = os.Stdout
)

// invalidCharChecker panics when a formatted log line carries the utf8
// replacement character, which zerolog inserts in place of invalid bytes.
type invalidCharChecker struct{}

func (invalidCharChecker) Write(p []byte) (int, error) {
	if bytes.ContainsRune(p, utf8.RuneError) {
		panic(fmt.Sprintf("log line with invalid chars: %q", string(p)))
	}
	return len(p), nil
}

// Init initializes the logger. Output can be "stdout", "stderr" or a file
// path. Level can be "debug", "info", "warn", "error" or "fatal". If
// errorOutput is not nil, error level lines are duplicated there.
func Init(level, output string, errorOutput io.Writer) {
	var out io.Writer
	switch output {
	case "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	case logTestWriterName:
		out = logTestWriter
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			panic(fmt.Sprintf("cannot open log output %q: %v", output, err))
		}
		out = f
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
		if i := strings.LastIndexByte(file, '/'); i >= 0 {
			file = file[i+1:]
		}
		return fmt.Sprintf("%s:%d", file, line)
	}
	var writer io.Writer = zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "3:04PM",
	}
	if errorOutput != nil {
		writer = zerolog.MultiLevelWriter(writer, errorWriter{errorOutput})
	}
	if panicOnInvalidChars {
		writer = io.MultiWriter(writer, invalidCharChecker{})
	}
	log = zerolog.New(writer).With().Timestamp().CallerWithSkipFrameCount(3).Logger()
	logLevel = level
	switch level {
	case LogLevelDebug:
		log = log.Level(zerolog.DebugLevel)
	case LogLevelInfo:
		log = log.Level(zerolog.InfoLevel)
	case LogLevelWarn:
		log = log.Level(zerolog.WarnLevel)
	case LogLevelError:
		log = log.Level(zerolog.ErrorLevel)
	case LogLevelFatal:
		log = log.Level(zerolog.FatalLevel)
	default:
		panic(fmt.Sprintf("invalid log level: %q", level))
	}
	Infof("logger initialized on level %s with output %s", level, output)
}

// errorWriter forwards only error level and above to its inner writer.
type errorWriter struct {
	w io.Writer
}

func (e errorWriter) Write(p []byte) (int, error) { return len(p), nil }

func (e errorWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < zerolog.ErrorLevel {
		return len(p), nil
	}
	return e.w.Write(p)
}

// Level returns the configured level string.
func Level() string { return logLevel }

func Debug(args ...any) { log.Debug().Msg(fmt.Sprint(args...)) }

func Info(args ...any) { log.Info().Msg(fmt.Sprint(args...)) }

func Warn(args ...any) { log.Warn().Msg(fmt.Sprint(args...)) }

func Error(args ...any) { log.Error().Msg(fmt.Sprint(args...)) }

func Fatal(args ...any) { log.Fatal().Msg(fmt.Sprint(args...)) }

func Debugf(template string, args ...any) { log.Debug().Msgf(template, args...) }

func Infof(template string, args ...any) { log.Info().Msgf(template, args...) }

func Warnf(template string, args ...any) { log.Warn().Msgf(template, args...) }

func Errorf(template string, args ...any) { log.Error().Msgf(template, args...) }

func Fatalf(template string, args ...any) { log.Fatal().Msgf(template, args...) }

// Debugw logs a message with alternating key value pairs.
func Debugw(msg string, keyvalues ...any) { log.Debug().Fields(keyvalues).Msg(msg) }

// Infow logs a message with alternating key value pairs.
func Infow(msg string, keyvalues ...any) { log.Info().Fields(keyvalues).Msg(msg) }

// Warnw logs a message with alternating key value pairs.
func Warnw(msg string, keyvalues ...any) { log.Warn().Fields(keyvalues).Msg(msg) }

// Errorw logs an error with a complementary message.
func Errorw(err error, msg string) { log.Error().Err(err).Msg(msg) }
