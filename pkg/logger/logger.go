package logger

import (
	"os"

	"github.com/rs/zerolog"
)

var log = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init configures the process-wide logger. Development gets a human console
// writer at debug level; everything else logs JSON at info.
func Init(env string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	if env == "development" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
		return
	}

	log = zerolog.New(os.Stdout).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()
}

func Debug(msg string, kv ...any) { withFields(log.Debug(), kv).Msg(msg) }
func Info(msg string, kv ...any)  { withFields(log.Info(), kv).Msg(msg) }
func Warn(msg string, kv ...any)  { withFields(log.Warn(), kv).Msg(msg) }
func Error(msg string, kv ...any) { withFields(log.Error(), kv).Msg(msg) }

// Fatal logs and exits the process.
func Fatal(msg string, kv ...any) { withFields(log.Fatal(), kv).Msg(msg) }

// withFields attaches key/value pairs to an event. A trailing or unpaired
// non-string value is logged under "detail" instead of being dropped.
func withFields(e *zerolog.Event, kv []any) *zerolog.Event {
	for i := 0; i < len(kv); {
		if key, ok := kv[i].(string); ok && i+1 < len(kv) {
			e = e.Interface(key, kv[i+1])
			i += 2
			continue
		}
		e = e.Interface("detail", kv[i])
		i++
	}
	return e
}
