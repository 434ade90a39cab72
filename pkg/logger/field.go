package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// Field is a structured key/value attached to one event. The collector
// keys aggregated entries on value.
type Field struct {
	key   string
	value interface{}
	apply func(*zerolog.Event)
}

func String(key, value string) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Str(key, value) }}
}

func Int(key string, value int) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Int(key, value) }}
}

func Int64(key string, value int64) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Int64(key, value) }}
}

func Float64(key string, value float64) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Float64(key, value) }}
}

func Bool(key string, value bool) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Bool(key, value) }}
}

func Duration(key string, value time.Duration) Field {
	return Field{key, value.String(), func(e *zerolog.Event) { e.Dur(key, value) }}
}

func Any(key string, value interface{}) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Interface(key, value) }}
}

// Error logs err under zerolog's error key. A nil error is recorded as null.
func Error(err error) Field {
	var v interface{}
	if err != nil {
		v = err.Error()
	}
	return Field{zerolog.ErrorFieldName, v, func(e *zerolog.Event) { e.Err(err) }}
}
