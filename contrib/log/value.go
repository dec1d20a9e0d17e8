package log

import (
	"time"
)

// Valuer returns a log value computed at log time.
type Valuer func() any

// Value evaluates v if it is a Valuer, and returns it unchanged otherwise.
func Value(v any) any {
	if v, ok := v.(Valuer); ok {
		return v()
	}
	return v
}

// Timestamp returns a timestamp Valuer with a custom time format.
func Timestamp(layout string) Valuer {
	return func() any {
		return time.Now().Format(layout)
	}
}

func bindValues(keyvals []any) {
	for i := 1; i < len(keyvals); i += 2 {
		if v, ok := keyvals[i].(Valuer); ok {
			keyvals[i] = v()
		}
	}
}

func containsValuer(keyvals []any) bool {
	for i := 1; i < len(keyvals); i += 2 {
		if _, ok := keyvals[i].(Valuer); ok {
			return true
		}
	}
	return false
}
