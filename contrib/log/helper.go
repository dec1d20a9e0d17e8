package log

import (
	"fmt"
	"os"
)

// Helper is a component-scoped logger with printf-style methods.
type Helper struct {
	logger Logger
	msgKey string
}

// NewHelper wraps logger; a nil logger falls back to the global one.
func NewHelper(logger Logger) *Helper {
	if logger == nil {
		logger = GetLogger()
	}
	return &Helper{logger: logger, msgKey: DefaultMessageKey}
}

// With returns a Helper with the key/value pairs bound.
func (h *Helper) With(kv ...any) *Helper {
	return &Helper{logger: With(h.logger, kv...), msgKey: h.msgKey}
}

func (h *Helper) log(level Level, format string, a ...any) {
	if !Enabled(level) {
		return
	}
	if format == "" {
		_ = h.logger.Log(level, h.msgKey, fmt.Sprint(a...))
		return
	}
	_ = h.logger.Log(level, h.msgKey, fmt.Sprintf(format, a...))
}

func (h *Helper) Debug(a ...any)                 { h.log(LevelDebug, "", a...) }
func (h *Helper) Debugf(format string, a ...any) { h.log(LevelDebug, format, a...) }
func (h *Helper) Info(a ...any)                  { h.log(LevelInfo, "", a...) }
func (h *Helper) Infof(format string, a ...any)  { h.log(LevelInfo, format, a...) }
func (h *Helper) Warn(a ...any)                  { h.log(LevelWarn, "", a...) }
func (h *Helper) Warnf(format string, a ...any)  { h.log(LevelWarn, format, a...) }
func (h *Helper) Error(a ...any)                 { h.log(LevelError, "", a...) }
func (h *Helper) Errorf(format string, a ...any) { h.log(LevelError, format, a...) }

func (h *Helper) Fatalf(format string, a ...any) {
	h.log(LevelFatal, format, a...)
	os.Exit(1)
}
