package log

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// DefaultLogger is the fallback logger installed before main configures one.
var DefaultLogger = NewStdLogger()

var global = &loggerAppliance{}

var globalLevel atomic.Int32

type loggerAppliance struct {
	lock sync.RWMutex
	Logger
}

func init() {
	global.SetLogger(DefaultLogger)
}

func (a *loggerAppliance) SetLogger(in Logger) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.Logger = in
}

// SetLogger replaces the global logger.
func SetLogger(logger Logger) {
	global.SetLogger(logger)
}

// GetLogger returns the global logger.
func GetLogger() Logger {
	global.lock.RLock()
	defer global.lock.RUnlock()
	return global.Logger
}

// SetLevel sets the minimum level emitted by the package-level helpers.
func SetLevel(l Level) {
	globalLevel.Store(int32(l))
}

// Enabled reports whether records at level l pass the global filter.
func Enabled(l Level) bool {
	return int32(l) >= globalLevel.Load()
}

// Log emits keyvals through the global logger.
func Log(level Level, keyvals ...any) {
	if !Enabled(level) {
		return
	}
	_ = GetLogger().Log(level, keyvals...)
}

func Debug(a ...any) {
	Log(LevelDebug, DefaultMessageKey, fmt.Sprint(a...))
}

func Debugf(format string, a ...any) {
	Log(LevelDebug, DefaultMessageKey, fmt.Sprintf(format, a...))
}

func Info(a ...any) {
	Log(LevelInfo, DefaultMessageKey, fmt.Sprint(a...))
}

func Infof(format string, a ...any) {
	Log(LevelInfo, DefaultMessageKey, fmt.Sprintf(format, a...))
}

func Warn(a ...any) {
	Log(LevelWarn, DefaultMessageKey, fmt.Sprint(a...))
}

func Warnf(format string, a ...any) {
	Log(LevelWarn, DefaultMessageKey, fmt.Sprintf(format, a...))
}

func Error(a ...any) {
	Log(LevelError, DefaultMessageKey, fmt.Sprint(a...))
}

func Errorf(format string, a ...any) {
	Log(LevelError, DefaultMessageKey, fmt.Sprintf(format, a...))
}

// Errorw emits structured key/value pairs at error level.
func Errorw(keyvals ...any) {
	Log(LevelError, keyvals...)
}

func Fatal(a ...any) {
	Log(LevelFatal, DefaultMessageKey, fmt.Sprint(a...))
	os.Exit(1)
}

func Fatalf(format string, a ...any) {
	Log(LevelFatal, DefaultMessageKey, fmt.Sprintf(format, a...))
	os.Exit(1)
}
