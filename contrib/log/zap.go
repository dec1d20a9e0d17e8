package log

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var _ Logger = (*zapLogger)(nil)

type zapLogger struct {
	zl *zap.Logger
}

// NewLogger wraps a zap.Logger behind the Logger interface.
func NewLogger(zl *zap.Logger) Logger {
	return &zapLogger{zl: zl}
}

func (l *zapLogger) Log(level Level, keyvals ...any) error {
	if len(keyvals) == 0 {
		return nil
	}
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "")
	}

	var msg string
	fields := make([]zap.Field, 0, len(keyvals)/2)
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if key == DefaultMessageKey {
			msg = fmt.Sprint(keyvals[i+1])
			continue
		}
		fields = append(fields, zap.Any(key, keyvals[i+1]))
	}

	switch level {
	case LevelDebug:
		l.zl.Debug(msg, fields...)
	case LevelInfo:
		l.zl.Info(msg, fields...)
	case LevelWarn:
		l.zl.Warn(msg, fields...)
	case LevelError:
		l.zl.Error(msg, fields...)
	case LevelFatal:
		l.zl.Fatal(msg, fields...)
	}
	return nil
}

// FileOptions configures the rotated file sink.
type FileOptions struct {
	Path       string
	MaxSize    int // megabytes
	MaxAge     int // days
	MaxBackups int
	Compress   bool
}

// NewStdLogger returns a console logger writing to stderr.
func NewStdLogger() Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = func(_ time.Time, _ zapcore.PrimitiveArrayEncoder) {}
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.ConsoleSeparator = " "

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.Lock(os.Stderr),
		zapcore.DebugLevel,
	)
	return NewLogger(zap.New(core))
}

// NewFileLogger returns a logger writing rotated files via lumberjack.
func NewFileLogger(opt FileOptions) Logger {
	_ = os.MkdirAll(filepath.Dir(opt.Path), 0o755)

	f := &lumberjack.Logger{
		Filename:   opt.Path,
		MaxSize:    opt.MaxSize,
		MaxBackups: opt.MaxBackups,
		MaxAge:     opt.MaxAge,
		LocalTime:  true,
		Compress:   opt.Compress,
	}

	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = func(_ time.Time, _ zapcore.PrimitiveArrayEncoder) {}
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.ConsoleSeparator = " "

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.AddSync(f),
		zapcore.DebugLevel,
	)
	return NewLogger(zap.New(core))
}
