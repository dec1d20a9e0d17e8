package mod

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/omalloc/courier/conf"
	"github.com/omalloc/courier/contrib/log"
	"github.com/omalloc/courier/metrics"
)

// AccessLogger writes one line per completed transaction. A disabled
// logger swallows writes.
type AccessLogger struct {
	enabled bool
	zl      *zap.Logger
}

func NewAccessLog(opt *conf.ServerAccessLog) *AccessLogger {
	if opt == nil || !opt.Enabled {
		log.Infof("access-log is turned off")
		return &AccessLogger{}
	}

	if opt.Path == "" {
		log.Warnf("access-log `path` is empty, will be written to stdout")
		return &AccessLogger{enabled: true, zl: newAccessLog(zapcore.Lock(os.Stdout))}
	}

	_ = os.MkdirAll(filepath.Dir(opt.Path), 0o755)
	f := &lumberjack.Logger{
		Filename:   opt.Path,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     1,
		LocalTime:  true,
		Compress:   false,
	}
	return &AccessLogger{enabled: true, zl: newAccessLog(zapcore.AddSync(f))}
}

func (a *AccessLogger) Write(t *metrics.Transaction) {
	if !a.enabled {
		return
	}
	a.zl.Info(string(WithNormalFields(t)))
}

func newAccessLog(sink zapcore.WriteSyncer) *zap.Logger {
	cfg := zap.NewProductionConfig().EncoderConfig
	cfg.ConsoleSeparator = " "
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {}
	cfg.EncodeLevel = func(_ zapcore.Level, _ zapcore.PrimitiveArrayEncoder) {}

	return zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		sink,
		zapcore.InfoLevel,
	))
}
