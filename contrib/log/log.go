package log

// DefaultMessageKey is the key carrying the formatted log message.
var DefaultMessageKey = "msg"

// Logger is the sink every component logs through.
type Logger interface {
	Log(level Level, keyvals ...any) error
}

type logger struct {
	logger    Logger
	prefix    []any
	hasValuer bool
}

func (c *logger) Log(level Level, keyvals ...any) error {
	kvs := make([]any, 0, len(c.prefix)+len(keyvals))
	kvs = append(kvs, c.prefix...)
	if c.hasValuer {
		bindValues(kvs)
	}
	kvs = append(kvs, keyvals...)
	return c.logger.Log(level, kvs...)
}

// With returns a Logger that prepends the given key/value pairs to every
// record. Values may be Valuers, evaluated at log time.
func With(l Logger, kv ...any) Logger {
	c, ok := l.(*logger)
	if !ok {
		return &logger{logger: l, prefix: kv, hasValuer: containsValuer(kv)}
	}
	kvs := make([]any, 0, len(c.prefix)+len(kv))
	kvs = append(kvs, c.prefix...)
	kvs = append(kvs, kv...)
	return &logger{
		logger:    c.logger,
		prefix:    kvs,
		hasValuer: containsValuer(kvs),
	}
}
