package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type captureLogger struct {
	level   Level
	keyvals []any
}

func (c *captureLogger) Log(level Level, keyvals ...any) error {
	c.level = level
	c.keyvals = keyvals
	return nil
}

func TestWithPrependsPairs(t *testing.T) {
	c := &captureLogger{}
	l := With(c, "component", "cache")

	_ = l.Log(LevelInfo, DefaultMessageKey, "admitted")

	assert.Equal(t, LevelInfo, c.level)
	assert.Equal(t, []any{"component", "cache", DefaultMessageKey, "admitted"}, c.keyvals)
}

func TestWithBindsValuers(t *testing.T) {
	c := &captureLogger{}
	l := With(c, "ts", Valuer(func() any { return "now" }))

	_ = l.Log(LevelWarn, DefaultMessageKey, "x")

	assert.Equal(t, []any{"ts", "now", DefaultMessageKey, "x"}, c.keyvals)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}

func TestHelperRespectsLevel(t *testing.T) {
	c := &captureLogger{level: Level(-100)}
	h := NewHelper(c)

	SetLevel(LevelInfo)
	defer SetLevel(LevelInfo)

	h.Debugf("dropped %d", 1)
	assert.Equal(t, Level(-100), c.level, "debug record should have been filtered")

	h.Errorf("kept %d", 2)
	assert.Equal(t, LevelError, c.level)
	assert.Equal(t, []any{DefaultMessageKey, "kept 2"}, c.keyvals)
}
