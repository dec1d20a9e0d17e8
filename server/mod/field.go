package mod

import (
	"fmt"
	"strconv"
	"time"

	"github.com/omalloc/courier/metrics"
)

const layout = "[02/Jan/2006:15:04:05 -0700]"

// WithNormalFields renders one transaction as a space-separated
// positional log line. Empty fields render as "-" and the request line
// is escaped so downstream splitters see one token per column.
func WithNormalFields(t *metrics.Transaction) []byte {
	line := make([]byte, 0, 256)

	// 1. client address
	line = appendField(line, t.RemoteAddr)
	// 2. origin host
	line = appendField(line, t.Host)
	// 3. completion time
	line = appendField(line, time.Now().Format(layout))
	// 4. request line
	line = appendEscaped(line, fmt.Sprintf("%s %s HTTP/1.0", t.Method, t.URI))
	// 5. origin status
	line = appendField(line, strconv.Itoa(t.Status))
	// 6. sent bytes
	line = appendField(line, strconv.FormatUint(t.SentBytes, 10))
	// 7. received bytes
	line = appendField(line, strconv.FormatUint(t.RecvBytes, 10))
	// 8. duration (ms)
	line = appendField(line, strconv.FormatInt(t.Duration().Milliseconds(), 10))
	// 9. cache status
	line = appendField(line, t.CacheStatus)
	// 10. request-id
	line = appendField(line, t.ID)

	return line
}

func appendField(line []byte, s string) []byte {
	if len(line) > 0 {
		line = append(line, ' ')
	}
	if s == "" {
		return append(line, '-')
	}
	return append(line, s...)
}

// appendEscaped is appendField with interior spaces folded to '+'.
func appendEscaped(line []byte, s string) []byte {
	if len(line) > 0 {
		line = append(line, ' ')
	}
	if s == "" {
		return append(line, '-')
	}
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			line = append(line, '+')
			continue
		}
		line = append(line, s[i])
	}
	return line
}
