package proxy

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorFormat(t *testing.T) {
	var buf bytes.Buffer
	respondError(&buf, 501, "Not Implemented", "Courier does not implement this method")

	out := buf.String()
	head, body, ok := strings.Cut(out, "\r\n\r\n")
	require.True(t, ok)

	lines := strings.Split(head, "\r\n")
	assert.Equal(t, "HTTP/1.0 501 Not Implemented", lines[0])
	assert.Contains(t, lines, "Content-Type: text/html")
	assert.Contains(t, lines, fmt.Sprintf("Content-Length: %d", len(body)))

	assert.Contains(t, body, "501")
	assert.Contains(t, body, "Not Implemented")
	assert.Contains(t, body, "Courier does not implement this method")
}

func TestRespondErrorOverflowIsSilent(t *testing.T) {
	var buf bytes.Buffer
	respondError(&buf, 400, "Bad Request", strings.Repeat("x", maxErrorBuf))
	assert.Zero(t, buf.Len())
}
