package proxy

import (
	"fmt"
	"io"
)

// maxErrorBuf bounds the full error response, status line and headers
// included. Responses that would not fit are not written at all.
const maxErrorBuf = 8192

// respondError writes an HTTP/1.0 error response with a small HTML body.
// Write failures are ignored; the connection is torn down by the caller
// either way.
func respondError(w io.Writer, code int, short, long string) {
	body := fmt.Sprintf("<html><head><title>Courier Error</title></head>\r\n"+
		"<body bgcolor=\"ffffff\">\r\n"+
		"%d: %s\r\n"+
		"<p>%s\r\n"+
		"<hr><em>The Courier proxy</em>\r\n"+
		"</body></html>\r\n",
		code, short, long)

	head := fmt.Sprintf("HTTP/1.0 %d %s\r\n"+
		"Content-Type: text/html\r\n"+
		"Content-Length: %d\r\n\r\n",
		code, short, len(body))

	if len(head)+len(body) > maxErrorBuf {
		return
	}

	_, _ = io.WriteString(w, head)
	_, _ = io.WriteString(w, body)
}
