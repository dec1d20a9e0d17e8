package proxy

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func headerReader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestBuildUpstreamRequestSynthesisesHost(t *testing.T) {
	h := readClientHeaders(headerReader("\r\n"))
	got := buildUpstreamRequest("/index.html", "www.example.com", h)

	want := "GET /index.html HTTP/1.0\r\n" +
		"Host: www.example.com\r\n" +
		userAgentHeader +
		connectionHeader +
		proxyConnectionHeader +
		"\r\n"
	assert.Equal(t, want, string(got))
}

func TestBuildUpstreamRequestForwardsClientHost(t *testing.T) {
	h := readClientHeaders(headerReader("Host: www.example.com:8080\r\n\r\n"))
	got := buildUpstreamRequest("/", "www.example.com", h)

	assert.Contains(t, string(got), "Host: www.example.com:8080\r\n")
	assert.Equal(t, 1, strings.Count(string(got), "Host:"))
}

func TestBuildUpstreamRequestOverridesManagedHeaders(t *testing.T) {
	h := readClientHeaders(headerReader(
		"User-Agent: curl/8.0\r\n" +
			"Connection: keep-alive\r\n" +
			"Proxy-Connection: keep-alive\r\n" +
			"Accept: */*\r\n" +
			"Cookie: session=1\r\n" +
			"\r\n"))
	got := string(buildUpstreamRequest("/a?b=c", "origin.test", h))

	assert.NotContains(t, got, "curl")
	assert.NotContains(t, got, "keep-alive")
	assert.Contains(t, got, userAgentHeader)
	assert.Contains(t, got, "Connection: close\r\n")
	assert.Contains(t, got, "Proxy-Connection: close\r\n")

	// passthrough order preserved
	accept := strings.Index(got, "Accept: */*\r\n")
	cookie := strings.Index(got, "Cookie: session=1\r\n")
	assert.Greater(t, accept, -1)
	assert.Greater(t, cookie, accept)

	assert.True(t, strings.HasPrefix(got, "GET /a?b=c HTTP/1.0\r\n"))
	assert.True(t, strings.HasSuffix(got, "\r\n\r\n"))
}

func TestReadClientHeadersStopsAtBlankLine(t *testing.T) {
	br := headerReader("Accept: */*\r\n\r\nGET http://next/ HTTP/1.0\r\n")
	h := readClientHeaders(br)

	assert.Equal(t, []string{"Accept: */*\r\n"}, h.rest)

	// bytes after the blank line stay unread
	rest, _ := br.ReadString('\n')
	assert.Equal(t, "GET http://next/ HTTP/1.0\r\n", rest)
}

func TestParseRequestLine(t *testing.T) {
	method, uri, version, ok := parseRequestLine("GET http://x/ HTTP/1.0\r\n")
	assert.True(t, ok)
	assert.Equal(t, "GET", method)
	assert.Equal(t, "http://x/", uri)
	assert.Equal(t, "HTTP/1.0", version)

	_, _, _, ok = parseRequestLine("GARBAGE\r\n")
	assert.False(t, ok)

	_, _, _, ok = parseRequestLine("GET http://x/ HTTP/1.0 extra\r\n")
	assert.False(t, ok)

	assert.True(t, acceptedVersion("HTTP/1.1"))
	assert.False(t, acceptedVersion("HTTP/2"))
}

func TestParseStatusCode(t *testing.T) {
	assert.Equal(t, 200, parseStatusCode([]byte("HTTP/1.0 200 OK\r\n\r\n")))
	assert.Equal(t, 404, parseStatusCode([]byte("HTTP/1.1 404 Not Found\r\n")))
	assert.Equal(t, 0, parseStatusCode([]byte("junk")))
	assert.Equal(t, 0, parseStatusCode([]byte("HTTP/1.0")))
}
