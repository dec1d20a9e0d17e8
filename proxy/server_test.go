package proxy

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omalloc/courier/cache"
	"github.com/omalloc/courier/conf"
	"github.com/omalloc/courier/server/mod"
)

// testOrigin is a raw HTTP/1.0 origin that answers every request with the
// same byte payload and counts how often it was contacted.
type testOrigin struct {
	ln   net.Listener
	hits atomic.Int32
}

func startOrigin(t *testing.T, response []byte) *testOrigin {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	o := &testOrigin{ln: ln}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			o.hits.Add(1)
			go func(conn net.Conn) {
				defer conn.Close()
				br := bufio.NewReader(conn)
				for {
					line, err := br.ReadString('\n')
					if err != nil || line == "\r\n" || line == "\n" {
						break
					}
				}
				_, _ = conn.Write(response)
			}(conn)
		}
	}()

	t.Cleanup(func() { _ = ln.Close() })
	return o
}

func (o *testOrigin) url(path string) string {
	return fmt.Sprintf("http://%s%s", o.ln.Addr(), path)
}

func startProxy(t *testing.T, store *cache.Store) *Server {
	t.Helper()

	bc := &conf.Bootstrap{}
	bc.Normalize()
	bc.Server.Port = 0

	s := NewServer(bc, store, nil, mod.NewAccessLog(nil))
	require.NoError(t, s.listen())

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = s.Start(ctx) }()

	t.Cleanup(func() {
		cancel()
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		_ = s.Stop(stopCtx)
	})
	return s
}

// roundTrip opens one client connection, sends a raw request, and reads
// the full response until the proxy closes the connection.
func roundTrip(t *testing.T, proxyAddr net.Addr, request string) []byte {
	t.Helper()

	conn, err := net.Dial("tcp", proxyAddr.String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = io.WriteString(conn, request)
	require.NoError(t, err)

	resp, err := io.ReadAll(conn)
	require.NoError(t, err)
	return resp
}

func originResponse(bodySize int) []byte {
	body := strings.Repeat("d", bodySize)
	return []byte(fmt.Sprintf("HTTP/1.0 200 OK\r\nContent-Length: %d\r\nContent-Type: text/plain\r\n\r\n%s", bodySize, body))
}

func TestColdThenWarmGET(t *testing.T) {
	response := originResponse(200)
	origin := startOrigin(t, response)
	store := cache.New()
	s := startProxy(t, store)

	req := fmt.Sprintf("GET %s HTTP/1.0\r\n\r\n", origin.url("/a"))

	got := roundTrip(t, s.Addr(), req)
	assert.Equal(t, response, got)
	assert.EqualValues(t, 1, origin.hits.Load())

	// identical request must come from cache without touching the origin
	got = roundTrip(t, s.Addr(), req)
	assert.Equal(t, response, got)
	assert.EqualValues(t, 1, origin.hits.Load())

	lease, ok := store.Lookup(origin.url("/a"))
	require.True(t, ok)
	assert.Equal(t, response, lease.Bytes())
	lease.Release()
}

func TestNonGETRejected(t *testing.T) {
	store := cache.New()
	s := startProxy(t, store)

	got := string(roundTrip(t, s.Addr(), "POST http://x/ HTTP/1.0\r\n\r\n"))
	assert.True(t, strings.HasPrefix(got, "HTTP/1.0 501 Not Implemented\r\n"))
	assert.Contains(t, got, "501")
	assert.Contains(t, got, "Not Implemented")
}

func TestMalformedRequestLine(t *testing.T) {
	store := cache.New()
	s := startProxy(t, store)

	got := string(roundTrip(t, s.Addr(), "GARBAGE\r\n\r\n"))
	assert.True(t, strings.HasPrefix(got, "HTTP/1.0 400 Bad Request\r\n"))
}

func TestUnsupportedVersionRejected(t *testing.T) {
	store := cache.New()
	s := startProxy(t, store)

	got := string(roundTrip(t, s.Addr(), "GET http://x/ HTTP/2\r\n\r\n"))
	assert.True(t, strings.HasPrefix(got, "HTTP/1.0 400 Bad Request\r\n"))
}

func TestOversizeResponseNotCached(t *testing.T) {
	response := originResponse(150000)
	origin := startOrigin(t, response)
	store := cache.New()
	s := startProxy(t, store)

	req := fmt.Sprintf("GET %s HTTP/1.0\r\n\r\n", origin.url("/big"))

	got := roundTrip(t, s.Addr(), req)
	assert.Equal(t, len(response), len(got))
	assert.Equal(t, response, got)

	// the object exceeded the admission bound; the origin is hit again
	got = roundTrip(t, s.Addr(), req)
	assert.Equal(t, response, got)
	assert.EqualValues(t, 2, origin.hits.Load())
	assert.Equal(t, 0, store.Len())
}

func TestConnectFailureClosesSilently(t *testing.T) {
	store := cache.New()
	s := startProxy(t, store)

	// a listener that is closed right away yields a dead origin port
	dead, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := dead.Addr().String()
	require.NoError(t, dead.Close())

	got := roundTrip(t, s.Addr(), fmt.Sprintf("GET http://%s/ HTTP/1.0\r\n\r\n", addr))
	assert.Empty(t, got)
}

func TestClientHeadersReachOrigin(t *testing.T) {
	var captured atomic.Pointer[string]

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		br := bufio.NewReader(conn)
		var lines []string
		for {
			line, err := br.ReadString('\n')
			if err != nil || line == "\r\n" {
				break
			}
			lines = append(lines, line)
		}
		joined := strings.Join(lines, "")
		captured.Store(&joined)
		_, _ = conn.Write(originResponse(10))
	}()

	store := cache.New()
	s := startProxy(t, store)

	req := fmt.Sprintf("GET http://%s/p?q=1 HTTP/1.0\r\nAccept: */*\r\nUser-Agent: curl/8.0\r\n\r\n", ln.Addr())
	_ = roundTrip(t, s.Addr(), req)

	require.NotNil(t, captured.Load())
	got := *captured.Load()
	assert.True(t, strings.HasPrefix(got, "GET /p?q=1 HTTP/1.0\r\n"))
	assert.Contains(t, got, "Accept: */*\r\n")
	assert.Contains(t, got, userAgentHeader)
	assert.NotContains(t, got, "curl")
}
