package proxy

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/omalloc/courier/cache"
	"github.com/omalloc/courier/contrib/log"
	"github.com/omalloc/courier/metrics"
	"github.com/omalloc/courier/pkg/iobuf"
)

// maxLine sizes the relay chunk and the request-line reader.
const maxLine = 8192

const (
	cacheStatusHit  = "HIT"
	cacheStatusMiss = "MISS"
)

// transaction drives one client connection end to end: read the request
// line, answer from cache or fetch from the origin, and conditionally
// admit the fetched response. Every exit path closes the client socket.
type transaction struct {
	conn   net.Conn
	br     *bufio.Reader
	store  *cache.Store
	log    *log.Helper
	metric *metrics.Transaction
	tracer trace.Tracer
}

func (t *transaction) run(ctx context.Context) {
	defer t.conn.Close()

	line, err := t.br.ReadString('\n')
	if err != nil {
		// client went away before sending a full request line
		return
	}

	method, uri, version, ok := parseRequestLine(line)
	if !ok || !acceptedVersion(version) {
		t.log.Infof("malformed request line from %s: %q", t.metric.RemoteAddr, strings.TrimRight(line, "\r\n"))
		t.metric.Status = 400
		respondError(t.conn, 400, "Bad Request", "Courier could not parse this request")
		return
	}

	t.metric.Method = method
	t.metric.URI = uri

	if method != "GET" {
		t.log.Infof("unsupported method %s from %s", method, t.metric.RemoteAddr)
		t.metric.Status = 501
		respondError(t.conn, 501, "Not Implemented", "Courier does not implement this method")
		return
	}

	ctx, span := t.tracer.Start(ctx, "proxy.transaction")
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", uri),
	)

	if lease, ok := t.store.Lookup(uri); ok {
		t.serveFromCache(lease)
		span.SetAttributes(attribute.String("cache.status", cacheStatusHit))
		return
	}
	t.metric.CacheStatus = cacheStatusMiss
	span.SetAttributes(attribute.String("cache.status", cacheStatusMiss))

	t.fetchAndRelay(ctx, uri)
}

// serveFromCache streams the leased bytes in a single write.
func (t *transaction) serveFromCache(lease *cache.Lease) {
	defer lease.Release()

	t.metric.CacheStatus = cacheStatusHit
	t.metric.Status = parseStatusCode(lease.Bytes())

	n, err := t.conn.Write(lease.Bytes())
	t.metric.SentBytes += uint64(n)
	if err != nil {
		t.log.Warnf("write cached object to %s failed: %v", t.metric.RemoteAddr, err)
		metrics.ObserveClientAbort()
	}
}

// fetchAndRelay handles the miss path: CONNECT, FORWARD, RELAY, ADMIT.
func (t *transaction) fetchAndRelay(ctx context.Context, uri string) {
	u, err := url.Parse(uri)
	if err != nil || u.Hostname() == "" {
		t.log.Infof("unusable request URI %q: %v", uri, err)
		return
	}
	t.metric.Host = u.Hostname()

	port := u.Port()
	if port == "" {
		port = "80"
	}
	path := u.RequestURI()
	if path == "" {
		path = "/"
	}

	origin, err := (&net.Dialer{}).DialContext(ctx, "tcp", net.JoinHostPort(u.Hostname(), port))
	if err != nil {
		t.log.Infof("connect %s failed: %v", net.JoinHostPort(u.Hostname(), port), err)
		metrics.ObserveConnectFailure()
		return
	}
	defer origin.Close()

	headers := readClientHeaders(t.br)
	if _, err := origin.Write(buildUpstreamRequest(path, u.Hostname(), headers)); err != nil {
		t.log.Infof("forward request to %s failed: %v", u.Hostname(), err)
		return
	}

	capture := iobuf.NewCaptureBuffer(t.store.MaxObjectSize())
	buf := make([]byte, maxLine)
	first := true

	for {
		n, rerr := origin.Read(buf)
		if n > 0 {
			if first {
				t.metric.Status = parseStatusCode(buf[:n])
				first = false
			}
			t.metric.RecvBytes += uint64(n)
			_, _ = capture.Write(buf[:n])

			wn, werr := t.conn.Write(buf[:n])
			t.metric.SentBytes += uint64(wn)
			if werr != nil {
				t.log.Warnf("relay to %s aborted: %v", t.metric.RemoteAddr, werr)
				metrics.ObserveClientAbort()
				return
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			t.log.Infof("origin %s read failed mid-stream: %v", u.Hostname(), rerr)
			return
		}
	}

	// The origin stream completed; admit when it fit the object bound and
	// a second lookup still finds no resident copy. Admit re-checks the key
	// under its own lock, so a concurrent fetch of the same URI cannot
	// double-insert even if it wins the race after this lookup.
	if capture.Admissible() {
		if lease, ok := t.store.Lookup(uri); ok {
			lease.Release()
			return
		}
		t.store.Admit(uri, capture.Bytes())
	}
}

// parseRequestLine splits "METHOD URI VERSION\r\n" into its tokens.
func parseRequestLine(line string) (method, uri, version string, ok bool) {
	fields := strings.Fields(strings.TrimRight(line, "\r\n"))
	if len(fields) != 3 {
		return "", "", "", false
	}
	return fields[0], fields[1], fields[2], true
}

// acceptedVersion admits HTTP/1.0 and HTTP/1.1 request lines.
func acceptedVersion(version string) bool {
	return version == "HTTP/1.0" || version == "HTTP/1.1"
}

// parseStatusCode extracts the status code from the first relayed chunk,
// for logging only. Unparseable prefixes report 0.
func parseStatusCode(b []byte) int {
	s := string(b[:min(len(b), 64)])
	if !strings.HasPrefix(s, "HTTP/") {
		return 0
	}
	_, rest, ok := strings.Cut(s, " ")
	if !ok || len(rest) < 3 {
		return 0
	}
	code, err := strconv.Atoi(rest[:3])
	if err != nil {
		return 0
	}
	return code
}
