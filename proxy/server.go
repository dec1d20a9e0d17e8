package proxy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cloudflare/tableflip"
	"github.com/paulbellamy/ratecounter"

	"github.com/omalloc/courier/cache"
	"github.com/omalloc/courier/conf"
	"github.com/omalloc/courier/contrib/log"
	"github.com/omalloc/courier/contrib/tracing"
	"github.com/omalloc/courier/contrib/transport"
	"github.com/omalloc/courier/metrics"
	"github.com/omalloc/courier/server/mod"
)

var _ transport.Server = (*Server)(nil)

// Server owns the proxy listening socket. Each accepted connection runs
// one transaction on its own goroutine and is closed when it finishes.
type Server struct {
	bc    *conf.Bootstrap
	store *cache.Store
	flip  *tableflip.Upgrader
	alog  *mod.AccessLogger
	clog  *log.Helper

	ln      net.Listener
	stop    chan struct{}
	done    chan struct{}
	counter *ratecounter.RateCounter
}

// NewServer builds the data-plane server. flip may be nil; the listener
// then comes from net.Listen without graceful-upgrade support.
func NewServer(bc *conf.Bootstrap, store *cache.Store, flip *tableflip.Upgrader, alog *mod.AccessLogger) *Server {
	return &Server{
		bc:      bc,
		store:   store,
		flip:    flip,
		alog:    alog,
		clog:    log.NewHelper(log.GetLogger()),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		counter: ratecounter.NewRateCounter(1 * time.Second),
	}
}

// Addr returns the bound listener address, for tests binding port 0.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) listen() error {
	addr := fmt.Sprintf(":%d", s.bc.Server.Port)

	if s.flip != nil {
		ln, err := s.flip.Listen("tcp", addr)
		if err != nil {
			return err
		}
		s.ln = ln
		if err := s.flip.Ready(); err != nil {
			return err
		}
		return nil
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln
	return nil
}

func (s *Server) Start(ctx context.Context) error {
	if s.ln == nil {
		if err := s.listen(); err != nil {
			return err
		}
	}
	defer close(s.done)

	s.clog.Infof("proxy listening on %s", s.ln.Addr())

	go s.reportRate()

	tracer := tracing.Tracer("courier/proxy")
	var pending sync.WaitGroup

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.stop:
				pending.Wait()
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				pending.Wait()
				return nil
			}
			// accept failures are resource exhaustion; fatal by policy
			return err
		}

		s.counter.Incr(1)
		s.clog.Debugf("accepted connection from %s", conn.RemoteAddr())

		pending.Add(1)
		go func(conn net.Conn) {
			defer pending.Done()

			metric := metrics.NewTransaction(conn.RemoteAddr().String())
			t := &transaction{
				conn:   conn,
				br:     bufio.NewReaderSize(conn, maxLine),
				store:  s.store,
				log:    s.clog.With("request-id", metric.ID),
				metric: metric,
				tracer: tracer,
			}
			t.run(ctx)

			metrics.ObserveTransaction(metric)
			s.alog.Write(metric)
		}(conn)
	}
}

func (s *Server) Stop(ctx context.Context) error {
	close(s.stop)
	if s.ln == nil {
		return nil
	}
	_ = s.ln.Close()

	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// reportRate logs the accept rate once a minute while traffic flows.
func (s *Server) reportRate() {
	tick := time.NewTicker(time.Minute)
	defer tick.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-tick.C:
			if rate := s.counter.Rate(); rate > 0 {
				s.clog.Infof("accepting %d conn/s", rate)
			}
		}
	}
}
