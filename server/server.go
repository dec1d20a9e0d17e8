package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omalloc/courier/cache"
	"github.com/omalloc/courier/conf"
	"github.com/omalloc/courier/contrib/log"
	"github.com/omalloc/courier/contrib/transport"
	"github.com/omalloc/courier/pkg/encoding"
	"github.com/omalloc/courier/pkg/x/runtime"
	"github.com/omalloc/courier/plugin"
	"github.com/omalloc/courier/server/mod"
)

var _ transport.Server = (*AdminServer)(nil)

// AdminServer is the local control plane: metrics, probes, profiling,
// the cache index and plugin routes. It never serves proxy traffic.
type AdminServer struct {
	*http.Server

	plugins []plugin.Plugin
	store   *cache.Store
	clog    *log.Helper
}

func NewAdminServer(bc *conf.Bootstrap, store *cache.Store, plugins []plugin.Plugin) *AdminServer {
	s := &AdminServer{
		Server: &http.Server{
			Addr: bc.Admin.Addr,
		},
		plugins: plugins,
		store:   store,
		clog:    log.NewHelper(log.GetLogger()),
	}

	mux := s.newServeMux(bc)

	// let plugins intercept admin requests (PURGE and friends)
	next := mux.ServeHTTP
	for _, plug := range s.plugins {
		if cur := plug.HandleFunc(next); cur != nil {
			next = cur
		}
	}
	s.Handler = http.HandlerFunc(next)

	return s
}

func (s *AdminServer) Start(ctx context.Context) error {
	s.BaseContext = func(_ net.Listener) context.Context {
		return ctx
	}

	s.clog.Infof("admin api listening on %s", s.Addr)

	if err := s.ListenAndServe(); err != nil &&
		!errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *AdminServer) Stop(ctx context.Context) error {
	return s.Shutdown(ctx)
}

func (s *AdminServer) newServeMux(bc *conf.Bootstrap) *http.ServeMux {
	mux := http.NewServeMux()

	// profiles handler
	mod.HandlePProf(bc.Admin.PProf, mux)
	// internal handlers
	mux.Handle("/favicon.ico", http.NotFoundHandler())
	// version info
	mux.Handle("/version", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := encoding.GetDefaultCodec().Marshal(runtime.BuildInfo)
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
	}))
	// metrics
	mux.Handle("/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	// cache index export
	mux.Handle("/cache/index", http.HandlerFunc(s.handleCacheIndex))
	// probes
	mux.Handle("/healthz/startup-probe", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := []byte("ok")

		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(payload)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
	}))
	mux.Handle("/healthz/liveness-probe", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	mux.Handle("/healthz/readiness-probe", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// plugin routes
	for _, plug := range s.plugins {
		plug.AddRouter(mux)
	}

	return mux
}

// handleCacheIndex dumps the resident object index, JSON by default and
// CBOR when negotiated.
func (s *AdminServer) handleCacheIndex(w http.ResponseWriter, r *http.Request) {
	codec := encoding.GetDefaultCodec()
	contentType := "application/json; charset=utf-8"
	if strings.Contains(r.Header.Get("Accept"), "application/cbor") {
		if c := encoding.GetCodec("cbor"); c != nil {
			codec = c
			contentType = "application/cbor"
		}
	}

	payload, err := codec.Marshal(struct {
		Total   int               `json:"total_size" cbor:"1,keyasint"`
		Objects []cache.EntryInfo `json:"objects" cbor:"2,keyasint"`
	}{
		Total:   s.store.TotalSize(),
		Objects: s.store.Snapshot(),
	})
	if err != nil {
		s.clog.Errorf("marshal cache index failed: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
