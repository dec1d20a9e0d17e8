package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/omalloc/courier/contrib/log"
	"github.com/omalloc/courier/contrib/transport"
)

// App ties a set of transport servers to the process lifecycle: all
// servers start together, and the first SIGINT/SIGTERM (or server error)
// stops them all within the stop timeout.
type App struct {
	opts options
}

type options struct {
	id          string
	name        string
	version     string
	stopTimeout time.Duration
	logger      log.Logger
	servers     []transport.Server
}

type Option func(*options)

func ID(id string) Option {
	return func(o *options) { o.id = id }
}

func Name(name string) Option {
	return func(o *options) { o.name = name }
}

func Version(version string) Option {
	return func(o *options) { o.version = version }
}

func StopTimeout(d time.Duration) Option {
	return func(o *options) { o.stopTimeout = d }
}

func Logger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func Server(srv ...transport.Server) Option {
	return func(o *options) { o.servers = append(o.servers, srv...) }
}

func New(opts ...Option) *App {
	o := options{
		stopTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &App{opts: o}
}

// Run starts every server and blocks until shutdown completes.
func (a *App) Run() error {
	clog := log.NewHelper(a.opts.logger)
	clog.Infof("%s %s starting id=%s", a.opts.name, a.opts.version, a.opts.id)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)

	for _, srv := range a.opts.servers {
		srv := srv
		eg.Go(func() error {
			return srv.Start(ctx)
		})
		eg.Go(func() error {
			<-ctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), a.opts.stopTimeout)
			defer cancel()
			return srv.Stop(stopCtx)
		})
	}

	err := eg.Wait()
	clog.Infof("%s stopped", a.opts.name)
	return err
}
