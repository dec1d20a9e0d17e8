package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"dario.cat/mergo"
	"github.com/cloudflare/tableflip"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/omalloc/courier/cache"
	"github.com/omalloc/courier/conf"
	"github.com/omalloc/courier/contrib/app"
	"github.com/omalloc/courier/contrib/config"
	"github.com/omalloc/courier/contrib/config/provider/file"
	"github.com/omalloc/courier/contrib/log"
	"github.com/omalloc/courier/contrib/tracing"
	"github.com/omalloc/courier/contrib/transport"
	"github.com/omalloc/courier/internal/constants"
	"github.com/omalloc/courier/pkg/encoding"
	"github.com/omalloc/courier/pkg/encoding/json"
	"github.com/omalloc/courier/pkg/x/runtime"
	"github.com/omalloc/courier/plugin"
	_ "github.com/omalloc/courier/plugin/purge"
	"github.com/omalloc/courier/proxy"
	"github.com/omalloc/courier/server"
	"github.com/omalloc/courier/server/mod"
)

var (
	id, _ = os.Hostname()

	// flagConf is the config flag.
	flagConf string = "config.yaml"
	// flagVerbose is the verbose flag.
	flagVerbose bool

	// Version is the version of the app.
	Version string = "no-set"
	GitHash string = "no-set"
	Built   string = "0"
)

func init() {
	// init flag
	flag.StringVar(&flagConf, "c", "config.yaml", "config file path")
	flag.BoolVar(&flagVerbose, "v", false, "enable verbose log")

	// init global encoding
	encoding.SetDefaultCodec(json.JSONCodec{})

	// init logger
	log.SetLogger(log.With(log.DefaultLogger, "ts", log.Timestamp(time.RFC3339), "pid", os.Getpid()))

	// init prometheus
	prometheus.Unregister(collectors.NewGoCollector())
	registerer := prometheus.WrapRegistererWithPrefix("courier_", prometheus.DefaultRegisterer)
	registerer.MustRegister(collectors.NewGoCollector(collectors.WithGoCollectorMemStatsMetricsDisabled()))

	runtime.BuildInfo.Name = constants.AppName
	runtime.BuildInfo.Version = Version
	runtime.BuildInfo.GitHash = GitHash
	runtime.BuildInfo.Built = Built
}

func main() {
	_ = godotenv.Load()
	flag.Parse()

	port, ok := listenPort(flag.Args())
	if !ok {
		fmt.Fprintf(os.Stderr, "usage: %s [-c config.yaml] [-v] <port>\n", os.Args[0])
		os.Exit(1)
	}

	bc := &conf.Bootstrap{}
	if _, err := os.Stat(flagConf); err == nil {
		c := config.New[conf.Bootstrap](config.WithSource(file.NewSource(flagConf)))
		defer c.Close()

		if err := c.Scan(bc); err != nil {
			log.Fatal(err)
		}
	}
	bc.Normalize()
	bc.Server.Port = port

	initLogger(bc)

	app, err := newApp(bc)
	if err != nil {
		log.Fatal(err)
	}

	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}

func newApp(bc *conf.Bootstrap) (*app.App, error) {
	// tracing (no-op unless configured)
	shutdownTracing, err := tracing.Init(bc.Tracing, Version)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			shutdownTracing()
		}
	}()

	// graceful upgrade
	flip, err := tableflip.New(tableflip.Options{
		PIDFile:        bc.PidFile,
		UpgradeTimeout: conf.StopTimeout,
	})
	if err != nil {
		return nil, err
	}
	go upgradeLoop(flip)

	// init cache store
	store := cache.New(
		cache.WithMaxObjectSize(bc.Cache.MaxObjectSize),
		cache.WithMaxCacheSize(bc.Cache.MaxCacheSize),
	)
	cache.SetDefault(store)

	// load plugin
	plugins := loadPlugin(bc)

	// transport servers
	servers := make([]transport.Server, 0, 2+len(plugins))
	servers = append(servers, proxy.NewServer(bc, store, flip, mod.NewAccessLog(bc.Server.AccessLog)))

	if bc.Admin.Addr != "" {
		servers = append(servers, server.NewAdminServer(bc, store, plugins))
	}
	for _, plug := range plugins {
		servers = append(servers, plug)
	}

	return app.New(
		app.ID(id),
		app.Name(constants.AppName),
		app.Version(Version),
		app.StopTimeout(conf.StopTimeout),
		app.Logger(log.GetLogger()),
		app.Server(servers...),
	), nil
}

func initLogger(bc *conf.Bootstrap) {
	level := log.ParseLevel(bc.Logger.Level)
	if flagVerbose {
		level = log.LevelDebug
	}
	log.SetLevel(level)

	logger := log.DefaultLogger
	if bc.Logger.Path != "" {
		logger = log.NewFileLogger(log.FileOptions{
			Path:       bc.Logger.Path,
			MaxSize:    bc.Logger.MaxSize,
			MaxAge:     bc.Logger.MaxAge,
			MaxBackups: bc.Logger.MaxBackups,
			Compress:   bc.Logger.Compress,
		})
	}
	log.SetLogger(log.With(logger, "ts", log.Timestamp(time.RFC3339), "pid", os.Getpid()))
}

func loadPlugin(bc *conf.Bootstrap) []plugin.Plugin {
	ctxlog := log.NewHelper(log.GetLogger())

	// merge global options to each plugin options
	global := map[string]any{}
	if bc.Hostname != "" {
		global["hostname"] = bc.Hostname
	}

	plugins := make([]plugin.Plugin, 0, len(bc.Plugin))
	for _, plug := range bc.Plugin {
		if len(plug.Options) > 0 {
			if err := mergo.Map(&plug.Options, global, mergo.WithOverride); err != nil {
				log.Warnf("failed to merge global options to plugin %s: %v", plug.Name, err)
			}
		}
		instance, err := plugin.Create(plug, ctxlog)
		if err != nil {
			ctxlog.Errorf("load plugin %s failed: %v", plug.Name, err)
			continue
		}
		ctxlog.Debugf("plugin %s loaded", plug.PluginName())
		plugins = append(plugins, instance)
	}
	return plugins
}

// upgradeLoop hands the listening socket to a fresh binary on SIGUSR2 and
// retires this process once the child is ready.
func upgradeLoop(flip *tableflip.Upgrader) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGUSR2)

	go func() {
		<-flip.Exit()
		_ = syscall.Kill(os.Getpid(), syscall.SIGTERM)
	}()

	for range sig {
		if err := flip.Upgrade(); err != nil {
			log.Warnf("graceful upgrade failed: %v", err)
		}
	}
}

func listenPort(args []string) (int, bool) {
	if len(args) != 1 {
		return 0, false
	}
	port, err := strconv.Atoi(args[0])
	if err != nil || port < 1 || port > 65535 {
		return 0, false
	}
	return port, true
}
