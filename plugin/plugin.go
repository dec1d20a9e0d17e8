package plugin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/omalloc/courier/conf"
	"github.com/omalloc/courier/contrib/log"
	"github.com/omalloc/courier/contrib/transport"
)

// Plugin extends the admin plane: it can mount routes, intercept admin
// requests, and run background work tied to the app lifecycle.
type Plugin interface {
	transport.Server

	AddRouter(router *http.ServeMux)
	HandleFunc(next http.HandlerFunc) http.HandlerFunc
}

// Factory creates a plugin from its config block.
type Factory func(c *conf.Plugin, log *log.Helper) (Plugin, error)

// ErrNotFound is plugin not found.
var ErrNotFound = errors.New("Plugin has not been registered")

var globalRegistry = map[string]Factory{}

var _failedPluginCreate = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "courier",
	Subsystem: "plugin",
	Name:      "failed_create_total",
	Help:      "The total number of failed plugin creates",
}, []string{"name"})

func init() {
	prometheus.MustRegister(_failedPluginCreate)
}

// Register registers one plugin factory.
func Register(name string, factory Factory) {
	globalRegistry[createFullName(name)] = factory
}

// Create instantiates a plugin based on c.
func Create(c *conf.Plugin, clog *log.Helper) (Plugin, error) {
	factory, ok := globalRegistry[createFullName(c.Name)]
	if !ok {
		_failedPluginCreate.WithLabelValues(c.Name).Inc()
		return nil, ErrNotFound
	}

	instance, err := factory(c, clog)
	if err != nil {
		_failedPluginCreate.WithLabelValues(c.Name).Inc()
		log.Errorw(log.DefaultMessageKey, "Failed to create plugin", "name", c.Name, "error", err)
		return nil, err
	}

	log.Debugf("plugin created at %s", createFullName(c.Name))
	return instance, nil
}

func createFullName(name string) string {
	return strings.ToLower("courier.plugin." + name)
}
