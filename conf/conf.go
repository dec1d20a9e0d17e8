package conf

import (
	"time"

	"github.com/go-viper/mapstructure/v2"
)

type Bootstrap struct {
	Hostname string    `json:"hostname" yaml:"hostname"`
	PidFile  string    `json:"pidfile" yaml:"pidfile"`
	Logger   *Logger   `json:"logger" yaml:"logger"`
	Server   *Server   `json:"server" yaml:"server"`
	Admin    *Admin    `json:"admin" yaml:"admin"`
	Cache    *Cache    `json:"cache" yaml:"cache"`
	Tracing  *Tracing  `json:"tracing" yaml:"tracing"`
	Plugin   []*Plugin `json:"plugin" yaml:"plugin"`
}

type Logger struct {
	Level      string `json:"level" yaml:"level"`
	Path       string `json:"path" yaml:"path"`
	MaxSize    int    `json:"max_size" yaml:"max_size"`
	MaxAge     int    `json:"max_age" yaml:"max_age"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	Compress   bool   `json:"compress" yaml:"compress"`
}

// Server configures the proxy data plane. Port comes from the command
// line and overrides any configured value.
type Server struct {
	Port      int              `json:"port" yaml:"port"`
	AccessLog *ServerAccessLog `json:"access_log" yaml:"access_log"`
}

type ServerAccessLog struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// Admin configures the local admin plane. An empty Addr disables it.
type Admin struct {
	Addr  string       `json:"addr" yaml:"addr"`
	PProf *ServerPProf `json:"pprof" yaml:"pprof"`
}

type ServerPProf struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// Cache bounds default to the protocol constants when zero.
type Cache struct {
	MaxObjectSize int `json:"max_object_size" yaml:"max_object_size"`
	MaxCacheSize  int `json:"max_cache_size" yaml:"max_cache_size"`
}

type Tracing struct {
	Enabled       bool    `json:"enabled" yaml:"enabled"`
	ServiceName   string  `json:"service_name" yaml:"service_name"`
	Endpoint      string  `json:"endpoint" yaml:"endpoint"`
	SamplingRatio float64 `json:"sampling_ratio" yaml:"sampling_ratio"`
}

type Plugin struct {
	Name    string         `json:"name" yaml:"name"`
	Options map[string]any `json:"options" yaml:"options"`
}

func (r *Plugin) PluginName() string {
	return r.Name
}

// Unmarshal decodes the plugin's option map into v. Options arrive as
// loosely typed YAML values (and pick up merged globals like hostname),
// so decoding is weakly typed and keyed by the same json tags the rest
// of the config uses.
func (r *Plugin) Unmarshal(v any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           v,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(r.Options)
}

// Normalize fills nil sections so callers can dereference freely.
func (b *Bootstrap) Normalize() {
	if b.Logger == nil {
		b.Logger = &Logger{Level: "info"}
	}
	if b.Server == nil {
		b.Server = &Server{}
	}
	if b.Server.AccessLog == nil {
		b.Server.AccessLog = &ServerAccessLog{}
	}
	if b.Admin == nil {
		b.Admin = &Admin{}
	}
	if b.Admin.PProf == nil {
		b.Admin.PProf = &ServerPProf{}
	}
	if b.Cache == nil {
		b.Cache = &Cache{}
	}
}

// StopTimeout bounds graceful shutdown.
const StopTimeout = 30 * time.Second
