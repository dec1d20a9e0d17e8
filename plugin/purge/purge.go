package purge

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/omalloc/courier/cache"
	"github.com/omalloc/courier/conf"
	"github.com/omalloc/courier/contrib/log"
	"github.com/omalloc/courier/plugin"
)

// Method is the admin-plane verb that invalidates one cached object.
// e.g. curl -X PURGE -H 'X-Store-Url: http://www.example.com/1K.bin' http://127.0.0.1:7078/
const Method = "PURGE"

// StoreURLKey names the header carrying the cache key to drop; it must be
// the absolute request URI exactly as clients send it to the proxy.
const StoreURLKey = "X-Store-Url"

var _ plugin.Plugin = (*PurgePlugin)(nil)

type option struct {
	AllowHosts []string `json:"allow_hosts" yaml:"allow_hosts"`
	HeaderName string   `json:"header_name" yaml:"header_name"`
	Hostname   string   `json:"hostname" yaml:"hostname"`
}

type PurgePlugin struct {
	log       *log.Helper
	opt       *option
	allowAddr map[string]struct{}
}

func init() {
	plugin.Register("purge", NewPurgePlugin)
}

func (r *PurgePlugin) Start(ctx context.Context) error {
	return nil
}

func (r *PurgePlugin) Stop(ctx context.Context) error {
	return nil
}

func (r *PurgePlugin) AddRouter(router *http.ServeMux) {}

func (r *PurgePlugin) HandleFunc(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		// skip not PURGE request
		if req.Method != Method {
			next(w, req)
			return
		}

		ipPort := strings.Split(req.RemoteAddr, ":")
		if _, ok := r.allowAddr[ipPort[0]]; !ok {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		storeUrl := req.Header.Get(r.opt.HeaderName)
		if storeUrl == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		r.log.Debugf("purge request %s received: %s", ipPort[0], storeUrl)

		if err := cache.Current().Remove(storeUrl); err != nil {
			if errors.Is(err, cache.ErrNotFound) {
				w.Header().Set("Content-Length", "0")
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusNotFound)
				return
			}

			r.log.Errorf("purge %s failed: %v", storeUrl, err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		payload := []byte(`{"message":"success"}`)
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
	}
}

func NewPurgePlugin(c *conf.Plugin, clog *log.Helper) (plugin.Plugin, error) {
	opt := &option{
		HeaderName: StoreURLKey,
	}
	if err := c.Unmarshal(opt); err != nil {
		return nil, err
	}

	allowAddr := make(map[string]struct{}, len(opt.AllowHosts)+1)
	allowAddr["127.0.0.1"] = struct{}{}
	for _, addr := range opt.AllowHosts {
		allowAddr[addr] = struct{}{}
	}

	return &PurgePlugin{
		log:       clog,
		opt:       opt,
		allowAddr: allowAddr,
	}, nil
}
