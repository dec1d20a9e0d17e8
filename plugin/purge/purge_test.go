package purge

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omalloc/courier/cache"
	"github.com/omalloc/courier/conf"
	"github.com/omalloc/courier/contrib/log"
	"github.com/omalloc/courier/plugin"
)

func newTestPlugin(t *testing.T, opts map[string]any) plugin.Plugin {
	t.Helper()
	p, err := NewPurgePlugin(&conf.Plugin{Name: "purge", Options: opts}, log.NewHelper(nil))
	require.NoError(t, err)
	return p
}

func teapotNext(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
}

func TestPurgeRemovesObject(t *testing.T) {
	store := cache.New()
	cache.SetDefault(store)
	store.Admit("http://origin.test/a", []byte("payload"))

	handler := newTestPlugin(t, nil).HandleFunc(teapotNext)

	req := httptest.NewRequest(Method, "http://127.0.0.1:7078/", nil)
	req.RemoteAddr = "127.0.0.1:55555"
	req.Header.Set(StoreURLKey, "http://origin.test/a")

	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"success"}`, rec.Body.String())
	assert.Equal(t, 0, store.Len())
}

func TestPurgeMissingObject(t *testing.T) {
	cache.SetDefault(cache.New())

	handler := newTestPlugin(t, nil).HandleFunc(teapotNext)

	req := httptest.NewRequest(Method, "http://127.0.0.1:7078/", nil)
	req.RemoteAddr = "127.0.0.1:55555"
	req.Header.Set(StoreURLKey, "http://origin.test/missing")

	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPurgeForbiddenAddr(t *testing.T) {
	cache.SetDefault(cache.New())

	handler := newTestPlugin(t, nil).HandleFunc(teapotNext)

	req := httptest.NewRequest(Method, "http://127.0.0.1:7078/", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	req.Header.Set(StoreURLKey, "http://origin.test/a")

	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNonPurgePassesThrough(t *testing.T) {
	handler := newTestPlugin(t, nil).HandleFunc(teapotNext)

	req := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:7078/metrics", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestOptionsDecode(t *testing.T) {
	p := newTestPlugin(t, map[string]any{
		"allow_hosts": []string{"10.0.0.1"},
		"header_name": "X-Drop-Url",
	})

	cache.SetDefault(cache.New())
	handler := p.HandleFunc(teapotNext)

	req := httptest.NewRequest(Method, "http://127.0.0.1:7078/", nil)
	req.RemoteAddr = "10.0.0.1:9"
	req.Header.Set("X-Drop-Url", "http://origin.test/x")

	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
