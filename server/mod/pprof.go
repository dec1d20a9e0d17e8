package mod

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"net/http/pprof"

	"github.com/omalloc/courier/conf"
	"github.com/omalloc/courier/contrib/log"
)

// HandlePProf mounts the runtime profiling endpoints on the admin mux.
// Courier only exposes them when credentials are configured; the admin
// plane may be reachable beyond loopback, and profiles leak cache keys.
func HandlePProf(c *conf.ServerPProf, r *http.ServeMux) {
	if c.Username == "" || c.Password == "" {
		log.Infof("pprof endpoints disabled, no admin credentials configured")
		return
	}

	guard := credentialGuard(c.Username, c.Password)

	r.HandleFunc("/debug/pprof/", guard(pprof.Index))
	r.HandleFunc("/debug/pprof/cmdline", guard(pprof.Cmdline))
	r.HandleFunc("/debug/pprof/profile", guard(pprof.Profile))
	r.HandleFunc("/debug/pprof/symbol", guard(pprof.Symbol))
	r.HandleFunc("/debug/pprof/trace", guard(pprof.Trace))
}

// credentialGuard returns a middleware enforcing HTTP basic auth against
// the configured pair. Comparison runs over sha256 digests in constant
// time, and both sides are always evaluated.
func credentialGuard(username, password string) func(http.HandlerFunc) http.HandlerFunc {
	wantUser := sha256.Sum256([]byte(username))
	wantPass := sha256.Sum256([]byte(password))

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			gotUser, gotPass, ok := r.BasicAuth()
			if ok {
				userHash := sha256.Sum256([]byte(gotUser))
				passHash := sha256.Sum256([]byte(gotPass))

				userMatch := subtle.ConstantTimeCompare(userHash[:], wantUser[:])
				passMatch := subtle.ConstantTimeCompare(passHash[:], wantPass[:])
				if userMatch&passMatch == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}

			w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		}
	}
}
