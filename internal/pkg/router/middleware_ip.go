package router

import (
	"net"
	"net/http"
	"strings"

	"github.com/shandysiswandi/otpvault/internal/pkg/config"
)

// proxyHeaders are consulted in order when the server sits behind a trusted proxy.
//
//nolint:gochecknoglobals // fixed lookup order
var proxyHeaders = []string{"True-Client-IP", "X-Real-IP", "X-Forwarded-For"}

// middlewareIP rewrites RemoteAddr to the caller address recorded in audit
// events. Forwarding headers are only honoured when
// app.server.trust_proxy_headers is set, otherwise any client could forge
// its audited address.
func middlewareIP(cfg config.Config) Middleware {
	trust := cfg == nil || cfg.GetBool("app.server.trust_proxy_headers")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := callerIP(r, trust); ip != "" {
				r.RemoteAddr = ip
			}
			next.ServeHTTP(w, r)
		})
	}
}

func callerIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, h := range proxyHeaders {
			v, _, _ := strings.Cut(r.Header.Get(h), ",")
			if ip := net.ParseIP(strings.TrimSpace(v)); ip != nil {
				return ip.String()
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}
	return ""
}
