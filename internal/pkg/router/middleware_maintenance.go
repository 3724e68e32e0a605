package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shandysiswandi/otpvault/internal/pkg/config"
)

// maintenanceRules matches route patterns exactly, or by prefix when the
// configured entry ends with "*" (e.g. "/api/v1/verify/*").
type maintenanceRules struct {
	exact    map[string]struct{}
	prefixes []string
}

func newMaintenanceRules(entries []string) maintenanceRules {
	rules := maintenanceRules{exact: make(map[string]struct{})}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		switch {
		case e == "":
		case strings.HasSuffix(e, "*"):
			rules.prefixes = append(rules.prefixes, strings.TrimSuffix(e, "*"))
		default:
			rules.exact[e] = struct{}{}
		}
	}
	return rules
}

func (m maintenanceRules) blocked(route string) bool {
	if _, ok := m.exact[route]; ok {
		return true
	}
	for _, p := range m.prefixes {
		if strings.HasPrefix(route, p) {
			return true
		}
	}
	return false
}

func middlewareMaintenance(cfg config.Config) Middleware {
	var rules maintenanceRules
	retryAfter := 0
	if cfg != nil {
		rules = newMaintenanceRules(cfg.GetArray("app.maintenance.endpoints"))
		retryAfter = cfg.GetInt("app.maintenance.retry_after_seconds")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rules.blocked(matchedRoutePath(r)) {
				next.ServeHTTP(w, r)
				return
			}
			if retryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			}
			writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
		})
	}
}
