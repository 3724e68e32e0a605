package inbound

import (
	"github.com/shandysiswandi/otpvault/internal/pkg/authz"
	"github.com/shandysiswandi/otpvault/internal/pkg/router"
)

func RegisterHTTPEndpoint(r *router.Router, uc uc, enforcer authz.Enforcer) {
	end := &HTTPEndpoint{uc: uc, enforcer: enforcer}

	r.GET("/api/v1/audit/events", end.ListEvents)
	r.POST("/api/v1/audit/events/export", end.ExportEvents)
}
