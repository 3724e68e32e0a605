package inbound

import (
	"time"

	"github.com/shandysiswandi/otpvault/internal/audit/usecase"
	"github.com/shandysiswandi/otpvault/internal/pkg/authz"
	"github.com/shandysiswandi/otpvault/internal/pkg/goerror"
	"github.com/shandysiswandi/otpvault/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc       uc
	enforcer authz.Enforcer
}

func (h *HTTPEndpoint) ListEvents(r *router.Request) (any, error) {
	clm, err := authz.Authorize(r.Context(), h.enforcer, authz.ObjAudit, authz.ActRead)
	if err != nil {
		return nil, err
	}

	from, err := r.GetQueryDate("from", time.RFC3339)
	if err != nil {
		return nil, err
	}

	to, err := r.GetQueryDate("to", time.RFC3339)
	if err != nil {
		return nil, err
	}

	size, err := r.GetQueryInt32("size")
	if err != nil {
		return nil, err
	}

	page, err := r.GetQueryInt32("page")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.List(r.Context(), usecase.ListInput{
		CompanyID:      clm.CompanyID,
		ExternalUserID: r.GetQuery("external_user_id"),
		EventType:      r.GetQuery("event_type"),
		From:           from,
		To:             to,
		Page:           page,
		Size:           size,
	})
	if err != nil {
		return nil, err
	}

	events := make([]AuditEventResponse, 0, len(resp.Events))
	for _, ev := range resp.Events {
		events = append(events, AuditEventResponse{
			ID:              ev.ID,
			ExternalUserID:  ev.ExternalUserID,
			CredentialID:    ev.CredentialID,
			EventType:       ev.EventType,
			Success:         ev.Success,
			Outcome:         ev.Outcome,
			CallerIP:        ev.CallerIP,
			CallerUserAgent: ev.CallerUserAgent,
			Details:         ev.Details,
			OccurredAt:      ev.OccurredAt,
		})
	}

	return AuditEventsResponse{
		Events: events,
		total:  resp.Total,
		size:   resp.Size,
		page:   resp.Page,
	}, nil
}

func (h *HTTPEndpoint) ExportEvents(r *router.Request) (any, error) {
	clm, err := authz.Authorize(r.Context(), h.enforcer, authz.ObjAudit, authz.ActRead)
	if err != nil {
		return nil, err
	}

	var req AuditExportRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	in := usecase.ExportInput{CompanyID: clm.CompanyID}
	if req.From != nil {
		in.From = *req.From
	}
	if req.To != nil {
		in.To = *req.To
	}
	if !in.From.IsZero() && !in.To.IsZero() && in.From.After(in.To) {
		return nil, goerror.NewInvalidFormat("from must be before to")
	}

	resp, err := h.uc.Export(r.Context(), in)
	if err != nil {
		return nil, err
	}

	return AuditExportResponse{
		URL:       resp.URL,
		Rows:      resp.Rows,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}
