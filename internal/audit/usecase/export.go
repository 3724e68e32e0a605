package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/otpvault/internal/audit/entity"
	"github.com/shandysiswandi/otpvault/internal/pkg/goerror"
	"github.com/shandysiswandi/otpvault/internal/pkg/storage"
)

const defaultExportMaxRows int32 = 50_000

var errExportNotConfigured = errors.New("audit export bucket is not configured")

//nolint:gochecknoglobals // fixed csv layout
var exportHeader = []string{
	"id", "occurred_at", "event_type", "external_user_id", "credential_id",
	"success", "outcome", "caller_ip", "caller_user_agent", "method", "device_info",
}

type ExportInput struct {
	CompanyID string `validate:"required"`
	From      time.Time
	To        time.Time
}

type ExportOutput struct {
	URL       string
	Rows      int
	ExpiresAt time.Time
}

func (s *Usecase) Export(ctx context.Context, in ExportInput) (*ExportOutput, error) {
	ctx, span := s.startSpan(ctx, "Export")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if !in.From.IsZero() && !in.To.IsZero() && !in.From.Before(in.To) {
		return nil, goerror.NewInvalidInput(nil, "to", "to must be after from")
	}

	bucket := strings.TrimSpace(s.cfg.GetString("modules.audit.export_bucket"))
	if bucket == "" {
		slog.ErrorContext(ctx, "audit export requested without a bucket", "company_id", in.CompanyID)
		return nil, goerror.NewServer(errExportNotConfigured)
	}

	limit := int32(s.cfg.GetInt("modules.audit.export_max_rows"))
	if limit <= 0 {
		limit = defaultExportMaxRows
	}

	ttl := s.cfg.GetMinute("modules.audit.export_url_ttl_minutes")
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, goerror.NewServer(err)
	}

	rows := 0
	err := s.repoDB.EachEvent(ctx, entity.EventFilter{
		CompanyID: in.CompanyID,
		From:      in.From,
		To:        in.To,
	}, limit, func(ev entity.Event) error {
		rows++
		return w.Write([]string{
			strconv.FormatInt(ev.ID, 10),
			ev.OccurredAt.UTC().Format(time.RFC3339),
			ev.EventType,
			ev.ExternalUserID,
			ev.CredentialID,
			strconv.FormatBool(ev.Success),
			ev.Outcome,
			ev.CallerIP,
			ev.CallerUserAgent,
			ev.Details.GetString("method"),
			ev.Details.GetString("device_info"),
		})
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo read events for export", "company_id", in.CompanyID, "error", err)
		return nil, goerror.NewServer(err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	key := fmt.Sprintf("%s/%s/%s.csv", in.CompanyID, now.UTC().Format("20060102"), s.uuid.Generate())

	if _, err := s.storage.PutObject(ctx, bucket, key, &buf, storage.PutOptions{
		Size:        int64(buf.Len()),
		ContentType: "text/csv",
		Metadata:    map[string]string{"company_id": in.CompanyID, "rows": strconv.Itoa(rows)},
	}); err != nil {
		slog.ErrorContext(ctx, "failed to upload audit export", "company_id", in.CompanyID, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	url, err := s.storage.PresignGet(ctx, bucket, key, ttl)
	if err != nil {
		slog.ErrorContext(ctx, "failed to presign audit export", "company_id", in.CompanyID, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "audit export created", "company_id", in.CompanyID, "key", key, "rows", rows)

	return &ExportOutput{URL: url, Rows: rows, ExpiresAt: now.Add(ttl)}, nil
}
