package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpvault/internal/audit/entity"
	"github.com/shandysiswandi/otpvault/internal/pkg/goerror"
	"github.com/shandysiswandi/otpvault/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("audit.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// optionalTime turns the zero time into SQL NULL so the bound is skipped.
func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func filterArgs(f entity.EventFilter) []any {
	return []any{f.CompanyID, f.ExternalUserID, f.EventType, optionalTime(f.From), optionalTime(f.To)}
}

func scanEvent(row pgx.Row) (entity.Event, error) {
	var (
		e       entity.Event
		details []byte
	)
	if err := row.Scan(
		&e.ID,
		&e.CompanyID,
		&e.ExternalUserID,
		&e.CredentialID,
		&e.EventType,
		&e.Success,
		&e.Outcome,
		&e.CallerIP,
		&e.CallerUserAgent,
		&details,
		&e.OccurredAt,
		&e.RecordedAt,
	); err != nil {
		return entity.Event{}, err
	}

	if err := e.Details.Scan(details); err != nil {
		return entity.Event{}, err
	}

	return e, nil
}
