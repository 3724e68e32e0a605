package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpvault/internal/audit/entity"
)

// RecordEvent stores ev once. A replayed id is a no-op and reports false.
// Usage history is purged in the same transaction when ev.PurgesUsage.
func (s *DB) RecordEvent(ctx context.Context, ev entity.Event) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "RecordEvent")
	defer func() { s.endSpan(span, err) }()

	details, err := ev.Details.Value()
	if err != nil {
		return false, err
	}

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	tag, err := tx.Exec(ctx, queryInsertEvent,
		ev.ID,
		ev.CompanyID,
		ev.ExternalUserID,
		ev.CredentialID,
		ev.EventType,
		ev.Success,
		ev.Outcome,
		ev.CallerIP,
		ev.CallerUserAgent,
		details,
		ev.OccurredAt,
	)
	if err != nil {
		return false, s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if ev.PurgesUsage() {
		if _, err := tx.Exec(ctx, queryPurgeUsageEvents,
			ev.CompanyID,
			ev.CredentialID,
			entity.UsageEventTypes,
			ev.OccurredAt,
		); err != nil {
			return false, s.mapError(err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return false, s.mapError(err)
	}

	return true, nil
}
