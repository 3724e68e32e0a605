package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpvault/internal/audit/entity"
)

func (s *DB) ListEvents(ctx context.Context, f entity.EventFilter) (_ []entity.Event, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "ListEvents")
	defer func() { s.endSpan(span, err) }()

	args := filterArgs(f)

	var total int64
	if err := s.conn.QueryRow(ctx, queryCountEvents, args...).Scan(&total); err != nil {
		return nil, 0, s.mapError(err)
	}
	if total == 0 {
		return []entity.Event{}, 0, nil
	}

	rows, err := s.conn.Query(ctx, queryListEvents, append(args, f.Size, f.Offset)...)
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Event, error) {
		return scanEvent(row)
	})
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	return events, total, nil
}

// EachEvent streams up to limit matching events, oldest first, into fn.
func (s *DB) EachEvent(ctx context.Context, f entity.EventFilter, limit int32, fn func(entity.Event) error) (err error) {
	ctx, span := s.startSpan(ctx, "EachEvent")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, queryExportEvents, append(filterArgs(f), limit)...)
	if err != nil {
		return s.mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return err
		}
		if err := fn(ev); err != nil {
			return err
		}
	}

	return s.mapError(rows.Err())
}
