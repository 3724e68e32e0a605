package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpvault/internal/credential/entity"
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

// - 23505 unique violation → goerror.ErrConflict (second active credential of a user)
// - 23503 foreign_key_violation → goerror.ErrNotFound (credential removed under a backup code write)
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return goerror.ErrConflict
		case "23503":
			return goerror.ErrNotFound
		}
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("credential.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func scanCredential(row pgx.Row) (*entity.Credential, error) {
	var (
		c          entity.Credential
		keyVersion int16
		status     int16
		metadata   []byte
	)
	if err := row.Scan(
		&c.ID,
		&c.CompanyID,
		&c.ExternalUserID,
		&c.EncryptedSecret,
		&keyVersion,
		&metadata,
		&status,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.LastUsedAt,
		&c.RevokedAt,
	); err != nil {
		return nil, err
	}

	if err := c.Metadata.Scan(metadata); err != nil {
		return nil, err
	}
	c.KeyVersion = uint16(keyVersion)
	c.Status = entity.CredentialStatus(status)

	return &c, nil
}

func (s *DB) loadBackupCodes(ctx context.Context, cred *entity.Credential) error {
	rows, err := s.conn.Query(ctx, queryBackupCodesByCredential, cred.ID)
	if err != nil {
		return err
	}

	codes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.BackupCode, error) {
		var bc entity.BackupCode
		err := row.Scan(&bc.ID, &bc.CredentialID, &bc.Position, &bc.EncryptedValue, &bc.UsedAt, &bc.CreatedAt)
		return bc, err
	})
	if err != nil {
		return err
	}

	cred.BackupCodes = codes
	return nil
}

func queueBackupCodes(b *pgx.Batch, codes []entity.BackupCode) {
	for _, bc := range codes {
		b.Queue(queryInsertBackupCode, bc.ID, bc.CredentialID, bc.Position, bc.EncryptedValue, bc.CreatedAt)
	}
}
