package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpvault/internal/credential/entity"
)

// NewCredential stores the credential and its backup codes in one transaction.
func (s *DB) NewCredential(ctx context.Context, cred entity.Credential) (err error) {
	ctx, span := s.startSpan(ctx, "NewCredential")
	defer func() { s.endSpan(span, err) }()

	metadata, err := cred.Metadata.Value()
	if err != nil {
		return err
	}

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	if _, err := tx.Exec(ctx, queryInsertCredential,
		cred.ID,
		cred.CompanyID,
		cred.ExternalUserID,
		cred.EncryptedSecret,
		int16(cred.KeyVersion),
		metadata,
		int16(cred.Status),
		cred.CreatedAt,
		cred.UpdatedAt,
	); err != nil {
		return s.mapError(err)
	}

	b := &pgx.Batch{}
	queueBackupCodes(b, cred.BackupCodes)
	if err := tx.SendBatch(ctx, b).Close(); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}
