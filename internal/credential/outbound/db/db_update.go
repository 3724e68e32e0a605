package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpvault/internal/credential/entity"
)

func (s *DB) UpdateCredential(ctx context.Context, companyID, id string, p entity.CredentialPatch) (_ *entity.Credential, err error) {
	ctx, span := s.startSpan(ctx, "UpdateCredential")
	defer func() { s.endSpan(span, err) }()

	var metadata any
	if p.Metadata != nil {
		if metadata, err = p.Metadata.Value(); err != nil {
			return nil, err
		}
	}

	cred, err := scanCredential(s.conn.QueryRow(ctx, queryUpdateCredential, companyID, id, p.ExternalUserID, metadata, p.UpdatedAt))
	if err != nil {
		return nil, s.mapError(err)
	}

	return cred, nil
}

func (s *DB) RevokeCredential(ctx context.Context, companyID, id string, at time.Time) (_ *entity.Credential, err error) {
	ctx, span := s.startSpan(ctx, "RevokeCredential")
	defer func() { s.endSpan(span, err) }()

	cred, err := scanCredential(s.conn.QueryRow(ctx, queryRevokeCredential, companyID, id, at))
	if err != nil {
		return nil, s.mapError(err)
	}

	return cred, nil
}

// ReplaceBackupCodes swaps the whole code set of an Active credential in one
// transaction. The credential row is locked so a concurrent revoke or delete
// either happens before (not found) or waits.
func (s *DB) ReplaceBackupCodes(ctx context.Context, companyID, credentialID string, codes []entity.BackupCode, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "ReplaceBackupCodes")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	var lockedID string
	if err := tx.QueryRow(ctx, queryLockActiveCredential, companyID, credentialID).Scan(&lockedID); err != nil {
		return s.mapError(err)
	}

	b := &pgx.Batch{}
	b.Queue(queryDeleteBackupCodes, credentialID)
	queueBackupCodes(b, codes)
	b.Queue(queryTouchCredential, credentialID, at)
	if err := tx.SendBatch(ctx, b).Close(); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

// ConsumeBackupCode marks an unused code as used. It reports false when the
// code was already spent, no longer exists or its credential is not active.
func (s *DB) ConsumeBackupCode(ctx context.Context, credentialID string, codeID int64, at time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeBackupCode")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryConsumeBackupCode, codeID, credentialID, at)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *DB) TouchLastUsed(ctx context.Context, companyID, credentialID string, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "TouchLastUsed")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryTouchLastUsed, companyID, credentialID, at)
	return s.mapError(err)
}
