package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpvault/internal/credential/entity"
)

func (s *DB) GetCredential(ctx context.Context, companyID, id string) (_ *entity.Credential, err error) {
	ctx, span := s.startSpan(ctx, "GetCredential")
	defer func() { s.endSpan(span, err) }()

	return s.getWithCodes(ctx, queryCredentialByID, companyID, id)
}

func (s *DB) GetCredentialByExternalUserID(ctx context.Context, companyID, externalUserID string) (_ *entity.Credential, err error) {
	ctx, span := s.startSpan(ctx, "GetCredentialByExternalUserID")
	defer func() { s.endSpan(span, err) }()

	return s.getWithCodes(ctx, queryCredentialByExternalUserID, companyID, externalUserID)
}

func (s *DB) GetActiveCredential(ctx context.Context, companyID, externalUserID string) (_ *entity.Credential, err error) {
	ctx, span := s.startSpan(ctx, "GetActiveCredential")
	defer func() { s.endSpan(span, err) }()

	return s.getWithCodes(ctx, queryActiveCredential, companyID, externalUserID)
}

func (s *DB) getWithCodes(ctx context.Context, query string, args ...any) (*entity.Credential, error) {
	cred, err := scanCredential(s.conn.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, s.mapError(err)
	}

	if err := s.loadBackupCodes(ctx, cred); err != nil {
		return nil, s.mapError(err)
	}

	return cred, nil
}

func (s *DB) ListCredentials(ctx context.Context, f entity.CredentialListFilter) (_ []entity.Credential, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "ListCredentials")
	defer func() { s.endSpan(span, err) }()

	var total int64
	if err := s.conn.QueryRow(ctx, queryCountCredentials, f.CompanyID, int16(f.Status), f.Search).Scan(&total); err != nil {
		return nil, 0, s.mapError(err)
	}
	if total == 0 {
		return []entity.Credential{}, 0, nil
	}

	rows, err := s.conn.Query(ctx, queryListCredentials, f.CompanyID, int16(f.Status), f.Search, f.Size, f.Offset)
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Credential, error) {
		c, err := scanCredential(row)
		if err != nil {
			return entity.Credential{}, err
		}
		return *c, nil
	})
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	return items, total, nil
}
