package db

import (
	"context"

	"github.com/shandysiswandi/otpvault/internal/credential/entity"
)

// DeleteCredential removes the credential; backup codes go with it by cascade.
// The deleted row is returned for auditing.
func (s *DB) DeleteCredential(ctx context.Context, companyID, id string) (_ *entity.Credential, err error) {
	ctx, span := s.startSpan(ctx, "DeleteCredential")
	defer func() { s.endSpan(span, err) }()

	cred, err := scanCredential(s.conn.QueryRow(ctx, queryDeleteCredential, companyID, id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return cred, nil
}
