package db

const credentialColumns = `id, company_id, external_user_id, encrypted_secret, key_version, metadata, status,
	created_at, updated_at, last_used_at, revoked_at`

const (
	queryCredentialByID = `SELECT ` + credentialColumns + `
FROM otp_credentials
WHERE company_id = $1 AND id = $2`

	queryActiveCredential = `SELECT ` + credentialColumns + `
FROM otp_credentials
WHERE company_id = $1 AND external_user_id = $2 AND status = 1`

	// the active credential first, else the most recently changed one
	queryCredentialByExternalUserID = `SELECT ` + credentialColumns + `
FROM otp_credentials
WHERE company_id = $1 AND external_user_id = $2
ORDER BY (status = 1) DESC, updated_at DESC, id DESC
LIMIT 1`

	queryListCredentials = `SELECT ` + credentialColumns + `
FROM otp_credentials
WHERE company_id = $1
  AND ($2::smallint = 0 OR status = $2)
  AND ($3::text = '' OR starts_with(external_user_id, $3))
ORDER BY created_at DESC, id DESC
LIMIT $4 OFFSET $5`

	queryCountCredentials = `SELECT count(*)
FROM otp_credentials
WHERE company_id = $1
  AND ($2::smallint = 0 OR status = $2)
  AND ($3::text = '' OR starts_with(external_user_id, $3))`

	queryBackupCodesByCredential = `SELECT id, credential_id, position, encrypted_value, used_at, created_at
FROM otp_backup_codes
WHERE credential_id = $1
ORDER BY position`

	queryInsertCredential = `INSERT INTO otp_credentials
	(id, company_id, external_user_id, encrypted_secret, key_version, metadata, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	queryInsertBackupCode = `INSERT INTO otp_backup_codes (id, credential_id, position, encrypted_value, created_at)
VALUES ($1, $2, $3, $4, $5)`

	queryUpdateCredential = `UPDATE otp_credentials
SET external_user_id = COALESCE($3, external_user_id),
    metadata = COALESCE($4::jsonb, metadata),
    updated_at = $5
WHERE company_id = $1 AND id = $2
RETURNING ` + credentialColumns

	queryRevokeCredential = `UPDATE otp_credentials
SET status = 2, revoked_at = $3, updated_at = $3
WHERE company_id = $1 AND id = $2 AND status = 1
RETURNING ` + credentialColumns

	queryDeleteCredential = `DELETE FROM otp_credentials
WHERE company_id = $1 AND id = $2
RETURNING ` + credentialColumns

	queryLockActiveCredential = `SELECT id FROM otp_credentials
WHERE company_id = $1 AND id = $2 AND status = 1
FOR UPDATE`

	queryDeleteBackupCodes = `DELETE FROM otp_backup_codes WHERE credential_id = $1`

	queryTouchCredential = `UPDATE otp_credentials SET updated_at = $2 WHERE id = $1`

	// compare-and-set: only an unused code of an active credential can be
	// spent. FOR SHARE orders the update against a concurrent revoke.
	queryConsumeBackupCode = `UPDATE otp_backup_codes
SET used_at = $3
WHERE id = $1 AND credential_id = $2 AND used_at IS NULL
  AND EXISTS (
    SELECT 1 FROM otp_credentials
    WHERE id = $2 AND status = 1
    FOR SHARE
  )`

	queryTouchLastUsed = `UPDATE otp_credentials
SET last_used_at = $3
WHERE company_id = $1 AND id = $2`
)
