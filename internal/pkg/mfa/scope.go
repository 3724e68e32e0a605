package mfa

import (
	"crypto/sha256"
	"fmt"
)

// Purpose identifies what a ciphertext protects.
type Purpose string

const (
	// PurposeOTPSeed scopes encryption to TOTP seeds.
	PurposeOTPSeed Purpose = "otp_seed"
	// PurposeBackupCode scopes encryption to backup codes.
	PurposeBackupCode Purpose = "backup_code"
)

// Scope binds a ciphertext to its owner. It is authenticated as GCM AAD and
// selects the tenant key.
type Scope struct {
	// CompanyID is the owning tenant.
	CompanyID string
	// Subject is the record the ciphertext belongs to (the credential id).
	Subject string
	// Purpose is the encryption purpose.
	Purpose Purpose
}

// aad hashes a labelled canonical form so the AAD has a fixed length and no
// separator ambiguity.
func (s Scope) aad() []byte {
	canonical := fmt.Sprintf("company=%s\nsubject=%s\npurpose=%s\n", s.CompanyID, s.Subject, s.Purpose)
	sum := sha256.Sum256([]byte(canonical))
	return sum[:]
}
