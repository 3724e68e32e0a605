package mfa

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

const (
	// DefaultBackupCodeCount is the number of codes issued per credential.
	DefaultBackupCodeCount = 8
	// DefaultBackupCodeLength is the number of characters per code.
	DefaultBackupCodeLength = 6

	backupCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ErrInvalidBackupCodeShape indicates a non-positive count or length.
var ErrInvalidBackupCodeShape = errors.New("mfacrypto: backup code count and length must be positive")

// BackupCodeGenerator issues a fresh set of backup codes.
type BackupCodeGenerator interface {
	// Generate returns unique codes or an error if the random source fails.
	Generate() ([]string, error)
}

// BackupCode generates uppercase alphanumeric codes from crypto/rand.
type BackupCode struct {
	count  int
	length int
}

// NewBackupCode returns a generator for count codes of length characters.
// Zero values fall back to the defaults (8 codes of 6 characters).
func NewBackupCode(count, length int) (*BackupCode, error) {
	if count == 0 {
		count = DefaultBackupCodeCount
	}
	if length == 0 {
		length = DefaultBackupCodeLength
	}
	if count < 0 || length < 0 {
		return nil, ErrInvalidBackupCodeShape
	}

	return &BackupCode{count: count, length: length}, nil
}

// Generate produces a set of unique codes.
func (bc *BackupCode) Generate() ([]string, error) {
	out := make([]string, 0, bc.count)
	seen := make(map[string]struct{}, bc.count)
	limit := big.NewInt(int64(len(backupCodeAlphabet)))

	for len(out) < bc.count {
		var sb strings.Builder
		sb.Grow(bc.length)
		for range bc.length {
			n, err := rand.Int(rand.Reader, limit)
			if err != nil {
				return nil, err
			}
			sb.WriteByte(backupCodeAlphabet[n.Int64()])
		}

		code := sb.String()
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}

	return out, nil
}

// NormalizeBackupCode canonicalizes user input before comparison.
func NormalizeBackupCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
