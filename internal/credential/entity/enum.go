package entity

import (
	"strconv"
	"strings"
)

type CredentialStatus int16

const (
	// CredentialStatusUnknown is mean status is not known / not set.
	CredentialStatusUnknown CredentialStatus = 0

	// CredentialStatusActive mean the credential can be used for verification.
	CredentialStatusActive CredentialStatus = 1

	// CredentialStatusRevoked mean the credential is retired for good and its
	// (company, external user) slot is free for a new credential.
	CredentialStatusRevoked CredentialStatus = 2
)

func (cs CredentialStatus) String() string {
	switch cs {
	case CredentialStatusActive:
		return "active"
	case CredentialStatusRevoked:
		return "revoked"
	default:
		return "unknown"
	}
}

func (cs CredentialStatus) IsUnknown() bool {
	switch cs {
	case CredentialStatusActive, CredentialStatusRevoked:
		return false
	default:
		return true
	}
}

// ParseCredentialStatus accepts the status name or its numeric value.
func ParseCredentialStatus(s string) CredentialStatus {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "active":
		return CredentialStatusActive
	case "revoked":
		return CredentialStatusRevoked
	}

	n, err := strconv.ParseInt(s, 10, 16)
	if err != nil {
		return CredentialStatusUnknown
	}

	cs := CredentialStatus(n)
	if cs.IsUnknown() {
		return CredentialStatusUnknown
	}
	return cs
}

// Result is the outcome of a verification attempt. Invalid and Exhausted are
// ordinary outcomes, not errors.
type Result int8

const (
	ResultInvalid Result = iota
	ResultValid
	ResultExhausted
)

func (r Result) String() string {
	switch r {
	case ResultValid:
		return "valid"
	case ResultExhausted:
		return "exhausted"
	default:
		return "invalid"
	}
}
